package model

import "time"

// User 用户
type User struct {
	ID             int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	Name           string    `json:"name" gorm:"type:varchar(100);not null"`
	Surname        string    `json:"surname" gorm:"type:varchar(100);not null"`
	Username       string    `json:"username" gorm:"type:varchar(50);uniqueIndex:ux_users_username;not null"`
	Email          string    `json:"email" gorm:"type:varchar(255);uniqueIndex:ux_users_email;not null"`
	UserType       string    `json:"user_type" gorm:"type:varchar(20);not null;default:regular"`
	HashedPassword string    `json:"-" gorm:"type:varchar(255);not null"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (User) TableName() string { return "users" }

const UserTypeRegular = "regular"
