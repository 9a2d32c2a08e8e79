package model

import "time"

// 职位状态
const (
	PostingStatusActive   = "active"
	PostingStatusInactive = "inactive"
	PostingStatusClosed   = "closed"
)

// ValidPostingStatus 判断状态值是否合法
func ValidPostingStatus(s string) bool {
	switch s {
	case PostingStatusActive, PostingStatusInactive, PostingStatusClosed:
		return true
	}
	return false
}

// Posting 职位
type Posting struct {
	ID              int64  `json:"id" gorm:"primaryKey;autoIncrement"`
	Hash            string `json:"hash" gorm:"type:varchar(16);uniqueIndex:ux_postings_hash;not null"`
	UserID          int64  `json:"user_id" gorm:"index:idx_postings_user;not null"`
	Title           string `json:"title" gorm:"type:varchar(255);not null"`
	PostDescription string `json:"post_description" gorm:"type:text;not null"`
	Category        string `json:"category" gorm:"type:varchar(100);index:idx_postings_category"`
	Status          string `json:"status" gorm:"type:varchar(20);index:idx_postings_status;not null;default:active"`
	// Views 冗余计数，与 posting_views 行数同步递增
	Views     int64     `json:"views" gorm:"not null;default:0"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Posting) TableName() string { return "postings" }
