package model

import "time"

// PostingView 浏览日志（只追加）
type PostingView struct {
	ID           int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	PostingID    int64     `json:"posting_id" gorm:"not null;index:idx_views_posting_user,priority:1;index:idx_views_posting_session,priority:1"`
	UserID       *int64    `json:"user_id,omitempty" gorm:"index:idx_views_posting_user,priority:2"`
	IPAddress    *string   `json:"ip_address,omitempty" gorm:"type:varchar(64)"`
	UserAgent    *string   `json:"user_agent,omitempty" gorm:"type:text"`
	SessionID    *string   `json:"session_id,omitempty" gorm:"type:varchar(128);index:idx_views_posting_session,priority:2"`
	ViewedAt     time.Time `json:"viewed_at" gorm:"not null;index:idx_views_viewed_at"`
	IsUniqueView bool      `json:"is_unique_view" gorm:"not null;default:false"`
}

func (PostingView) TableName() string { return "posting_views" }
