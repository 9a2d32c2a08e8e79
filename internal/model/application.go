package model

import "time"

// 申请状态：pending -> reviewed -> accepted/rejected
const (
	ApplicationPending  = "pending"
	ApplicationReviewed = "reviewed"
	ApplicationAccepted = "accepted"
	ApplicationRejected = "rejected"
)

// ValidApplicationStatus 判断状态值是否合法
func ValidApplicationStatus(s string) bool {
	switch s {
	case ApplicationPending, ApplicationReviewed, ApplicationAccepted, ApplicationRejected:
		return true
	}
	return false
}

// Application 职位申请，(user_id, posting_id) 唯一
type Application struct {
	ID            int64      `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID        int64      `json:"user_id" gorm:"not null;uniqueIndex:ux_applications_user_posting,priority:1"`
	PostingID     int64      `json:"posting_id" gorm:"not null;uniqueIndex:ux_applications_user_posting,priority:2;index:idx_applications_posting"`
	Message       *string    `json:"message"`
	CoverLetter   *string    `json:"cover_letter"`
	Status        string     `json:"status" gorm:"type:varchar(20);not null;default:pending"`
	ReviewerNotes *string    `json:"reviewer_notes"`
	AppliedAt     time.Time  `json:"applied_at" gorm:"not null"`
	ReviewedAt    *time.Time `json:"reviewed_at"`
}

func (Application) TableName() string { return "applications" }
