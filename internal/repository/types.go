package repository

import "time"

// ViewIdentity 浏览去重的身份：优先 UserID，其次 SessionID
type ViewIdentity struct {
	UserID    *int64
	SessionID *string
}

// Empty 无可去重身份
func (i ViewIdentity) Empty() bool { return i.UserID == nil && i.SessionID == nil }

// PostingStats 单个职位的汇总计数
type PostingStats struct {
	Views            int64 `json:"views" gorm:"column:views"`
	TotalViews       int64 `json:"total_views" gorm:"column:total_views"`
	UniqueViews      int64 `json:"unique_views" gorm:"column:unique_views"`
	ApplicationCount int64 `json:"application_count" gorm:"column:application_count"`
}

// StatusCount 按申请状态分组计数
type StatusCount struct {
	Status string `json:"status" gorm:"column:status"`
	Count  int64  `json:"count" gorm:"column:count"`
}

// UserOverview 用户全部职位的总览
type UserOverview struct {
	TotalPostings      int64   `json:"total_postings" gorm:"column:total_postings"`
	ActivePostings     int64   `json:"active_postings" gorm:"column:active_postings"`
	TotalViews         int64   `json:"total_views" gorm:"column:total_views"`
	TotalApplications  int64   `json:"total_applications" gorm:"column:total_applications"`
	AvgViewsPerPosting float64 `json:"avg_views_per_posting" gorm:"-"`
}

// TopPosting 浏览量排行项
type TopPosting struct {
	ID               int64     `json:"id" gorm:"column:id"`
	Hash             string    `json:"hash" gorm:"column:hash"`
	Title            string    `json:"title" gorm:"column:title"`
	Views            int64     `json:"views" gorm:"column:views"`
	CreatedAt        time.Time `json:"created_at" gorm:"column:created_at"`
	ApplicationCount int64     `json:"application_count" gorm:"column:application_count"`
}

// DailyActivity 用户维度按天汇总
type DailyActivity struct {
	Date              time.Time `json:"date" gorm:"column:metric_date"`
	DailyViews        int64     `json:"daily_views" gorm:"column:daily_views"`
	DailyUniqueViews  int64     `json:"daily_unique_views" gorm:"column:daily_unique_views"`
	DailyApplications int64     `json:"daily_applications" gorm:"column:daily_applications"`
}

// PublicPosting 对外展示的职位（含发布者与申请数）
type PublicPosting struct {
	ID               int64     `json:"id" gorm:"column:id"`
	Hash             string    `json:"hash" gorm:"column:hash"`
	UserID           int64     `json:"user_id" gorm:"column:user_id"`
	Title            string    `json:"title" gorm:"column:title"`
	PostDescription  string    `json:"post_description" gorm:"column:post_description"`
	Category         string    `json:"category" gorm:"column:category"`
	Status           string    `json:"status" gorm:"column:status"`
	Views            int64     `json:"views" gorm:"column:views"`
	CreatedAt        time.Time `json:"created_at" gorm:"column:created_at"`
	CreatorName      string    `json:"creator_name" gorm:"column:creator_name"`
	CreatorUsername  string    `json:"creator_username" gorm:"column:creator_username"`
	ApplicationCount int64     `json:"application_count" gorm:"column:application_count"`
}

// ApplicationDetails 申请详情（含职位与申请人信息）
type ApplicationDetails struct {
	ID             int64      `json:"id" gorm:"column:id"`
	UserID         int64      `json:"user_id" gorm:"column:user_id"`
	PostingID      int64      `json:"posting_id" gorm:"column:posting_id"`
	Message        *string    `json:"message" gorm:"column:message"`
	CoverLetter    *string    `json:"cover_letter" gorm:"column:cover_letter"`
	Status         string     `json:"status" gorm:"column:status"`
	ReviewerNotes  *string    `json:"reviewer_notes" gorm:"column:reviewer_notes"`
	AppliedAt      time.Time  `json:"applied_at" gorm:"column:applied_at"`
	ReviewedAt     *time.Time `json:"reviewed_at" gorm:"column:reviewed_at"`
	PostingTitle   string     `json:"posting_title" gorm:"column:posting_title"`
	PostingHash    string     `json:"posting_hash" gorm:"column:posting_hash"`
	PostingOwnerID int64      `json:"posting_owner_id" gorm:"column:posting_owner_id"`
	ApplicantName  string     `json:"applicant_name" gorm:"column:applicant_name"`
	ApplicantEmail string     `json:"applicant_email" gorm:"column:applicant_email"`
}

// UserApplication 用户自己的申请列表项
type UserApplication struct {
	ID                 int64      `json:"id" gorm:"column:id"`
	PostingID          int64      `json:"posting_id" gorm:"column:posting_id"`
	Message            *string    `json:"message" gorm:"column:message"`
	CoverLetter        *string    `json:"cover_letter" gorm:"column:cover_letter"`
	Status             string     `json:"status" gorm:"column:status"`
	AppliedAt          time.Time  `json:"applied_at" gorm:"column:applied_at"`
	ReviewedAt         *time.Time `json:"reviewed_at" gorm:"column:reviewed_at"`
	Title              string     `json:"title" gorm:"column:title"`
	PostDescription    string     `json:"post_description" gorm:"column:post_description"`
	Category           string     `json:"category" gorm:"column:category"`
	PostingCreatedAt   time.Time  `json:"posting_created_at" gorm:"column:posting_created_at"`
	PostingHash        string     `json:"posting_hash" gorm:"column:posting_hash"`
	PostingCreatorName string     `json:"posting_creator_name" gorm:"column:posting_creator_name"`
}

// PostingApplicant 职位下的申请人列表项
type PostingApplicant struct {
	ID             int64     `json:"id" gorm:"column:id"`
	UserID         int64     `json:"user_id" gorm:"column:user_id"`
	Message        *string   `json:"message" gorm:"column:message"`
	CoverLetter    *string   `json:"cover_letter" gorm:"column:cover_letter"`
	Status         string    `json:"status" gorm:"column:status"`
	AppliedAt      time.Time `json:"applied_at" gorm:"column:applied_at"`
	ApplicantName  string    `json:"name" gorm:"column:name"`
	ApplicantEmail string    `json:"email" gorm:"column:email"`
}
