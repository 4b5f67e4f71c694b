package domain

import "time"

type JobStatus string

const (
	JobOpen   JobStatus = "open"
	JobClosed JobStatus = "closed"
)

type Job struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Title       string    `gorm:"size:255;not null" json:"title"`
	Description string    `gorm:"type:text;not null" json:"description"`
	Status      JobStatus `gorm:"size:20;not null;default:open" json:"status"`
	CompanyID   uint      `gorm:"not null;index" json:"company"`
	Company     *Company  `gorm:"constraint:OnDelete:RESTRICT" json:"-"`
	CreatedAt   time.Time `json:"created_at"`
}

func (j *Job) IsOpen() bool {
	return j != nil && j.Status == JobOpen
}
