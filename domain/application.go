package domain

import "time"

// Application links one candidate to one job. The (candidate_id, job_id)
// pair is unique at the storage layer. Deleting an application removes its
// history; candidates and jobs with applications cannot be deleted.
type Application struct {
	ID          uint                 `gorm:"primaryKey" json:"id"`
	CandidateID uint                 `gorm:"not null;uniqueIndex:idx_application_candidate_job" json:"candidate"`
	JobID       uint                 `gorm:"not null;uniqueIndex:idx_application_candidate_job;index" json:"job"`
	Stage       Stage                `gorm:"size:20;not null;default:Applied" json:"stage"`
	CreatedAt   time.Time            `json:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at"`
	Candidate   *User                `gorm:"constraint:OnDelete:RESTRICT" json:"-"`
	Job         *Job                 `gorm:"constraint:OnDelete:RESTRICT" json:"-"`
	History     []ApplicationHistory `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

// ApplicationHistory is one append-only audit row per stage transition.
type ApplicationHistory struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	ApplicationID uint      `gorm:"not null;index" json:"application"`
	FromStage     Stage     `gorm:"size:20;not null" json:"from_stage"`
	ToStage       Stage     `gorm:"size:20;not null" json:"to_stage"`
	ChangedByID   *uint     `gorm:"index" json:"changed_by"`
	ChangedBy     *User     `gorm:"constraint:OnDelete:SET NULL" json:"-"`
	ChangedAt     time.Time `gorm:"not null;index" json:"changed_at"`
}

func (ApplicationHistory) TableName() string {
	return "application_histories"
}
