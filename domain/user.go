package domain

import "time"

type Role string

const (
	RoleCandidate Role = "candidate"
	RoleRecruiter Role = "recruiter"
	RoleManager   Role = "manager"
)

func (r Role) Valid() bool {
	switch r {
	case RoleCandidate, RoleRecruiter, RoleManager:
		return true
	default:
		return false
	}
}

// User is a single-role account. Recruiters and managers act only on the
// company they are affiliated with.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Username  string    `gorm:"size:150;not null;uniqueIndex" json:"username"`
	Email     string    `gorm:"size:255" json:"email"`
	Role      Role      `gorm:"size:20;not null;default:candidate" json:"role"`
	CompanyID *uint     `gorm:"index" json:"company,omitempty"`
	Company   *Company  `gorm:"constraint:OnDelete:SET NULL" json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// IsStaff reports whether the user is a recruiter or a manager.
func (u *User) IsStaff() bool {
	return u != nil && (u.Role == RoleRecruiter || u.Role == RoleManager)
}

// WorksFor reports whether the user is affiliated with companyID.
func (u *User) WorksFor(companyID uint) bool {
	return u != nil && u.CompanyID != nil && *u.CompanyID == companyID
}
