package domain

import "context"

// ApplicationStore persists applications and their audit history.
type ApplicationStore interface {
	// CreateApplication inserts an Applied application or fails with a
	// duplicate error when the (candidate, job) pair already exists.
	CreateApplication(ctx context.Context, candidateID, jobID uint) (*Application, error)
	// Transition moves an application from one stage to another and appends
	// one history row in the same transaction. It fails with a conflict
	// error when the stored stage is no longer from.
	Transition(ctx context.Context, applicationID uint, from, to Stage, actorID uint) (*Application, error)
	GetApplication(ctx context.Context, id uint) (*Application, error)
	ListApplicationsByJob(ctx context.Context, jobID uint) ([]Application, error)
	ListApplicationsByCandidate(ctx context.Context, candidateID uint) ([]Application, error)
	ListHistory(ctx context.Context, applicationID uint) ([]ApplicationHistory, error)
}

// Directory resolves the companies, users and jobs around an application.
type Directory interface {
	GetCompany(ctx context.Context, id uint) (*Company, error)
	ListCompanies(ctx context.Context) ([]Company, error)
	CreateCompany(ctx context.Context, company *Company) error
	GetUser(ctx context.Context, id uint) (*User, error)
	ListStaff(ctx context.Context, companyID uint, role Role) ([]User, error)
	GetJob(ctx context.Context, id uint) (*Job, error)
	// ListJobs returns jobs with the given status, or every job when status
	// is empty.
	ListJobs(ctx context.Context, status JobStatus) ([]Job, error)
	CreateJob(ctx context.Context, job *Job) error
	UpdateJobStatus(ctx context.Context, id uint, status JobStatus) (*Job, error)
}
