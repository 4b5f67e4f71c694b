package usecase

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"ats/domain"
)

// Jobs posts and closes job openings.
type Jobs struct {
	dir domain.Directory
	log logrus.FieldLogger
}

func NewJobs(dir domain.Directory, log logrus.FieldLogger) *Jobs {
	return &Jobs{dir: dir, log: log}
}

// Create opens a new job for companyID.
func (j *Jobs) Create(ctx context.Context, companyID uint, title, description string) (*domain.Job, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, domain.ValidationError("title is required")
	}
	if _, err := j.dir.GetCompany(ctx, companyID); err != nil {
		return nil, err
	}

	job := &domain.Job{
		Title:       title,
		Description: strings.TrimSpace(description),
		Status:      domain.JobOpen,
		CompanyID:   companyID,
	}
	if err := j.dir.CreateJob(ctx, job); err != nil {
		return nil, err
	}
	j.log.WithFields(logrus.Fields{"job": job.ID, "company": companyID}).Info("job created")
	return job, nil
}

func (j *Jobs) Get(ctx context.Context, id uint) (*domain.Job, error) {
	return j.dir.GetJob(ctx, id)
}

// List returns jobs filtered by status. An empty status means open jobs,
// "all" means every job.
func (j *Jobs) List(ctx context.Context, status string) ([]domain.Job, error) {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "", string(domain.JobOpen):
		return j.dir.ListJobs(ctx, domain.JobOpen)
	case string(domain.JobClosed):
		return j.dir.ListJobs(ctx, domain.JobClosed)
	case "all":
		return j.dir.ListJobs(ctx, "")
	default:
		return nil, domain.ValidationError("invalid job status")
	}
}

// Close stops a job from accepting applications. Existing applications
// keep moving through the pipeline.
func (j *Jobs) Close(ctx context.Context, job *domain.Job) (*domain.Job, error) {
	if job == nil {
		return nil, domain.NotFoundError("job not found")
	}
	if job.Status == domain.JobClosed {
		return job, nil
	}
	closed, err := j.dir.UpdateJobStatus(ctx, job.ID, domain.JobClosed)
	if err != nil {
		return nil, err
	}
	j.log.WithField("job", closed.ID).Info("job closed")
	return closed, nil
}
