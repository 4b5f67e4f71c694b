package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"ats/domain"
)

const (
	mysqlDuplicateEntry        = 1062
	postgresUniqueViolation    = "23505"
	sqliteConstraintPrimaryKey = 1555
	sqliteConstraintUnique     = 2067
)

// GormStore implements domain.ApplicationStore and domain.Directory.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// CreateApplication relies on idx_application_candidate_job to reject a
// second application for the same pair, including concurrent ones. Writes
// ignore cancellation of ctx once started.
func (s *GormStore) CreateApplication(ctx context.Context, candidateID, jobID uint) (*domain.Application, error) {
	ctx = context.WithoutCancel(ctx)
	app := domain.Application{
		CandidateID: candidateID,
		JobID:       jobID,
		Stage:       domain.StageApplied,
	}
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(&app).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, domain.DuplicateError("application already exists", err)
		}
		return nil, domain.NewError(domain.CodeInternal, "failed to create application", err)
	}
	return &app, nil
}

// Transition locks the row, re-checks the stage the caller validated
// against and writes the new stage together with one history row.
func (s *GormStore) Transition(ctx context.Context, applicationID uint, from, to domain.Stage, actorID uint) (*domain.Application, error) {
	ctx = context.WithoutCancel(ctx)
	var app domain.Application
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate}).
			First(&app, applicationID).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.NotFoundError("application not found")
			}
			return domain.NewError(domain.CodeInternal, "failed to load application", err)
		}
		if app.Stage != from {
			return domain.ConflictError(fmt.Sprintf("application is now %s, expected %s", app.Stage, from))
		}

		now := time.Now().UTC()
		res := tx.Model(&domain.Application{}).
			Where("id = ? AND stage = ?", applicationID, from).
			Updates(map[string]any{"stage": to, "updated_at": now})
		if res.Error != nil {
			return domain.NewError(domain.CodeInternal, "failed to update application", res.Error)
		}
		if res.RowsAffected == 0 {
			return domain.ConflictError(fmt.Sprintf("application left stage %s", from))
		}

		history := domain.ApplicationHistory{
			ApplicationID: applicationID,
			FromStage:     from,
			ToStage:       to,
			ChangedAt:     now,
		}
		if actorID != 0 {
			history.ChangedByID = &actorID
		}
		if err := tx.Omit(clause.Associations).Create(&history).Error; err != nil {
			return domain.NewError(domain.CodeInternal, "failed to record history", err)
		}

		app.Stage = to
		app.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &app, nil
}

func (s *GormStore) GetApplication(ctx context.Context, id uint) (*domain.Application, error) {
	var app domain.Application
	err := s.db.WithContext(ctx).
		Preload("Job").
		Preload("Candidate").
		First(&app, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NotFoundError("application not found")
		}
		return nil, domain.NewError(domain.CodeInternal, "failed to load application", err)
	}
	return &app, nil
}

func (s *GormStore) ListApplicationsByJob(ctx context.Context, jobID uint) ([]domain.Application, error) {
	var items []domain.Application
	err := s.db.WithContext(ctx).
		Where("job_id = ?", jobID).
		Order("created_at, id").
		Find(&items).Error
	if err != nil {
		return nil, domain.NewError(domain.CodeInternal, "failed to list job applications", err)
	}
	return items, nil
}

func (s *GormStore) ListApplicationsByCandidate(ctx context.Context, candidateID uint) ([]domain.Application, error) {
	var items []domain.Application
	err := s.db.WithContext(ctx).
		Preload("Job").
		Where("candidate_id = ?", candidateID).
		Order("created_at DESC, id DESC").
		Find(&items).Error
	if err != nil {
		return nil, domain.NewError(domain.CodeInternal, "failed to list candidate applications", err)
	}
	return items, nil
}

// ListHistory returns the audit trail newest first.
func (s *GormStore) ListHistory(ctx context.Context, applicationID uint) ([]domain.ApplicationHistory, error) {
	var items []domain.ApplicationHistory
	err := s.db.WithContext(ctx).
		Where("application_id = ?", applicationID).
		Order("changed_at DESC, id DESC").
		Find(&items).Error
	if err != nil {
		return nil, domain.NewError(domain.CodeInternal, "failed to list history", err)
	}
	return items, nil
}

func (s *GormStore) GetCompany(ctx context.Context, id uint) (*domain.Company, error) {
	var company domain.Company
	if err := s.db.WithContext(ctx).First(&company, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NotFoundError("company not found")
		}
		return nil, domain.NewError(domain.CodeInternal, "failed to load company", err)
	}
	return &company, nil
}

func (s *GormStore) ListCompanies(ctx context.Context) ([]domain.Company, error) {
	var companies []domain.Company
	if err := s.db.WithContext(ctx).Order("name, id").Find(&companies).Error; err != nil {
		return nil, domain.NewError(domain.CodeInternal, "failed to list companies", err)
	}
	return companies, nil
}

func (s *GormStore) CreateCompany(ctx context.Context, company *domain.Company) error {
	if err := s.db.WithContext(ctx).Create(company).Error; err != nil {
		return domain.NewError(domain.CodeInternal, "failed to create company", err)
	}
	return nil
}

func (s *GormStore) GetUser(ctx context.Context, id uint) (*domain.User, error) {
	var user domain.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NotFoundError("user not found")
		}
		return nil, domain.NewError(domain.CodeInternal, "failed to load user", err)
	}
	return &user, nil
}

// ListStaff returns the users of companyID holding role.
func (s *GormStore) ListStaff(ctx context.Context, companyID uint, role domain.Role) ([]domain.User, error) {
	var users []domain.User
	err := s.db.WithContext(ctx).
		Where("company_id = ? AND role = ?", companyID, role).
		Order("id").
		Find(&users).Error
	if err != nil {
		return nil, domain.NewError(domain.CodeInternal, "failed to list staff", err)
	}
	return users, nil
}

func (s *GormStore) GetJob(ctx context.Context, id uint) (*domain.Job, error) {
	var job domain.Job
	if err := s.db.WithContext(ctx).First(&job, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NotFoundError("job not found")
		}
		return nil, domain.NewError(domain.CodeInternal, "failed to load job", err)
	}
	return &job, nil
}

// ListJobs returns the newest jobs first.
func (s *GormStore) ListJobs(ctx context.Context, status domain.JobStatus) ([]domain.Job, error) {
	q := s.db.WithContext(ctx).Order("created_at DESC, id DESC")
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var jobs []domain.Job
	if err := q.Find(&jobs).Error; err != nil {
		return nil, domain.NewError(domain.CodeInternal, "failed to list jobs", err)
	}
	return jobs, nil
}

func (s *GormStore) CreateJob(ctx context.Context, job *domain.Job) error {
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(job).Error; err != nil {
		return domain.NewError(domain.CodeInternal, "failed to create job", err)
	}
	return nil
}

func (s *GormStore) UpdateJobStatus(ctx context.Context, id uint, status domain.JobStatus) (*domain.Job, error) {
	job, err := s.GetJob(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(job).Update("status", status).Error; err != nil {
		return nil, domain.NewError(domain.CodeInternal, "failed to update job", err)
	}
	job.Status = status
	return job, nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var mysqlErr *mysqldriver.MySQLError
	if errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == postgresUniqueViolation {
		return true
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) {
		switch coder.Code() {
		case sqliteConstraintUnique, sqliteConstraintPrimaryKey:
			return true
		}
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
