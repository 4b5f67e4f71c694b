package infrastructure

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"ats/domain"
)

// Seed inserts a demo company with staff, one candidate and two jobs.
// It does nothing when any company already exists.
func Seed(ctx context.Context, db *gorm.DB, log logrus.FieldLogger) error {
	var count int64
	if err := db.WithContext(ctx).Model(&domain.Company{}).Count(&count).Error; err != nil {
		return fmt.Errorf("count companies: %w", err)
	}
	if count > 0 {
		return nil
	}

	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		company := domain.Company{Name: "Test Corp"}
		if err := tx.Create(&company).Error; err != nil {
			return fmt.Errorf("seed company: %w", err)
		}

		users := []domain.User{
			{Username: "candidate1", Email: "candidate1@example.com", Role: domain.RoleCandidate},
			{Username: "recruiter1", Email: "recruiter1@example.com", Role: domain.RoleRecruiter, CompanyID: &company.ID},
			{Username: "manager1", Email: "manager1@example.com", Role: domain.RoleManager, CompanyID: &company.ID},
		}
		if err := tx.Create(&users).Error; err != nil {
			return fmt.Errorf("seed users: %w", err)
		}

		jobs := []domain.Job{
			{
				Title:       "Backend Developer",
				Description: "Go services, MySQL and RabbitMQ.",
				Status:      domain.JobOpen,
				CompanyID:   company.ID,
			},
			{
				Title:       "Engineering Manager",
				Description: "Lead the platform team.",
				Status:      domain.JobClosed,
				CompanyID:   company.ID,
			},
		}
		if err := tx.Create(&jobs).Error; err != nil {
			return fmt.Errorf("seed jobs: %w", err)
		}

		log.WithFields(logrus.Fields{
			"company": company.ID,
			"users":   len(users),
			"jobs":    len(jobs),
		}).Info("seeded demo data")
		return nil
	})
}
