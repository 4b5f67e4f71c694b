package usecase

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"ats/domain"
)

// Companies registers and lists hiring companies.
type Companies struct {
	dir domain.Directory
	log logrus.FieldLogger
}

func NewCompanies(dir domain.Directory, log logrus.FieldLogger) *Companies {
	return &Companies{dir: dir, log: log}
}

func (c *Companies) Create(ctx context.Context, name string) (*domain.Company, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.ValidationError("name is required")
	}
	company := &domain.Company{Name: name}
	if err := c.dir.CreateCompany(ctx, company); err != nil {
		return nil, err
	}
	c.log.WithField("company", company.ID).Info("company created")
	return company, nil
}

func (c *Companies) List(ctx context.Context) ([]domain.Company, error) {
	return c.dir.ListCompanies(ctx)
}
