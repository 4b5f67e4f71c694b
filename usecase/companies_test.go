package usecase_test

import (
	"context"
	"testing"

	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ats/domain"
	"ats/usecase"
)

func TestCompaniesCreateAndList(t *testing.T) {
	ctx := context.Background()
	log, _ := logtest.NewNullLogger()
	store := newMemoryStore()
	store.addCompany("Zeta Labs")
	companies := usecase.NewCompanies(store, log)

	created, err := companies.Create(ctx, "  Acme ")
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.Equal(t, "Acme", created.Name)

	_, err = companies.Create(ctx, " ")
	require.Error(t, err)
	assert.Equal(t, domain.CodeValidation, domain.CodeOf(err))

	all, err := companies.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Acme", all[0].Name)
	assert.Equal(t, "Zeta Labs", all[1].Name)
}
