package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mailfleet/mailfleet/internal/domain"
	"github.com/Mailfleet/mailfleet/internal/repository/testutil"
)

func pendingPlacementTest(t *testing.T) *domain.PlacementTest {
	t.Helper()
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	return &domain.PlacementTest{
		ID:           "test-123",
		DomainID:     uuid.New().String(),
		FilterPhrase: "zx81-phrase",
		Status:       domain.TestStatusCreated,
		SeedEmails: domain.SeedEmailResults{
			{Email: "a@gmail.test", Provider: domain.SeedProviderGoogle},
			{Email: "b@outlook.test", Provider: domain.SeedProviderMicrosoft},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func placementTestRows(t *testing.T, tests ...*domain.PlacementTest) *sqlmock.Rows {
	t.Helper()
	rows := sqlmock.NewRows([]string{
		"id", "domain_id", "filter_phrase", "status", "seed_emails",
		"overall_score", "inbox_percent", "spam_percent", "created_at", "completed_at", "updated_at",
	})
	for _, test := range tests {
		seeds, err := json.Marshal(test.SeedEmails)
		require.NoError(t, err)
		var completed interface{}
		if test.CompletedAt != nil {
			completed = *test.CompletedAt
		}
		rows.AddRow(test.ID, test.DomainID, test.FilterPhrase, string(test.Status), seeds,
			test.OverallScore, test.InboxPercent, test.SpamPercent, test.CreatedAt, completed, test.UpdatedAt)
	}
	return rows
}

func TestPlacementTestRepository_Create(t *testing.T) {
	db, mock, cleanup := testutil.SetupMockDB(t)
	defer cleanup()

	repo := NewPlacementTestRepository(db)
	test := pendingPlacementTest(t)

	mock.ExpectExec(`INSERT INTO placement_tests`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Create(context.Background(), test)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPlacementTestRepository_GetByID(t *testing.T) {
	db, mock, cleanup := testutil.SetupMockDB(t)
	defer cleanup()

	repo := NewPlacementTestRepository(db)
	test := pendingPlacementTest(t)

	mock.ExpectQuery(`FROM placement_tests WHERE id = \$1`).
		WithArgs(test.ID).
		WillReturnRows(placementTestRows(t, test))

	found, err := repo.GetByID(context.Background(), test.ID)
	require.NoError(t, err)
	assert.Equal(t, test.ID, found.ID)
	assert.Equal(t, domain.TestStatusCreated, found.Status)
	assert.Nil(t, found.CompletedAt)
	require.Len(t, found.SeedEmails, 2)

	mock.ExpectQuery(`FROM placement_tests WHERE id = \$1`).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err = repo.GetByID(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, domain.ErrKindNotFound, domain.KindOf(err))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPlacementTestRepository_GetActiveByDomain(t *testing.T) {
	db, mock, cleanup := testutil.SetupMockDB(t)
	defer cleanup()

	repo := NewPlacementTestRepository(db)
	test := pendingPlacementTest(t)

	mock.ExpectQuery(`WHERE domain_id = \$1 AND status != \$2`).
		WithArgs(test.DomainID, string(domain.TestStatusCompleted)).
		WillReturnRows(placementTestRows(t, test))

	found, err := repo.GetActiveByDomain(context.Background(), test.DomainID)
	require.NoError(t, err)
	assert.Equal(t, test.ID, found.ID)

	mock.ExpectQuery(`WHERE domain_id = \$1 AND status != \$2`).
		WithArgs("quiet-domain", string(domain.TestStatusCompleted)).
		WillReturnError(sql.ErrNoRows)

	_, err = repo.GetActiveByDomain(context.Background(), "quiet-domain")
	require.Error(t, err)
	assert.Equal(t, domain.ErrKindNotFound, domain.KindOf(err))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPlacementTestRepository_Update(t *testing.T) {
	db, mock, cleanup := testutil.SetupMockDB(t)
	defer cleanup()

	repo := NewPlacementTestRepository(db)
	test := pendingPlacementTest(t)
	completedAt := test.CreatedAt.Add(2 * time.Hour)
	test.Status = domain.TestStatusCompleted
	test.OverallScore = 85
	test.InboxPercent = 85
	test.SpamPercent = 15
	test.CompletedAt = &completedAt

	mock.ExpectExec(`UPDATE placement_tests SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Update(context.Background(), test)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPlacementTestRepository_Update_CompletedTestIsImmutable(t *testing.T) {
	db, mock, cleanup := testutil.SetupMockDB(t)
	defer cleanup()

	repo := NewPlacementTestRepository(db)
	test := pendingPlacementTest(t)
	completedAt := test.CreatedAt.Add(2 * time.Hour)
	test.Status = domain.TestStatusCompleted
	test.OverallScore = 85
	test.InboxPercent = 85
	test.SpamPercent = 15
	test.CompletedAt = &completedAt

	// The guarded UPDATE touches nothing because the stored row is
	// already completed
	mock.ExpectExec(`UPDATE placement_tests SET`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs(test.ID).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	err := repo.Update(context.Background(), test)
	require.Error(t, err)
	assert.Equal(t, domain.ErrKindConflict, domain.KindOf(err))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPlacementTestRepository_ListByDomain(t *testing.T) {
	db, mock, cleanup := testutil.SetupMockDB(t)
	defer cleanup()

	repo := NewPlacementTestRepository(db)
	test := pendingPlacementTest(t)

	mock.ExpectQuery(`WHERE domain_id = \$1`).
		WithArgs(test.DomainID, 5).
		WillReturnRows(placementTestRows(t, test))

	tests, err := repo.ListByDomain(context.Background(), test.DomainID, 5)
	require.NoError(t, err)
	require.Len(t, tests, 1)
	assert.Equal(t, test.ID, tests[0].ID)

	assert.NoError(t, mock.ExpectationsWereMet())
}
