package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mailfleet/mailfleet/internal/domain"
	"github.com/Mailfleet/mailfleet/internal/repository/testutil"
)

func fleetNotification(t *testing.T, kind domain.NotificationKind) *domain.Notification {
	t.Helper()
	return &domain.Notification{
		ID:        uuid.New().String(),
		Kind:      kind,
		Title:     "Low domain score",
		Message:   "Domain mail.example.com scored 55",
		DomainID:  uuid.New().String(),
		Channels:  domain.NotificationChannels{UI: true, Email: kind == domain.NotificationCritical},
		CreatedAt: time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC),
	}
}

func TestNotificationRepository_Create(t *testing.T) {
	db, mock, cleanup := testutil.SetupMockDB(t)
	defer cleanup()

	repo := NewNotificationRepository(db)
	n := fleetNotification(t, domain.NotificationCritical)

	mock.ExpectExec(`INSERT INTO notifications`).
		WithArgs(n.ID, string(n.Kind), n.Title, n.Message, n.DomainID,
			sqlmock.AnyArg(), n.Read, n.CreatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Create(context.Background(), n)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationRepository_Create_RejectsInvalid(t *testing.T) {
	db, _, cleanup := testutil.SetupMockDB(t)
	defer cleanup()

	repo := NewNotificationRepository(db)
	n := fleetNotification(t, domain.NotificationKind("shouty"))

	err := repo.Create(context.Background(), n)
	require.Error(t, err)
	assert.Equal(t, domain.ErrKindInvalidSettings, domain.KindOf(err))
}

func TestNotificationRepository_MarkRead(t *testing.T) {
	db, mock, cleanup := testutil.SetupMockDB(t)
	defer cleanup()

	repo := NewNotificationRepository(db)

	mock.ExpectExec(`UPDATE notifications SET read = TRUE WHERE id = \$1`).
		WithArgs("notif-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.MarkRead(context.Background(), "notif-1")
	require.NoError(t, err)

	mock.ExpectExec(`UPDATE notifications SET read = TRUE WHERE id = \$1`).
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = repo.MarkRead(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, domain.ErrKindNotFound, domain.KindOf(err))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationRepository_ListUnread(t *testing.T) {
	db, mock, cleanup := testutil.SetupMockDB(t)
	defer cleanup()

	repo := NewNotificationRepository(db)
	now := time.Now().UTC()

	rows := sqlmock.NewRows([]string{"id", "kind", "title", "message", "domain_id", "channels", "read", "created_at"}).
		AddRow("n-1", "critical", "No replacements", "Ready & Waiting pool is empty", nil, []byte(`{"ui":true,"email":true}`), false, now).
		AddRow("n-2", "warning", "Low score", "Score 70", "dom-1", []byte(`{"ui":true,"email":false}`), false, now.Add(-time.Hour))

	mock.ExpectQuery(`WHERE read = FALSE ORDER BY created_at DESC`).
		WillReturnRows(rows)

	notifications, err := repo.ListUnread(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, notifications, 2)
	assert.Equal(t, domain.NotificationCritical, notifications[0].Kind)
	assert.True(t, notifications[0].Channels.Email)
	assert.Equal(t, "dom-1", notifications[1].DomainID)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationRepository_ListUnread_FiltersByKind(t *testing.T) {
	db, mock, cleanup := testutil.SetupMockDB(t)
	defer cleanup()

	repo := NewNotificationRepository(db)
	kind := domain.NotificationCritical

	mock.ExpectQuery(`WHERE read = FALSE AND kind = \$1 ORDER BY created_at DESC`).
		WithArgs(string(kind)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "kind", "title", "message", "domain_id", "channels", "read", "created_at"}))

	notifications, err := repo.ListUnread(context.Background(), &kind)
	require.NoError(t, err)
	assert.Empty(t, notifications)

	assert.NoError(t, mock.ExpectationsWereMet())
}
