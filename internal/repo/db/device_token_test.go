package db

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	md "github.com/JMURv/fieldlog/internal/models"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
)

func TestRepository_UpsertDeviceToken(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	r := &Repository{conn: sqlx.NewDb(db, "sqlmock")}
	tok := &md.DeviceToken{
		Token:      "fcm-token",
		UserID:     uuid.New(),
		Platform:   md.PlatformAndroid,
		DeviceInfo: "Pixel 8",
	}
	testErr := errors.New("upsert error")

	tests := []struct {
		name        string
		mock        func()
		expectedErr error
	}{
		{
			name: "Success",
			mock: func() {
				mock.ExpectExec(regexp.QuoteMeta(deviceTokenUpsertQ)).
					WithArgs(tok.Token, tok.UserID, tok.Platform, tok.DeviceInfo).
					WillReturnResult(sqlmock.NewResult(1, 1))
			},
		},
		{
			name: "ErrInternal",
			mock: func() {
				mock.ExpectExec(regexp.QuoteMeta(deviceTokenUpsertQ)).
					WithArgs(tok.Token, tok.UserID, tok.Platform, tok.DeviceInfo).
					WillReturnError(testErr)
			},
			expectedErr: testErr,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mock()
			err := r.UpsertDeviceToken(context.Background(), tok)
			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_DeactivateDeviceToken(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	r := &Repository{conn: sqlx.NewDb(db, "sqlmock")}
	uid := uuid.New()

	tests := []struct {
		name     string
		affected int64
		expected bool
	}{
		{name: "Changed", affected: 1, expected: true},
		{name: "UnknownToken", affected: 0, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock.ExpectExec(regexp.QuoteMeta(deviceTokenDeactivateQ)).
				WithArgs("fcm-token", uid).
				WillReturnResult(sqlmock.NewResult(0, tt.affected))

			changed, err := r.DeactivateDeviceToken(context.Background(), uid, "fcm-token")
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, changed)
		})
	}

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_ListActiveTokens(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	r := &Repository{conn: sqlx.NewDb(db, "sqlmock")}
	uid := uuid.New()

	t.Run("Success", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta(deviceTokenListActiveQ)).
			WithArgs(uid).
			WillReturnRows(sqlmock.NewRows([]string{"token"}).AddRow("a").AddRow("b"))

		res, err := r.ListActiveTokens(context.Background(), uid)
		assert.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, res)
	})

	t.Run("Empty", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta(deviceTokenListActiveQ)).
			WithArgs(uid).
			WillReturnRows(sqlmock.NewRows([]string{"token"}))

		res, err := r.ListActiveTokens(context.Background(), uid)
		assert.NoError(t, err)
		assert.Empty(t, res)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_ListActiveTokensFor(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	r := &Repository{conn: sqlx.NewDb(db, "sqlmock")}
	u1, u2 := uuid.New(), uuid.New()

	t.Run("NoUsers", func(t *testing.T) {
		res, err := r.ListActiveTokensFor(context.Background(), nil)
		assert.NoError(t, err)
		assert.Empty(t, res)
	})

	t.Run("Success", func(t *testing.T) {
		mock.ExpectQuery(
			regexp.QuoteMeta("SELECT token FROM device_tokens WHERE user_id IN ($1,$2) AND is_active = $3"),
		).
			WithArgs(u1, u2, true).
			WillReturnRows(sqlmock.NewRows([]string{"token"}).AddRow("a").AddRow("b"))

		res, err := r.ListActiveTokensFor(context.Background(), []uuid.UUID{u1, u2})
		assert.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, res)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_DeactivateTokens(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	r := &Repository{conn: sqlx.NewDb(db, "sqlmock")}
	uid := uuid.New()
	q := regexp.QuoteMeta("UPDATE device_tokens SET is_active = $1 WHERE token IN ($2,$3) RETURNING user_id")

	t.Run("DistinctOwners", func(t *testing.T) {
		mock.ExpectQuery(q).
			WithArgs(false, "a", "b").
			WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow(uid.String()).AddRow(uid.String()))

		res, err := r.DeactivateTokens(context.Background(), []string{"a", "b"})
		assert.NoError(t, err)
		assert.Equal(t, []uuid.UUID{uid}, res)
	})

	t.Run("Error", func(t *testing.T) {
		testErr := errors.New("update error")
		mock.ExpectQuery(q).
			WithArgs(false, "a", "b").
			WillReturnError(testErr)

		res, err := r.DeactivateTokens(context.Background(), []string{"a", "b"})
		assert.ErrorIs(t, err, testErr)
		assert.Nil(t, res)
	})

	t.Run("NoTokens", func(t *testing.T) {
		res, err := r.DeactivateTokens(context.Background(), []string{})
		assert.NoError(t, err)
		assert.Empty(t, res)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}
