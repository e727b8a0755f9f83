package db

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	md "github.com/JMURv/fieldlog/internal/models"
	"github.com/JMURv/fieldlog/internal/repo"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
)

func TestRepository_GetUserByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	r := &Repository{conn: sqlx.NewDb(db, "sqlmock")}
	testErr := errors.New("test error")
	testUser := &md.User{
		ID:        uuid.New(),
		Name:      "Inspector",
		Email:     "inspector@example.com",
		IsActive:  true,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	tests := []struct {
		name        string
		mock        func()
		expected    *md.User
		expectedErr error
	}{
		{
			name: "Success",
			mock: func() {
				rows := sqlmock.NewRows([]string{"id", "name", "email", "is_active", "created_at", "updated_at"}).
					AddRow(
						testUser.ID.String(), testUser.Name, testUser.Email,
						testUser.IsActive, testUser.CreatedAt, testUser.UpdatedAt,
					)
				mock.ExpectQuery(regexp.QuoteMeta(userGetByIDQ)).
					WithArgs(testUser.ID).
					WillReturnRows(rows)
			},
			expected: testUser,
		},
		{
			name: "ErrNotFound",
			mock: func() {
				mock.ExpectQuery(regexp.QuoteMeta(userGetByIDQ)).
					WithArgs(testUser.ID).
					WillReturnError(sql.ErrNoRows)
			},
			expectedErr: repo.ErrNotFound,
		},
		{
			name: "ErrInternal",
			mock: func() {
				mock.ExpectQuery(regexp.QuoteMeta(userGetByIDQ)).
					WithArgs(testUser.ID).
					WillReturnError(testErr)
			},
			expectedErr: testErr,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mock()

			res, err := r.GetUserByID(context.Background(), testUser.ID)
			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
				assert.Nil(t, res)
				return
			}

			assert.NoError(t, err)
			assert.Equal(t, tt.expected.ID, res.ID)
			assert.Equal(t, tt.expected.Email, res.Email)
			assert.True(t, res.IsActive)
		})
	}

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_GetUserByEmail(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	r := &Repository{conn: sqlx.NewDb(db, "sqlmock")}
	testErr := errors.New("test error")
	uid := uuid.New()
	email := "inspector@example.com"

	tests := []struct {
		name        string
		mock        func()
		expectedErr error
	}{
		{
			name: "Success",
			mock: func() {
				rows := sqlmock.NewRows([]string{"id", "name", "email", "password", "is_active", "created_at", "updated_at"}).
					AddRow(uid.String(), "Inspector", email, "$2a$10$hash", false, time.Now(), time.Now())
				mock.ExpectQuery(regexp.QuoteMeta(userGetByEmailQ)).
					WithArgs(email).
					WillReturnRows(rows)
			},
		},
		{
			name: "ErrNotFound",
			mock: func() {
				mock.ExpectQuery(regexp.QuoteMeta(userGetByEmailQ)).
					WithArgs(email).
					WillReturnError(sql.ErrNoRows)
			},
			expectedErr: repo.ErrNotFound,
		},
		{
			name: "ErrInternal",
			mock: func() {
				mock.ExpectQuery(regexp.QuoteMeta(userGetByEmailQ)).
					WithArgs(email).
					WillReturnError(testErr)
			},
			expectedErr: testErr,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mock()

			res, err := r.GetUserByEmail(context.Background(), email)
			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
				assert.Nil(t, res)
				return
			}

			assert.NoError(t, err)
			assert.Equal(t, uid, res.ID)
			assert.Equal(t, "$2a$10$hash", res.Password)
			assert.False(t, res.IsActive)
		})
	}

	assert.NoError(t, mock.ExpectationsWereMet())
}
