// Package store keeps the signed-in account's tokens on the device.
package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrations embed.FS

var ErrNotFound = errors.New("no stored credentials")

type Identity struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
	Name  string    `json:"name"`
}

func (i Identity) Empty() bool {
	return i.ID == uuid.Nil
}

type Credentials struct {
	Access   string
	Refresh  string
	Identity Identity
}

type row struct {
	Access  string `db:"access_token"`
	Refresh string `db:"refresh_token"`
	UserID  string `db:"user_id"`
	Email   string `db:"email"`
	Name    string `db:"name"`
}

// Store holds at most one credential set: the account signed in on this device.
type Store struct {
	conn *sqlx.DB
}

// Open opens the SQLite database at dsn and applies pending migrations.
func Open(ctx context.Context, dsn string) (*Store, error) {
	conn, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// A single connection keeps ":memory:" databases coherent and serializes writers.
	conn.SetMaxOpenConns(1)

	if err = migrate(ctx, conn.DB); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return &Store{conn: conn}, nil
}

func migrate(ctx context.Context, db *sql.DB) error {
	dir, err := fs.Sub(migrations, "migrations")
	if err != nil {
		return err
	}

	p, err := goose.NewProvider(goose.DialectSQLite3, db, dir)
	if err != nil {
		return fmt.Errorf("migration provider: %w", err)
	}

	res, err := p.Up(ctx)
	if err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	if len(res) > 0 {
		zap.L().Debug("credential store migrated", zap.Int("applied", len(res)))
	}
	return nil
}

func (s *Store) Close() error {
	return s.conn.Close()
}

func (s *Store) Save(ctx context.Context, c Credentials) error {
	const op = "store.Save"
	uid := ""
	if !c.Identity.Empty() {
		uid = c.Identity.ID.String()
	}

	_, err := s.conn.ExecContext(ctx, saveQ, c.Access, c.Refresh, uid, c.Identity.Email, c.Identity.Name)
	if err != nil {
		zap.L().Debug("failed to save credentials", zap.String("op", op), zap.Error(err))
		return err
	}
	return nil
}

// Load returns ErrNotFound when nothing is stored.
func (s *Store) Load(ctx context.Context) (*Credentials, error) {
	const op = "store.Load"
	r := row{}
	if err := s.conn.GetContext(ctx, &r, loadQ); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		zap.L().Debug("failed to load credentials", zap.String("op", op), zap.Error(err))
		return nil, err
	}

	c := &Credentials{
		Access:  r.Access,
		Refresh: r.Refresh,
		Identity: Identity{
			Email: r.Email,
			Name:  r.Name,
		},
	}
	if r.UserID != "" {
		id, err := uuid.Parse(r.UserID)
		if err != nil {
			zap.L().Debug("stored identity is corrupt", zap.String("op", op), zap.Error(err))
		} else {
			c.Identity.ID = id
		}
	}
	return c, nil
}

func (s *Store) Clear(ctx context.Context) error {
	_, err := s.conn.ExecContext(ctx, clearQ)
	return err
}
