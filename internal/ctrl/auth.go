package ctrl

import (
	"context"
	"errors"

	"github.com/JMURv/fieldlog/internal/auth"
	"github.com/JMURv/fieldlog/internal/auth/jwt"
	"github.com/JMURv/fieldlog/internal/config"
	"github.com/JMURv/fieldlog/internal/dto"
	md "github.com/JMURv/fieldlog/internal/models"
	"github.com/JMURv/fieldlog/internal/repo"
	"github.com/google/uuid"
	"github.com/opentracing/opentracing-go"
	"go.uber.org/zap"
)

type authCtrl interface {
	Login(ctx context.Context, d *dto.DeviceRequest, req *dto.EmailAndPasswordRequest) (*dto.LoginResponse, error)
	Refresh(ctx context.Context, d *dto.DeviceRequest, req *dto.RefreshRequest) (*dto.TokenPair, error)
	Logout(ctx context.Context, req *dto.LogoutRequest) error
}

type authRepo interface {
	GetUserByID(ctx context.Context, userID uuid.UUID) (*md.User, error)
	GetUserByEmail(ctx context.Context, email string) (*md.User, error)
	CreateSession(ctx context.Context, s *md.Session) error
	GetSessionByHash(ctx context.Context, hash string) (*md.Session, error)
	RotateSession(ctx context.Context, prevID uuid.UUID, next *md.Session) error
	RevokeSession(ctx context.Context, hash string) (uuid.UUID, error)
}

func (c *Controller) newSession(uid uuid.UUID, refresh string, d *dto.DeviceRequest) *md.Session {
	device := auth.GenerateDevice(d)
	return &md.Session{
		ID:          uuid.New(),
		UserID:      uid,
		RefreshHash: auth.HashToken(refresh),
		IP:          device.IP,
		UA:          device.UA,
		DeviceName:  device.Name,
		ExpiresAt:   c.au.GetRefreshTime(),
	}
}

// Login answers ErrInvalidCredentials for both an unknown email and a wrong password.
func (c *Controller) Login(
	ctx context.Context,
	d *dto.DeviceRequest,
	req *dto.EmailAndPasswordRequest,
) (*dto.LoginResponse, error) {
	const op = "auth.Login.ctrl"
	span, ctx := opentracing.StartSpanFromContext(ctx, op)
	defer span.Finish()

	u, err := c.repo.GetUserByEmail(ctx, req.Email)
	if err != nil && errors.Is(err, repo.ErrNotFound) {
		return nil, auth.ErrInvalidCredentials
	} else if err != nil {
		span.SetTag(config.ErrorSpanTag, true)
		return nil, err
	}

	if err = c.au.ComparePasswords([]byte(u.Password), []byte(req.Password)); err != nil {
		return nil, auth.ErrInvalidCredentials
	}

	if !u.IsActive {
		zap.L().Info("disabled account tried to log in", zap.String("op", op), zap.String("uid", u.ID.String()))
		return nil, auth.ErrAccountDisabled
	}

	access, refresh, err := c.au.GenPair(ctx, jwt.Identity{UID: u.ID, Email: u.Email, Name: u.Name})
	if err != nil {
		span.SetTag(config.ErrorSpanTag, true)
		return nil, err
	}

	if err = c.repo.CreateSession(ctx, c.newSession(u.ID, refresh, d)); err != nil {
		span.SetTag(config.ErrorSpanTag, true)
		return nil, err
	}

	return &dto.LoginResponse{
		Access:  access,
		Refresh: refresh,
		User: dto.UserIdentity{
			ID:    u.ID,
			Email: u.Email,
			Name:  u.Name,
		},
	}, nil
}

// Refresh rotates the session behind req.Refresh. A token is accepted once.
func (c *Controller) Refresh(
	ctx context.Context,
	d *dto.DeviceRequest,
	req *dto.RefreshRequest,
) (*dto.TokenPair, error) {
	const op = "auth.Refresh.ctrl"
	span, ctx := opentracing.StartSpanFromContext(ctx, op)
	defer span.Finish()

	claims, err := c.au.ParseRefresh(ctx, req.Refresh)
	if err != nil {
		return nil, err
	}

	prev, err := c.repo.GetSessionByHash(ctx, auth.HashToken(req.Refresh))
	if err != nil && errors.Is(err, repo.ErrNotFound) {
		return nil, auth.ErrTokenRevoked
	} else if err != nil {
		span.SetTag(config.ErrorSpanTag, true)
		return nil, err
	}

	if prev.RevokedAt != nil || prev.UserID != claims.UID || !prev.ExpiresAt.After(c.now()) {
		zap.L().Info(
			"refresh token is no longer valid",
			zap.String("op", op),
			zap.String("session", prev.ID.String()),
			zap.Bool("revoked", prev.RevokedAt != nil),
		)
		return nil, auth.ErrTokenRevoked
	}

	u, err := c.repo.GetUserByID(ctx, prev.UserID)
	if err != nil && errors.Is(err, repo.ErrNotFound) {
		return nil, auth.ErrTokenRevoked
	} else if err != nil {
		span.SetTag(config.ErrorSpanTag, true)
		return nil, err
	}

	if !u.IsActive {
		return nil, auth.ErrAccountDisabled
	}

	access, refresh, err := c.au.GenPair(ctx, jwt.Identity{UID: u.ID, Email: u.Email, Name: u.Name})
	if err != nil {
		span.SetTag(config.ErrorSpanTag, true)
		return nil, err
	}

	err = c.repo.RotateSession(ctx, prev.ID, c.newSession(u.ID, refresh, d))
	if err != nil && errors.Is(err, repo.ErrNotFound) {
		return nil, auth.ErrTokenRevoked
	} else if err != nil {
		span.SetTag(config.ErrorSpanTag, true)
		return nil, err
	}

	return &dto.TokenPair{
		Access:  access,
		Refresh: refresh,
	}, nil
}

// Logout revokes the session and, when it resolves, deactivates the given device token.
// Unknown or already revoked tokens are not an error.
func (c *Controller) Logout(ctx context.Context, req *dto.LogoutRequest) error {
	const op = "auth.Logout.ctrl"
	span, ctx := opentracing.StartSpanFromContext(ctx, op)
	defer span.Finish()

	if req.Refresh == "" {
		return nil
	}

	uid, err := c.repo.RevokeSession(ctx, auth.HashToken(req.Refresh))
	if err != nil && errors.Is(err, repo.ErrNotFound) {
		zap.L().Debug("logout for unknown or revoked session", zap.String("op", op))
		return nil
	} else if err != nil {
		span.SetTag(config.ErrorSpanTag, true)
		return err
	}

	if req.DeviceToken == "" {
		return nil
	}

	return c.UnregisterToken(ctx, uid, req.DeviceToken)
}
