// Package session tracks whether this device holds a usable login.
package session

import (
	"context"
	"errors"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/JMURv/fieldlog/internal/client/api"
	"github.com/JMURv/fieldlog/internal/client/store"
	"github.com/JMURv/fieldlog/internal/dto"
	md "github.com/JMURv/fieldlog/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

const logoutTimeout = 10 * time.Second

type Status int

const (
	StatusUnknown Status = iota
	StatusAuthenticated
	StatusUnauthenticated
)

func (s Status) String() string {
	switch s {
	case StatusAuthenticated:
		return "authenticated"
	case StatusUnauthenticated:
		return "unauthenticated"
	default:
		return "unknown"
	}
}

type CredentialStore interface {
	Save(ctx context.Context, c store.Credentials) error
	Load(ctx context.Context) (*store.Credentials, error)
	Clear(ctx context.Context) error
}

type Backend interface {
	Login(ctx context.Context, email, password string) (*dto.LoginResponse, error)
	Logout(ctx context.Context, req *dto.LogoutRequest) error
	RegisterToken(ctx context.Context, access string, req *dto.RegisterTokenRequest) error
	UnregisterToken(ctx context.Context, access, token string) error
	OnUnauthorized(fn func(api.Rejection))
}

// DeviceTokenSource yields this device's push registration.
type DeviceTokenSource interface {
	Token(ctx context.Context) (token string, platform md.Platform, err error)
}

type LocalNotifications interface {
	CancelAll(ctx context.Context) error
}

type Manager struct {
	store  CredentialStore
	api    Backend
	tokens DeviceTokenSource
	local  LocalNotifications
	now    func() time.Time

	mu     sync.RWMutex
	status Status

	lmu       sync.Mutex
	listeners map[uint64]func(api.Rejection)
	nextID    uint64

	loggingOut atomic.Bool
	deviceInfo string
}

type Option func(*Manager)

func WithDeviceTokens(src DeviceTokenSource) Option {
	return func(m *Manager) { m.tokens = src }
}

func WithLocalNotifications(ln LocalNotifications) Option {
	return func(m *Manager) { m.local = ln }
}

func WithDeviceInfo(info string) Option {
	return func(m *Manager) { m.deviceInfo = info }
}

func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// New wires the manager to the gateway's rejection callback and installs the
// default listener, which logs the user out when the backend refuses a token.
func New(st CredentialStore, gw Backend, opts ...Option) *Manager {
	m := &Manager{
		store:     st,
		api:       gw,
		now:       time.Now,
		status:    StatusUnknown,
		listeners: make(map[uint64]func(api.Rejection)),
	}
	for _, o := range opts {
		o(m)
	}

	gw.OnUnauthorized(m.Emit)
	m.Subscribe(m.expired)
	return m
}

func (m *Manager) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

func (m *Manager) setStatus(s Status) {
	m.mu.Lock()
	m.status = s
	m.mu.Unlock()
}

// Credentials returns what is stored, or nil when signed out.
func (m *Manager) Credentials(ctx context.Context) *store.Credentials {
	c, err := m.store.Load(ctx)
	if err != nil {
		return nil
	}
	return c
}

// CheckStatus decides the state from local storage alone. Expired or partial
// credentials are purged; a storage failure counts as signed out.
func (m *Manager) CheckStatus(ctx context.Context) Status {
	const op = "session.CheckStatus"
	c, err := m.store.Load(ctx)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			zap.L().Warn("failed to read credentials", zap.String("op", op), zap.Error(err))
		}
		m.setStatus(StatusUnauthenticated)
		return StatusUnauthenticated
	}

	if c.Refresh == "" || c.Identity.Empty() || !m.usable(c.Access) {
		zap.L().Info("stored session is stale", zap.String("op", op))
		if err = m.store.Clear(ctx); err != nil {
			zap.L().Warn("failed to purge stale credentials", zap.String("op", op), zap.Error(err))
		}
		m.setStatus(StatusUnauthenticated)
		return StatusUnauthenticated
	}

	m.setStatus(StatusAuthenticated)
	return StatusAuthenticated
}

// usable checks shape and expiry only; the signature is the server's concern.
func (m *Manager) usable(access string) bool {
	if access == "" {
		return false
	}

	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(access, &claims); err != nil {
		return false
	}

	return claims.ExpiresAt != nil && m.now().Before(claims.ExpiresAt.Time)
}

// Login persists a fresh session, then tries to register this device for push.
// Registration failures are logged and never fail the login.
func (m *Manager) Login(ctx context.Context, access, refresh string, id store.Identity) error {
	const op = "session.Login"
	err := m.store.Save(ctx, store.Credentials{Access: access, Refresh: refresh, Identity: id})
	if err != nil {
		zap.L().Error("failed to persist credentials", zap.String("op", op), zap.Error(err))
		return err
	}
	m.setStatus(StatusAuthenticated)

	m.registerDevice(ctx, access, id)
	return nil
}

// SignIn exchanges email and password for a session.
func (m *Manager) SignIn(ctx context.Context, email, password string) (store.Identity, error) {
	res, err := m.api.Login(ctx, email, password)
	if err != nil {
		return store.Identity{}, err
	}

	id := store.Identity{ID: res.User.ID, Email: res.User.Email, Name: res.User.Name}
	if err = m.Login(ctx, res.Access, res.Refresh, id); err != nil {
		return store.Identity{}, err
	}
	return id, nil
}

func (m *Manager) registerDevice(ctx context.Context, access string, id store.Identity) {
	const op = "session.registerDevice"
	if m.tokens == nil {
		return
	}

	token, platform, err := m.tokens.Token(ctx)
	if err != nil || token == "" {
		zap.L().Info("push token unavailable", zap.String("op", op), zap.Error(err))
		return
	}

	err = m.api.RegisterToken(
		ctx, access, &dto.RegisterTokenRequest{
			UserID:     id.ID,
			Token:      token,
			Platform:   platform,
			DeviceInfo: m.deviceInfo,
		},
	)
	if err != nil {
		zap.L().Warn("failed to register push token", zap.String("op", op), zap.Error(err))
	}
}

// Logout always ends signed out. Server calls are best-effort; only a failure
// to wipe local storage is reported.
func (m *Manager) Logout(ctx context.Context) error {
	const op = "session.Logout"
	if !m.loggingOut.CompareAndSwap(false, true) {
		return nil
	}
	defer m.loggingOut.Store(false)

	c, err := m.store.Load(ctx)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		zap.L().Warn("failed to read credentials", zap.String("op", op), zap.Error(err))
	}

	var token string
	if m.tokens != nil {
		token, _, _ = m.tokens.Token(ctx)
	}

	if c != nil {
		if err = m.api.Logout(ctx, &dto.LogoutRequest{Refresh: c.Refresh, DeviceToken: token}); err != nil {
			zap.L().Warn("server logout failed", zap.String("op", op), zap.Error(err))
		}

		if token != "" && c.Access != "" {
			if err = m.api.UnregisterToken(ctx, c.Access, token); err != nil {
				zap.L().Debug("failed to unregister push token", zap.String("op", op), zap.Error(err))
			}
		}
	}

	if m.local != nil {
		if err = m.local.CancelAll(ctx); err != nil {
			zap.L().Warn("failed to cancel local notifications", zap.String("op", op), zap.Error(err))
		}
	}

	err = m.store.Clear(ctx)
	m.setStatus(StatusUnauthenticated)
	if err != nil {
		zap.L().Error("failed to clear credentials", zap.String("op", op), zap.Error(err))
		return err
	}
	return nil
}

// Subscribe registers fn for every rejection. The returned func removes it and is safe to call twice.
func (m *Manager) Subscribe(fn func(api.Rejection)) (unsubscribe func()) {
	m.lmu.Lock()
	id := m.nextID
	m.nextID++
	m.listeners[id] = fn
	m.lmu.Unlock()

	var once sync.Once
	return func() {
		once.Do(
			func() {
				m.lmu.Lock()
				delete(m.listeners, id)
				m.lmu.Unlock()
			},
		)
	}
}

// Emit delivers r to every current listener, in subscription order.
func (m *Manager) Emit(r api.Rejection) {
	m.lmu.Lock()
	ids := make([]uint64, 0, len(m.listeners))
	for id := range m.listeners {
		ids = append(ids, id)
	}
	fns := make([]func(api.Rejection), 0, len(ids))
	slices.Sort(ids)
	for _, id := range ids {
		fns = append(fns, m.listeners[id])
	}
	m.lmu.Unlock()

	for _, fn := range fns {
		fn(r)
	}
}

func (m *Manager) expired(r api.Rejection) {
	if m.loggingOut.Load() {
		return
	}

	zap.L().Info("Session expired, please sign in again", zap.Int("status", r.Status), zap.String("path", r.Path))
	ctx, cancel := context.WithTimeout(context.Background(), logoutTimeout)
	defer cancel()
	if err := m.Logout(ctx); err != nil {
		zap.L().Warn("logout after rejection failed", zap.Error(err))
	}
}
