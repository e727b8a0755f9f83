package jwt

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/JMURv/fieldlog/internal/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/opentracing/opentracing-go"
	"go.uber.org/zap"
)

type Port interface {
	GetRefreshTime() time.Time
	GenPair(ctx context.Context, id Identity) (string, string, error)
	ParseClaims(ctx context.Context, tokenStr string) (Claims, error)
	ParseRefresh(ctx context.Context, tokenStr string) (RefreshClaims, error)
}

type Identity struct {
	UID   uuid.UUID
	Email string
	Name  string
}

type Claims struct {
	UID   uuid.UUID `json:"uid"`
	Email string    `json:"email"`
	Name  string    `json:"name"`
	jwt.RegisteredClaims
}

// RefreshClaims carry a random ID so tokens minted in the same second still differ.
type RefreshClaims struct {
	UID uuid.UUID `json:"uid"`
	jwt.RegisteredClaims
}

type Core struct {
	accessSecret  []byte
	refreshSecret []byte
	issuer        string
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

func New(conf config.Config) *Core {
	return &Core{
		accessSecret:  []byte(conf.Auth.JWT.AccessSecret),
		refreshSecret: []byte(conf.Auth.JWT.RefreshSecret),
		issuer:        conf.Auth.JWT.Issuer,
		accessTTL:     conf.Auth.JWT.AccessTTL,
		refreshTTL:    conf.Auth.JWT.RefreshTTL,
		now:           time.Now,
	}
}

func (c *Core) GetRefreshTime() time.Time {
	return c.now().Add(c.refreshTTL)
}

func (c *Core) GenPair(ctx context.Context, id Identity) (string, string, error) {
	const op = "auth.GenPair.jwt"
	span, _ := opentracing.StartSpanFromContext(ctx, op)
	defer span.Finish()

	now := c.now()
	access, err := c.sign(
		c.accessSecret, &Claims{
			UID:   id.UID,
			Email: id.Email,
			Name:  id.Name,
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   id.UID.String(),
				ExpiresAt: jwt.NewNumericDate(now.Add(c.accessTTL)),
				IssuedAt:  jwt.NewNumericDate(now),
				Issuer:    c.issuer,
			},
		},
	)
	if err != nil {
		zap.L().Error(
			"Failed to generate token pair",
			zap.String("op", op),
			zap.String("uid", id.UID.String()),
			zap.Error(err),
		)
		return "", "", err
	}

	refresh, err := c.sign(
		c.refreshSecret, &RefreshClaims{
			UID: id.UID,
			RegisteredClaims: jwt.RegisteredClaims{
				ID:        uuid.NewString(),
				Subject:   id.UID.String(),
				ExpiresAt: jwt.NewNumericDate(now.Add(c.refreshTTL)),
				IssuedAt:  jwt.NewNumericDate(now),
				Issuer:    c.issuer,
			},
		},
	)
	if err != nil {
		zap.L().Error(
			"Failed to generate token pair",
			zap.String("op", op),
			zap.String("uid", id.UID.String()),
			zap.Error(err),
		)
		return "", "", err
	}

	return access, refresh, nil
}

func (c *Core) sign(secret []byte, claims jwt.Claims) (string, error) {
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		zap.L().Error(ErrWhileCreatingToken.Error(), zap.Error(err))
		return "", ErrWhileCreatingToken
	}
	return signed, nil
}

// ParseClaims verifies an access token. It never touches a store.
func (c *Core) ParseClaims(ctx context.Context, tokenStr string) (Claims, error) {
	const op = "auth.ParseClaims.jwt"
	span, _ := opentracing.StartSpanFromContext(ctx, op)
	defer span.Finish()

	claims := Claims{}
	if err := c.parse(tokenStr, c.accessSecret, &claims); err != nil {
		zap.L().Debug("Failed to parse claims", zap.String("op", op), zap.Error(err))
		return claims, err
	}

	return claims, nil
}

func (c *Core) ParseRefresh(ctx context.Context, tokenStr string) (RefreshClaims, error) {
	const op = "auth.ParseRefresh.jwt"
	span, _ := opentracing.StartSpanFromContext(ctx, op)
	defer span.Finish()

	claims := RefreshClaims{}
	if err := c.parse(tokenStr, c.refreshSecret, &claims); err != nil {
		zap.L().Debug("Failed to parse refresh claims", zap.String("op", op), zap.Error(err))
		return claims, err
	}

	return claims, nil
}

func (c *Core) parse(tokenStr string, secret []byte, claims jwt.Claims) error {
	if strings.TrimSpace(tokenStr) == "" {
		return ErrMissingToken
	}

	token, err := jwt.ParseWithClaims(
		tokenStr, claims, func(token *jwt.Token) (any, error) {
			if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
				return nil, ErrUnexpectedSignMethod
			}
			return secret, nil
		},
		jwt.WithIssuer(c.issuer),
		jwt.WithTimeFunc(c.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return classify(err)
	}

	if !token.Valid {
		return ErrInvalidToken
	}

	return nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %w", ErrTokenExpired, err)
	case errors.Is(err, jwt.ErrTokenMalformed),
		errors.Is(err, jwt.ErrTokenSignatureInvalid),
		errors.Is(err, jwt.ErrTokenUnverifiable):
		return fmt.Errorf("%w: %w", ErrMalformedToken, err)
	default:
		return fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
}
