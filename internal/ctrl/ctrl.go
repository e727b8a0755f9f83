package ctrl

import (
	"context"
	"io"
	"time"

	"github.com/JMURv/fieldlog/internal/auth"
	"github.com/JMURv/fieldlog/internal/push"
)

type AppRepo interface {
	authRepo
	deviceTokenRepo
	reminderRepo
}

type AppCtrl interface {
	authCtrl
	deviceTokenCtrl
	notificationCtrl
	reminderCtrl
}

type CacheService interface {
	io.Closer
	GetToStruct(ctx context.Context, key string, dest any) error
	Set(ctx context.Context, t time.Duration, key string, val any)
	Delete(ctx context.Context, key string)
	InvalidateKeysByPattern(ctx context.Context, pattern string)
}

type Controller struct {
	au    auth.Core
	repo  AppRepo
	cache CacheService
	push  push.Gateway
	now   func() time.Time
}

// New accepts a nil gateway when push delivery is not configured.
func New(au auth.Core, repo AppRepo, cache CacheService, gw push.Gateway) *Controller {
	return &Controller{
		au:    au,
		repo:  repo,
		cache: cache,
		push:  gw,
		now:   time.Now,
	}
}
