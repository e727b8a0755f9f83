package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/JMURv/fieldlog/internal/auth"
	"github.com/JMURv/fieldlog/internal/cache/redis"
	"github.com/JMURv/fieldlog/internal/config"
	"github.com/JMURv/fieldlog/internal/ctrl"
	"github.com/JMURv/fieldlog/internal/hdl/grpc"
	"github.com/JMURv/fieldlog/internal/hdl/http"
	"github.com/JMURv/fieldlog/internal/observability/metrics/prometheus"
	"github.com/JMURv/fieldlog/internal/observability/tracing/jaeger"
	"github.com/JMURv/fieldlog/internal/push"
	"github.com/JMURv/fieldlog/internal/push/fcm"
	"github.com/JMURv/fieldlog/internal/repo/db"
	"github.com/JMURv/fieldlog/internal/scheduler"
	"github.com/JMURv/fieldlog/internal/smtp"
	"go.uber.org/zap"
)

const (
	configPath      = ".env"
	shutdownTimeout = 15 * time.Second
)

func mustRegisterLogger(mode string) {
	switch mode {
	case "prod":
		zap.ReplaceGlobals(zap.Must(zap.NewProduction()))
	case "dev":
		zap.ReplaceGlobals(zap.Must(zap.NewDevelopment()))
	}
}

//	@title						fieldlog API
//	@version					1.0
//	@description				Authentication, device token registry and notification dispatch for fieldlog.
//	@BasePath					/
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
func main() {
	defer func() {
		if err := recover(); err != nil {
			zap.L().Panic("panic occurred", zap.Any("error", err))
			os.Exit(1)
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	conf := config.MustLoad(configPath)
	mustRegisterLogger(conf.Server.Mode)

	go prometheus.New(conf.Server.Port + 5).Start(ctx)
	go jaeger.Start(ctx, conf.ServiceName, &conf.Jaeger)

	cache := redis.New(conf)
	repo := db.New(conf)
	au := auth.New(conf)

	var gw push.Gateway
	cli, err := fcm.New(ctx, conf)
	if err != nil {
		zap.L().Fatal("failed to init push gateway", zap.Error(err))
	}
	if cli != nil {
		gw = cli
	} else {
		zap.L().Warn("push gateway is not configured, notifications will fail")
	}

	svc := ctrl.New(au, repo, cache, gw)

	var sched *scheduler.Scheduler
	if conf.Reminder.Enabled {
		var mail scheduler.Mailer
		if es := smtp.New(conf); es != nil {
			mail = es
		}

		sched, err = scheduler.New(conf.Reminder, svc, cache, mail)
		if err != nil {
			zap.L().Fatal("invalid reminder schedule", zap.Error(err))
		}
		if err = sched.Start(ctx); err != nil {
			zap.L().Fatal("failed to start reminder scheduler", zap.Error(err))
		}
	}

	hh := http.New(au, svc)
	gh := grpc.New(conf.ServiceName)

	zap.L().Info(
		fmt.Sprintf(
			"Starting server on %v://%v:%v",
			conf.Server.Scheme,
			conf.Server.Domain,
			conf.Server.Port,
		),
	)
	go hh.Start(conf.Server.Port)
	go gh.Start(conf.Server.GRPCPort)

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	<-c

	zap.L().Info("Shutting down gracefully...")
	sctx, scancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer scancel()

	if sched != nil {
		if err = sched.Stop(sctx); err != nil {
			zap.L().Warn("Error stopping reminder scheduler", zap.Error(err))
		}
	}

	if err = hh.Close(sctx); err != nil {
		zap.L().Warn("Error closing http handler", zap.Error(err))
	}

	if err = gh.Close(); err != nil {
		zap.L().Warn("Error closing grpc handler", zap.Error(err))
	}

	if err = cache.Close(); err != nil {
		zap.L().Warn("Failed to close connection to Redis: ", zap.Error(err))
	}

	if err = repo.Close(sctx); err != nil {
		zap.L().Warn("Error closing repository", zap.Error(err))
	}

	cancel()
	os.Exit(0)
}
