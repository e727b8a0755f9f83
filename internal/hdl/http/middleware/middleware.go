package middleware

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/JMURv/fieldlog/internal/auth"
	"github.com/JMURv/fieldlog/internal/auth/jwt"
	"github.com/JMURv/fieldlog/internal/config"
	"github.com/JMURv/fieldlog/internal/hdl/http/utils"
	metrics "github.com/JMURv/fieldlog/internal/observability/metrics/prometheus"
	"github.com/go-chi/chi/v5"
	"github.com/opentracing/opentracing-go"
	"go.uber.org/zap"
)

// Auth admits requests carrying a valid bearer access token.
// A missing token answers 401; any other rejection answers 403.
func Auth(au auth.Core) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(
			func(w http.ResponseWriter, r *http.Request) {
				header := r.Header.Get("Authorization")
				if header == "" || !strings.HasPrefix(header, config.BearerPrefix) {
					utils.ErrResponse(w, http.StatusUnauthorized, jwt.ErrMissingToken)
					return
				}

				token := strings.TrimSpace(strings.TrimPrefix(header, config.BearerPrefix))
				claims, err := au.ParseClaims(r.Context(), token)
				if err != nil {
					kind := jwt.KindOf(err)
					zap.L().Debug("access token rejected", zap.String("kind", kind.String()), zap.Error(err))
					if kind == jwt.RejectionMissing {
						utils.ErrResponse(w, http.StatusUnauthorized, err)
						return
					}
					utils.ErrResponse(w, http.StatusForbidden, err)
					return
				}

				ctx := context.WithValue(r.Context(), config.UidKey, claims.UID)
				ctx = context.WithValue(ctx, config.ClaimsKey, claims)
				next.ServeHTTP(w, r.WithContext(ctx))
			},
		)
	}
}

// Device stores client IP, user agent and optional device name for session bookkeeping.
func Device(next http.Handler) http.Handler {
	return http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			ip := r.RemoteAddr
			if host, _, err := net.SplitHostPort(ip); err == nil {
				ip = host
			}

			ctx := context.WithValue(r.Context(), config.IpKey, ip)
			ctx = context.WithValue(ctx, config.UaKey, r.UserAgent())
			ctx = context.WithValue(ctx, config.DeviceNameKey, r.Header.Get(config.DeviceNameHeader))
			next.ServeHTTP(w, r.WithContext(ctx))
		},
	)
}

type LoggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func NewLoggingResponseWriter(w http.ResponseWriter) *LoggingResponseWriter {
	return &LoggingResponseWriter{w, http.StatusOK}
}

func (lrw *LoggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func Prometheus(next http.Handler) http.Handler {
	return http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			s := time.Now()
			lrw := NewLoggingResponseWriter(w)
			next.ServeHTTP(lrw, r)

			route := r.URL.Path
			if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
				route = rc.RoutePattern()
			}
			metrics.ObserveRequest(time.Since(s), lrw.statusCode, fmt.Sprintf("%s %s", r.Method, route))
		},
	)
}

func Logger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(
			func(w http.ResponseWriter, r *http.Request) {
				start := time.Now()
				lrw := NewLoggingResponseWriter(w)
				logger.Debug(
					"-->",
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.String("remote", r.RemoteAddr),
				)

				next.ServeHTTP(lrw, r)

				logger.Info(
					"<--",
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Int("status", lrw.statusCode),
					zap.Duration("duration", time.Since(start)),
					zap.String("remote", r.RemoteAddr),
				)
			},
		)
	}
}

func OT(next http.Handler) http.Handler {
	return http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			span, ctx := opentracing.StartSpanFromContext(r.Context(), fmt.Sprintf("%s %s", r.Method, r.URL.Path))
			defer span.Finish()

			next.ServeHTTP(w, r.WithContext(ctx))
		},
	)
}
