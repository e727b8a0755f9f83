package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	_ "github.com/JMURv/fieldlog/api/rest/v1"
	"github.com/JMURv/fieldlog/internal/auth"
	"github.com/JMURv/fieldlog/internal/ctrl"
	mid "github.com/JMURv/fieldlog/internal/hdl/http/middleware"
	"github.com/JMURv/fieldlog/internal/hdl/http/utils"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"
)

type Handler struct {
	Router *chi.Mux
	au     auth.Core
	srv    *http.Server
	ctrl   ctrl.AppCtrl
}

// New builds the router with every route registered, so tests can serve through it directly.
func New(au auth.Core, ctrl ctrl.AppCtrl) *Handler {
	h := &Handler{
		Router: chi.NewRouter(),
		au:     au,
		ctrl:   ctrl,
	}

	h.Router.Use(
		mid.Logger(zap.L()),
		middleware.StripSlashes,
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		mid.Prometheus,
		mid.OT,
	)

	h.RegisterRoutes()
	return h
}

func (h *Handler) RegisterRoutes() {
	h.RegisterAuthRoutes()
	h.RegisterNotificationRoutes()

	h.Router.Get("/swagger/*", httpSwagger.WrapHandler)
	h.Router.Get(
		"/health", func(w http.ResponseWriter, r *http.Request) {
			utils.SuccessResponse(w, http.StatusOK, "OK")
		},
	)
}

func (h *Handler) Start(port int) {
	h.srv = &http.Server{
		Handler:      h.Router,
		Addr:         fmt.Sprintf(":%v", port),
		WriteTimeout: 15 * time.Second,
		ReadTimeout:  15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	zap.L().Info(
		"Starting HTTP server",
		zap.String("addr", h.srv.Addr),
	)

	err := h.srv.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		zap.L().Error("Server error", zap.Error(err))
	}
}

func (h *Handler) Close(ctx context.Context) error {
	if h.srv == nil {
		return nil
	}
	return h.srv.Shutdown(ctx)
}
