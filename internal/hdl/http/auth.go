package http

import (
	"errors"
	"net/http"

	"github.com/JMURv/fieldlog/internal/auth"
	"github.com/JMURv/fieldlog/internal/auth/jwt"
	"github.com/JMURv/fieldlog/internal/dto"
	"github.com/JMURv/fieldlog/internal/hdl"
	mid "github.com/JMURv/fieldlog/internal/hdl/http/middleware"
	"github.com/JMURv/fieldlog/internal/hdl/http/utils"
	"github.com/goccy/go-json"
	"go.uber.org/zap"
)

func (h *Handler) RegisterAuthRoutes() {
	h.Router.With(mid.Device).Post("/auth/login", h.login)
	h.Router.With(mid.Device).Post("/auth/refresh", h.refresh)
	h.Router.Post("/auth/logout", h.logout)
}

// login godoc
//
//	@Summary		Authenticate using email & password
//	@Description	Issue an access/refresh token pair and open a session for this device
//	@Tags			Authentication
//	@Accept			json
//	@Produce		json
//	@Param			User-Agent		header		string						false	"Client User-Agent"
//	@Param			X-Device-Name	header		string						false	"Human readable device name"
//	@Param			body			body		dto.EmailAndPasswordRequest	true	"Login credentials"
//	@Success		200				{object}	dto.LoginResponse
//	@Failure		400				{object}	utils.ErrorsResponse
//	@Failure		401				{object}	utils.ErrorsResponse	"invalid credentials or account disabled"
//	@Failure		500				{object}	utils.ErrorsResponse
//	@Router			/auth/login [post]
func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	d, ok := utils.ParseDeviceByRequest(r.Context())
	if !ok {
		utils.ErrResponse(w, http.StatusBadRequest, ErrNoDeviceInfo)
		return
	}

	req := &dto.EmailAndPasswordRequest{}
	if ok = utils.ParseAndValidate(w, r, req); !ok {
		return
	}

	res, err := h.ctrl.Login(r.Context(), &d, req)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) || errors.Is(err, auth.ErrAccountDisabled) {
			utils.ErrResponse(w, http.StatusUnauthorized, err)
			return
		}

		utils.ErrResponse(w, http.StatusInternalServerError, hdl.ErrInternal)
		return
	}

	utils.SuccessResponse(w, http.StatusOK, res)
}

// refresh godoc
//
//	@Summary		Rotate the token pair
//	@Description	Exchange a refresh token for a new pair. The presented refresh token stops working.
//	@Tags			Authentication
//	@Accept			json
//	@Produce		json
//	@Param			body	body		dto.RefreshRequest	true	"Refresh token"
//	@Success		200		{object}	dto.TokenPair
//	@Failure		400		{object}	utils.ErrorsResponse
//	@Failure		401		{object}	utils.ErrorsResponse	"revoked, expired or invalid token"
//	@Failure		500		{object}	utils.ErrorsResponse
//	@Router			/auth/refresh [post]
func (h *Handler) refresh(w http.ResponseWriter, r *http.Request) {
	d, ok := utils.ParseDeviceByRequest(r.Context())
	if !ok {
		utils.ErrResponse(w, http.StatusBadRequest, ErrNoDeviceInfo)
		return
	}

	req := &dto.RefreshRequest{}
	if ok = utils.ParseAndValidate(w, r, req); !ok {
		return
	}

	res, err := h.ctrl.Refresh(r.Context(), &d, req)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrTokenRevoked), errors.Is(err, auth.ErrAccountDisabled), isTokenErr(err):
			utils.ErrResponse(w, http.StatusUnauthorized, err)
		default:
			utils.ErrResponse(w, http.StatusInternalServerError, hdl.ErrInternal)
		}
		return
	}

	utils.SuccessResponse(w, http.StatusOK, res)
}

// logout godoc
//
//	@Summary		Logout
//	@Description	Invalidate the session behind a refresh token and optionally deactivate a device token.
//	@Description	Always answers 200 so callers cannot probe which tokens exist.
//	@Tags			Authentication
//	@Accept			json
//	@Produce		json
//	@Param			body	body		dto.LogoutRequest	false	"Refresh token and device token"
//	@Success		200		{object}	utils.Response
//	@Router			/auth/logout [post]
func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	req := &dto.LogoutRequest{}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(req); err != nil {
		zap.L().Debug("logout without a readable body", zap.Error(err))
		utils.SuccessResponse(w, http.StatusOK, "OK")
		return
	}

	if err := h.ctrl.Logout(r.Context(), req); err != nil {
		zap.L().Warn("logout failed", zap.Error(err))
	}

	utils.SuccessResponse(w, http.StatusOK, "OK")
}

func isTokenErr(err error) bool {
	return errors.Is(err, jwt.ErrMissingToken) ||
		errors.Is(err, jwt.ErrMalformedToken) ||
		errors.Is(err, jwt.ErrTokenExpired) ||
		errors.Is(err, jwt.ErrInvalidToken)
}
