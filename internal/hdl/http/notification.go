package http

import (
	"errors"
	"net/http"

	"github.com/JMURv/fieldlog/internal/ctrl"
	"github.com/JMURv/fieldlog/internal/dto"
	"github.com/JMURv/fieldlog/internal/hdl"
	mid "github.com/JMURv/fieldlog/internal/hdl/http/middleware"
	"github.com/JMURv/fieldlog/internal/hdl/http/utils"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

func (h *Handler) RegisterNotificationRoutes() {
	h.Router.Route(
		"/notifications", func(r chi.Router) {
			r.Use(mid.Auth(h.au))
			r.Post("/register-token", h.registerToken)
			r.Delete("/unregister-token", h.unregisterToken)
			r.Get("/user-tokens/{userId}", h.userTokens)
			r.Post("/test", h.testNotification)
			r.Delete("/reminders/{recordId}", h.cancelReminders)
		},
	)
}

// registerToken godoc
//
//	@Summary		Register a push token
//	@Description	Upsert a device push token for the authenticated user. A token seen under another account moves to this one.
//	@Tags			Notifications
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			body	body		dto.RegisterTokenRequest	true	"Token registration"
//	@Success		200		{object}	utils.Response
//	@Failure		400		{object}	utils.ErrorsResponse
//	@Failure		401		{object}	utils.ErrorsResponse
//	@Failure		403		{object}	utils.ErrorsResponse
//	@Failure		404		{object}	utils.ErrorsResponse	"userId is not the caller"
//	@Failure		500		{object}	utils.ErrorsResponse
//	@Router			/notifications/register-token [post]
func (h *Handler) registerToken(w http.ResponseWriter, r *http.Request) {
	uid, ok := utils.UIDFromContext(r.Context())
	if !ok {
		zap.L().Error(hdl.ErrFailedToGetUUID.Error())
		utils.ErrResponse(w, http.StatusInternalServerError, hdl.ErrInternal)
		return
	}

	req := &dto.RegisterTokenRequest{}
	if ok = utils.ParseAndValidate(w, r, req); !ok {
		return
	}

	if err := h.ctrl.RegisterToken(r.Context(), uid, req); err != nil {
		if errors.Is(err, ctrl.ErrForbidden) {
			utils.ErrResponse(w, http.StatusNotFound, err)
			return
		}
		utils.ErrResponse(w, http.StatusInternalServerError, hdl.ErrInternal)
		return
	}

	utils.SuccessResponse(w, http.StatusOK, "OK")
}

// unregisterToken godoc
//
//	@Summary		Unregister a push token
//	@Description	Deactivate one of the caller's push tokens. Unknown tokens succeed without changes.
//	@Tags			Notifications
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			body	body		dto.UnregisterTokenRequest	true	"Token"
//	@Success		200		{object}	utils.Response
//	@Failure		400		{object}	utils.ErrorsResponse
//	@Failure		401		{object}	utils.ErrorsResponse
//	@Failure		500		{object}	utils.ErrorsResponse
//	@Router			/notifications/unregister-token [delete]
func (h *Handler) unregisterToken(w http.ResponseWriter, r *http.Request) {
	uid, ok := utils.UIDFromContext(r.Context())
	if !ok {
		zap.L().Error(hdl.ErrFailedToGetUUID.Error())
		utils.ErrResponse(w, http.StatusInternalServerError, hdl.ErrInternal)
		return
	}

	req := &dto.UnregisterTokenRequest{}
	if ok = utils.ParseAndValidate(w, r, req); !ok {
		return
	}

	if err := h.ctrl.UnregisterToken(r.Context(), uid, req.Token); err != nil {
		utils.ErrResponse(w, http.StatusInternalServerError, hdl.ErrInternal)
		return
	}

	utils.SuccessResponse(w, http.StatusOK, "OK")
}

// userTokens godoc
//
//	@Summary		List active push tokens
//	@Tags			Notifications
//	@Produce		json
//	@Security		BearerAuth
//	@Param			userId	path		string	true	"User ID"
//	@Success		200		{object}	dto.UserTokensResponse
//	@Failure		400		{object}	utils.ErrorsResponse	"invalid UUID"
//	@Failure		401		{object}	utils.ErrorsResponse
//	@Failure		403		{object}	utils.ErrorsResponse
//	@Failure		404		{object}	utils.ErrorsResponse	"userId is not the caller"
//	@Failure		500		{object}	utils.ErrorsResponse
//	@Router			/notifications/user-tokens/{userId} [get]
func (h *Handler) userTokens(w http.ResponseWriter, r *http.Request) {
	caller, ok := utils.UIDFromContext(r.Context())
	if !ok {
		zap.L().Error(hdl.ErrFailedToGetUUID.Error())
		utils.ErrResponse(w, http.StatusInternalServerError, hdl.ErrInternal)
		return
	}

	uid, err := uuid.Parse(chi.URLParam(r, "userId"))
	if err != nil || uid == uuid.Nil {
		utils.ErrResponse(w, http.StatusBadRequest, hdl.ErrFailedToParseUUID)
		return
	}

	tokens, err := h.ctrl.ActiveTokensFor(r.Context(), caller, uid)
	if err != nil {
		if errors.Is(err, ctrl.ErrForbidden) {
			utils.ErrResponse(w, http.StatusNotFound, err)
			return
		}
		utils.ErrResponse(w, http.StatusInternalServerError, hdl.ErrInternal)
		return
	}

	if tokens == nil {
		tokens = []string{}
	}
	utils.SuccessResponse(w, http.StatusOK, dto.UserTokensResponse{Tokens: tokens})
}

// testNotification godoc
//
//	@Summary		Send a test notification
//	@Description	Dispatch a notification to every active device of the caller.
//	@Tags			Notifications
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			body	body		dto.TestNotificationRequest	true	"Notification"
//	@Success		200		{object}	dto.DeliveryResult
//	@Failure		400		{object}	utils.ErrorsResponse
//	@Failure		401		{object}	utils.ErrorsResponse
//	@Failure		403		{object}	utils.ErrorsResponse
//	@Failure		404		{object}	utils.ErrorsResponse	"no registered device or userId is not the caller"
//	@Failure		500		{object}	utils.ErrorsResponse
//	@Router			/notifications/test [post]
func (h *Handler) testNotification(w http.ResponseWriter, r *http.Request) {
	uid, ok := utils.UIDFromContext(r.Context())
	if !ok {
		zap.L().Error(hdl.ErrFailedToGetUUID.Error())
		utils.ErrResponse(w, http.StatusInternalServerError, hdl.ErrInternal)
		return
	}

	req := &dto.TestNotificationRequest{}
	if ok = utils.ParseAndValidate(w, r, req); !ok {
		return
	}

	res, err := h.ctrl.SendTest(r.Context(), uid, req)
	if err != nil {
		switch {
		case errors.Is(err, ctrl.ErrForbidden), errors.Is(err, ctrl.ErrNoActiveDevice):
			utils.ErrResponse(w, http.StatusNotFound, err)
		default:
			utils.ErrResponse(w, http.StatusInternalServerError, hdl.ErrInternal)
		}
		return
	}

	utils.SuccessResponse(w, http.StatusOK, res)
}

// cancelReminders godoc
//
//	@Summary		Cancel pending reminders of a record
//	@Description	Called after a record's due date changes or the record is closed.
//	@Tags			Notifications
//	@Produce		json
//	@Security		BearerAuth
//	@Param			recordId	path		string	true	"Record ID"
//	@Success		200			{object}	dto.CancelRemindersResponse
//	@Failure		400			{object}	utils.ErrorsResponse	"invalid UUID"
//	@Failure		401			{object}	utils.ErrorsResponse
//	@Failure		403			{object}	utils.ErrorsResponse
//	@Failure		404			{object}	utils.ErrorsResponse	"record not found or owned by another user"
//	@Failure		500			{object}	utils.ErrorsResponse
//	@Router			/notifications/reminders/{recordId} [delete]
func (h *Handler) cancelReminders(w http.ResponseWriter, r *http.Request) {
	uid, ok := utils.UIDFromContext(r.Context())
	if !ok {
		zap.L().Error(hdl.ErrFailedToGetUUID.Error())
		utils.ErrResponse(w, http.StatusInternalServerError, hdl.ErrInternal)
		return
	}

	recordID, err := uuid.Parse(chi.URLParam(r, "recordId"))
	if err != nil || recordID == uuid.Nil {
		utils.ErrResponse(w, http.StatusBadRequest, hdl.ErrFailedToParseUUID)
		return
	}

	n, err := h.ctrl.CancelReminders(r.Context(), uid, recordID)
	if err != nil {
		switch {
		case errors.Is(err, ctrl.ErrNotFound), errors.Is(err, ctrl.ErrForbidden):
			utils.ErrResponse(w, http.StatusNotFound, err)
		default:
			utils.ErrResponse(w, http.StatusInternalServerError, hdl.ErrInternal)
		}
		return
	}

	utils.SuccessResponse(w, http.StatusOK, dto.CancelRemindersResponse{Cancelled: n})
}
