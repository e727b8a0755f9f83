package utils

import (
	"context"
	"net/http"

	"github.com/JMURv/fieldlog/internal/config"
	"github.com/JMURv/fieldlog/internal/dto"
	"github.com/JMURv/fieldlog/internal/hdl"
	"github.com/JMURv/fieldlog/internal/hdl/validation"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Response struct {
	Data any `json:"data"`
}

type ErrorsResponse struct {
	Errors []string `json:"errors"`
}

func SuccessResponse(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(&Response{Data: data}); err != nil {
		zap.L().Debug("failed to write response", zap.Error(err))
	}
}

func ErrResponse(w http.ResponseWriter, statusCode int, err error) {
	ErrorsResp(w, statusCode, []string{err.Error()})
}

func ErrorsResp(w http.ResponseWriter, statusCode int, errs []string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(&ErrorsResponse{Errors: errs}); err != nil {
		zap.L().Debug("failed to write response", zap.Error(err))
	}
}

// ParseAndValidate decodes the JSON body into dst and runs its validate tags.
// On failure the 400 response is already written.
func ParseAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, config.MaxMemory)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		zap.L().Debug(hdl.ErrDecodeRequest.Error(), zap.Error(err))
		ErrResponse(w, http.StatusBadRequest, hdl.ErrDecodeRequest)
		return false
	}

	if errs := validation.Struct(dst); len(errs) > 0 {
		ErrorsResp(w, http.StatusBadRequest, errs)
		return false
	}
	return true
}

// ParseDeviceByRequest reads what the Device middleware stored in ctx.
func ParseDeviceByRequest(ctx context.Context) (dto.DeviceRequest, bool) {
	ip, ok := ctx.Value(config.IpKey).(string)
	if !ok {
		return dto.DeviceRequest{}, false
	}

	ua, ok := ctx.Value(config.UaKey).(string)
	if !ok {
		return dto.DeviceRequest{}, false
	}

	name, _ := ctx.Value(config.DeviceNameKey).(string)
	return dto.DeviceRequest{
		Name: name,
		IP:   ip,
		UA:   ua,
	}, true
}

func UIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	uid, ok := ctx.Value(config.UidKey).(uuid.UUID)
	return uid, ok && uid != uuid.Nil
}
