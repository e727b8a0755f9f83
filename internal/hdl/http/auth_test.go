package http

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/JMURv/fieldlog/internal/auth"
	"github.com/JMURv/fieldlog/internal/auth/jwt"
	"github.com/JMURv/fieldlog/internal/config"
	"github.com/JMURv/fieldlog/internal/dto"
	"github.com/JMURv/fieldlog/internal/hdl"
	"github.com/JMURv/fieldlog/internal/hdl/http/utils"
	"github.com/JMURv/fieldlog/tests/mocks"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const testUA = "user-agent"

func decodeErrors(t *testing.T, r *httptest.ResponseRecorder) []string {
	t.Helper()
	res := &utils.ErrorsResponse{}
	require.NoError(t, json.NewDecoder(r.Result().Body).Decode(res))
	return res.Errors
}

func decodeData(t *testing.T, r *httptest.ResponseRecorder, dst any) {
	t.Helper()
	res := struct {
		Data json.RawMessage `json:"data"`
	}{}
	require.NoError(t, json.NewDecoder(r.Result().Body).Decode(&res))
	require.NoError(t, json.Unmarshal(res.Data, dst))
}

func TestHandler_Login(t *testing.T) {
	const uri = "/auth/login"
	mock := gomock.NewController(t)
	defer mock.Finish()

	testErr := errors.New("testErr")
	mctrl := mocks.NewMockAppCtrl(mock)
	mauth := mocks.NewMockCore(mock)
	h := New(mauth, mctrl)

	device := &dto.DeviceRequest{IP: "192.0.2.1", UA: testUA, Name: "Field tablet"}
	creds := &dto.EmailAndPasswordRequest{Email: "example@mail.com", Password: "password"}
	uid := uuid.New()

	tests := []struct {
		name       string
		status     int
		payload    map[string]any
		expect     func()
		assertions func(r *httptest.ResponseRecorder)
	}{
		{
			name:    "ErrDecodeRequest",
			status:  http.StatusBadRequest,
			payload: map[string]any{"email": 0, "password": "password"},
			assertions: func(r *httptest.ResponseRecorder) {
				assert.Equal(t, hdl.ErrDecodeRequest.Error(), decodeErrors(t, r)[0])
			},
			expect: func() {},
		},
		{
			name:    "ErrMissingEmail",
			status:  http.StatusBadRequest,
			payload: map[string]any{"email": "", "password": "password"},
			assertions: func(r *httptest.ResponseRecorder) {
				assert.Contains(t, decodeErrors(t, r)[0], "required rule")
			},
			expect: func() {},
		},
		{
			name:    "ErrMissingPass",
			status:  http.StatusBadRequest,
			payload: map[string]any{"email": "example@mail.com", "password": ""},
			assertions: func(r *httptest.ResponseRecorder) {
				assert.Contains(t, decodeErrors(t, r)[0], "required rule")
			},
			expect: func() {},
		},
		{
			name:    "ErrInvalidCredentials",
			status:  http.StatusUnauthorized,
			payload: map[string]any{"email": "example@mail.com", "password": "password"},
			assertions: func(r *httptest.ResponseRecorder) {
				assert.Equal(t, auth.ErrInvalidCredentials.Error(), decodeErrors(t, r)[0])
			},
			expect: func() {
				mctrl.EXPECT().Login(gomock.Any(), device, creds).Return(nil, auth.ErrInvalidCredentials)
			},
		},
		{
			name:    "ErrAccountDisabled",
			status:  http.StatusUnauthorized,
			payload: map[string]any{"email": "example@mail.com", "password": "password"},
			assertions: func(r *httptest.ResponseRecorder) {
				assert.Equal(t, auth.ErrAccountDisabled.Error(), decodeErrors(t, r)[0])
			},
			expect: func() {
				mctrl.EXPECT().Login(gomock.Any(), device, creds).Return(nil, auth.ErrAccountDisabled)
			},
		},
		{
			name:    "StatusInternalServerError",
			status:  http.StatusInternalServerError,
			payload: map[string]any{"email": "example@mail.com", "password": "password"},
			assertions: func(r *httptest.ResponseRecorder) {
				assert.Equal(t, hdl.ErrInternal.Error(), decodeErrors(t, r)[0])
			},
			expect: func() {
				mctrl.EXPECT().Login(gomock.Any(), device, creds).Return(nil, testErr)
			},
		},
		{
			name:    "Success",
			status:  http.StatusOK,
			payload: map[string]any{"email": "example@mail.com", "password": "password"},
			assertions: func(r *httptest.ResponseRecorder) {
				res := &dto.LoginResponse{}
				decodeData(t, r, res)
				assert.Equal(t, "access", res.Access)
				assert.Equal(t, "refresh", res.Refresh)
				assert.Equal(t, uid, res.User.ID)
			},
			expect: func() {
				mctrl.EXPECT().Login(gomock.Any(), device, creds).Return(
					&dto.LoginResponse{
						Access:  "access",
						Refresh: "refresh",
						User:    dto.UserIdentity{ID: uid, Email: creds.Email, Name: "Inspector"},
					}, nil,
				)
			},
		},
	}

	for _, tt := range tests {
		t.Run(
			tt.name, func(t *testing.T) {
				tt.expect()
				b, err := json.Marshal(tt.payload)
				require.NoError(t, err)

				req := httptest.NewRequest(http.MethodPost, uri, bytes.NewBuffer(b))
				req.Header.Set("Content-Type", "application/json")
				req.Header.Set("User-Agent", testUA)
				req.Header.Set(config.DeviceNameHeader, "Field tablet")

				w := httptest.NewRecorder()
				h.Router.ServeHTTP(w, req)
				assert.Equal(t, tt.status, w.Result().StatusCode)

				defer func() {
					assert.Nil(t, w.Result().Body.Close())
				}()

				tt.assertions(w)
			},
		)
	}
}

func TestHandler_LoginWithoutDevice(t *testing.T) {
	mock := gomock.NewController(t)
	defer mock.Finish()

	h := New(mocks.NewMockCore(mock), mocks.NewMockAppCtrl(mock))
	req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewBufferString(`{}`))

	w := httptest.NewRecorder()
	h.login(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Result().StatusCode)
	assert.Equal(t, ErrNoDeviceInfo.Error(), decodeErrors(t, w)[0])
}

func TestHandler_Refresh(t *testing.T) {
	const uri = "/auth/refresh"
	mock := gomock.NewController(t)
	defer mock.Finish()

	testErr := errors.New("testErr")
	mctrl := mocks.NewMockAppCtrl(mock)
	mauth := mocks.NewMockCore(mock)
	h := New(mauth, mctrl)

	device := &dto.DeviceRequest{IP: "192.0.2.1", UA: testUA}
	body := &dto.RefreshRequest{Refresh: "refresh_token"}

	tests := []struct {
		name       string
		status     int
		payload    map[string]any
		expect     func()
		assertions func(r *httptest.ResponseRecorder)
	}{
		{
			name:    "ErrMissingToken",
			status:  http.StatusBadRequest,
			payload: map[string]any{},
			assertions: func(r *httptest.ResponseRecorder) {
				assert.Contains(t, decodeErrors(t, r)[0], "required rule")
			},
			expect: func() {},
		},
		{
			name:    "ErrTokenRevoked",
			status:  http.StatusUnauthorized,
			payload: map[string]any{"refreshToken": "refresh_token"},
			assertions: func(r *httptest.ResponseRecorder) {
				assert.Equal(t, auth.ErrTokenRevoked.Error(), decodeErrors(t, r)[0])
			},
			expect: func() {
				mctrl.EXPECT().Refresh(gomock.Any(), device, body).Return(nil, auth.ErrTokenRevoked)
			},
		},
		{
			name:    "ErrTokenExpired",
			status:  http.StatusUnauthorized,
			payload: map[string]any{"refreshToken": "refresh_token"},
			assertions: func(r *httptest.ResponseRecorder) {
				assert.Equal(t, jwt.ErrTokenExpired.Error(), decodeErrors(t, r)[0])
			},
			expect: func() {
				mctrl.EXPECT().Refresh(gomock.Any(), device, body).Return(nil, jwt.ErrTokenExpired)
			},
		},
		{
			name:    "StatusInternalServerError",
			status:  http.StatusInternalServerError,
			payload: map[string]any{"refreshToken": "refresh_token"},
			assertions: func(r *httptest.ResponseRecorder) {
				assert.Equal(t, hdl.ErrInternal.Error(), decodeErrors(t, r)[0])
			},
			expect: func() {
				mctrl.EXPECT().Refresh(gomock.Any(), device, body).Return(nil, testErr)
			},
		},
		{
			name:    "Success",
			status:  http.StatusOK,
			payload: map[string]any{"refreshToken": "refresh_token"},
			assertions: func(r *httptest.ResponseRecorder) {
				res := &dto.TokenPair{}
				decodeData(t, r, res)
				assert.Equal(t, &dto.TokenPair{Access: "a2", Refresh: "r2"}, res)
			},
			expect: func() {
				mctrl.EXPECT().Refresh(gomock.Any(), device, body).Return(&dto.TokenPair{Access: "a2", Refresh: "r2"}, nil)
			},
		},
	}

	for _, tt := range tests {
		t.Run(
			tt.name, func(t *testing.T) {
				tt.expect()
				b, err := json.Marshal(tt.payload)
				require.NoError(t, err)

				req := httptest.NewRequest(http.MethodPost, uri, bytes.NewBuffer(b))
				req.Header.Set("Content-Type", "application/json")
				req.Header.Set("User-Agent", testUA)

				w := httptest.NewRecorder()
				h.Router.ServeHTTP(w, req)
				assert.Equal(t, tt.status, w.Result().StatusCode)

				defer func() {
					assert.Nil(t, w.Result().Body.Close())
				}()

				tt.assertions(w)
			},
		)
	}
}

func TestHandler_Logout(t *testing.T) {
	const uri = "/auth/logout"
	mock := gomock.NewController(t)
	defer mock.Finish()

	mctrl := mocks.NewMockAppCtrl(mock)
	mauth := mocks.NewMockCore(mock)
	h := New(mauth, mctrl)

	tests := []struct {
		name   string
		body   string
		expect func()
	}{
		{
			name:   "UnreadableBody",
			body:   "{",
			expect: func() {},
		},
		{
			name: "CtrlError",
			body: `{"refreshToken":"r"}`,
			expect: func() {
				mctrl.EXPECT().Logout(gomock.Any(), &dto.LogoutRequest{Refresh: "r"}).Return(errors.New("testErr"))
			},
		},
		{
			name: "Success",
			body: `{"refreshToken":"r","deviceToken":"d"}`,
			expect: func() {
				mctrl.EXPECT().Logout(gomock.Any(), &dto.LogoutRequest{Refresh: "r", DeviceToken: "d"}).Return(nil)
			},
		},
	}

	for _, tt := range tests {
		t.Run(
			tt.name, func(t *testing.T) {
				tt.expect()
				req := httptest.NewRequest(http.MethodPost, uri, bytes.NewBufferString(tt.body))
				req.Header.Set("Content-Type", "application/json")

				w := httptest.NewRecorder()
				h.Router.ServeHTTP(w, req)
				assert.Equal(t, http.StatusOK, w.Result().StatusCode)
			},
		)
	}
}

func TestHandler_Health(t *testing.T) {
	mock := gomock.NewController(t)
	defer mock.Finish()

	h := New(mocks.NewMockCore(mock), mocks.NewMockAppCtrl(mock))
	w := httptest.NewRecorder()
	h.Router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	var data string
	decodeData(t, w, &data)
	assert.Equal(t, http.StatusOK, w.Result().StatusCode)
	assert.Equal(t, "OK", data)
}
