package http

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/JMURv/fieldlog/internal/auth/jwt"
	"github.com/JMURv/fieldlog/internal/ctrl"
	"github.com/JMURv/fieldlog/internal/dto"
	"github.com/JMURv/fieldlog/internal/hdl"
	md "github.com/JMURv/fieldlog/internal/models"
	"github.com/JMURv/fieldlog/tests/mocks"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type notificationCase struct {
	name       string
	method     string
	uri        string
	body       any
	status     int
	expect     func()
	assertions func(r *httptest.ResponseRecorder)
}

func serveAuthorized(t *testing.T, h *Handler, mauth *mocks.MockCore, uid uuid.UUID, tests []notificationCase) {
	t.Helper()
	for _, tt := range tests {
		t.Run(
			tt.name, func(t *testing.T) {
				mauth.EXPECT().ParseClaims(gomock.Any(), "access").Return(jwt.Claims{UID: uid}, nil)
				tt.expect()

				var buf bytes.Buffer
				if tt.body != nil {
					b, err := json.Marshal(tt.body)
					require.NoError(t, err)
					buf.Write(b)
				}

				req := httptest.NewRequest(tt.method, tt.uri, &buf)
				req.Header.Set("Content-Type", "application/json")
				req.Header.Set("Authorization", "Bearer access")

				w := httptest.NewRecorder()
				h.Router.ServeHTTP(w, req)
				assert.Equal(t, tt.status, w.Result().StatusCode)

				defer func() {
					assert.Nil(t, w.Result().Body.Close())
				}()

				if tt.assertions != nil {
					tt.assertions(w)
				}
			},
		)
	}
}

func TestHandler_RegisterToken(t *testing.T) {
	const uri = "/notifications/register-token"
	mock := gomock.NewController(t)
	defer mock.Finish()

	mctrl := mocks.NewMockAppCtrl(mock)
	mauth := mocks.NewMockCore(mock)
	h := New(mauth, mctrl)
	uid := uuid.New()

	valid := map[string]any{"userId": uid, "token": "fcm-token", "platform": "android", "deviceInfo": "Pixel 8"}
	req := &dto.RegisterTokenRequest{UserID: uid, Token: "fcm-token", Platform: md.PlatformAndroid, DeviceInfo: "Pixel 8"}

	serveAuthorized(
		t, h, mauth, uid, []notificationCase{
			{
				name:   "ErrMissingToken",
				method: http.MethodPost,
				uri:    uri,
				body:   map[string]any{"userId": uid, "platform": "ios"},
				status: http.StatusBadRequest,
				assertions: func(r *httptest.ResponseRecorder) {
					assert.Contains(t, decodeErrors(t, r)[0], "'required' rule")
				},
				expect: func() {},
			},
			{
				name:   "ErrPlatform",
				method: http.MethodPost,
				uri:    uri,
				body:   map[string]any{"userId": uid, "token": "t", "platform": "windows"},
				status: http.StatusBadRequest,
				assertions: func(r *httptest.ResponseRecorder) {
					assert.Contains(t, decodeErrors(t, r)[0], "'platform' rule")
				},
				expect: func() {},
			},
			{
				name:   "OtherUser",
				method: http.MethodPost,
				uri:    uri,
				body:   valid,
				status: http.StatusNotFound,
				expect: func() {
					mctrl.EXPECT().RegisterToken(gomock.Any(), uid, req).Return(ctrl.ErrForbidden)
				},
			},
			{
				name:   "StatusInternalServerError",
				method: http.MethodPost,
				uri:    uri,
				body:   valid,
				status: http.StatusInternalServerError,
				assertions: func(r *httptest.ResponseRecorder) {
					assert.Equal(t, hdl.ErrInternal.Error(), decodeErrors(t, r)[0])
				},
				expect: func() {
					mctrl.EXPECT().RegisterToken(gomock.Any(), uid, req).Return(errors.New("testErr"))
				},
			},
			{
				name:   "Success",
				method: http.MethodPost,
				uri:    uri,
				body:   valid,
				status: http.StatusOK,
				expect: func() {
					mctrl.EXPECT().RegisterToken(gomock.Any(), uid, req).Return(nil)
				},
			},
		},
	)
}

func TestHandler_UnregisterToken(t *testing.T) {
	const uri = "/notifications/unregister-token"
	mock := gomock.NewController(t)
	defer mock.Finish()

	mctrl := mocks.NewMockAppCtrl(mock)
	mauth := mocks.NewMockCore(mock)
	h := New(mauth, mctrl)
	uid := uuid.New()

	serveAuthorized(
		t, h, mauth, uid, []notificationCase{
			{
				name:   "ErrMissingToken",
				method: http.MethodDelete,
				uri:    uri,
				body:   map[string]any{},
				status: http.StatusBadRequest,
				expect: func() {},
			},
			{
				name:   "StatusInternalServerError",
				method: http.MethodDelete,
				uri:    uri,
				body:   map[string]any{"token": "fcm-token"},
				status: http.StatusInternalServerError,
				expect: func() {
					mctrl.EXPECT().UnregisterToken(gomock.Any(), uid, "fcm-token").Return(errors.New("testErr"))
				},
			},
			{
				name:   "Success",
				method: http.MethodDelete,
				uri:    uri,
				body:   map[string]any{"token": "fcm-token"},
				status: http.StatusOK,
				expect: func() {
					mctrl.EXPECT().UnregisterToken(gomock.Any(), uid, "fcm-token").Return(nil)
				},
			},
		},
	)
}

func TestHandler_UserTokens(t *testing.T) {
	mock := gomock.NewController(t)
	defer mock.Finish()

	mctrl := mocks.NewMockAppCtrl(mock)
	mauth := mocks.NewMockCore(mock)
	h := New(mauth, mctrl)
	uid, other := uuid.New(), uuid.New()

	serveAuthorized(
		t, h, mauth, uid, []notificationCase{
			{
				name:   "ErrFailedToParseUUID",
				method: http.MethodGet,
				uri:    "/notifications/user-tokens/not-a-uuid",
				status: http.StatusBadRequest,
				assertions: func(r *httptest.ResponseRecorder) {
					assert.Equal(t, hdl.ErrFailedToParseUUID.Error(), decodeErrors(t, r)[0])
				},
				expect: func() {},
			},
			{
				name:   "OtherUser",
				method: http.MethodGet,
				uri:    "/notifications/user-tokens/" + other.String(),
				status: http.StatusNotFound,
				expect: func() {
					mctrl.EXPECT().ActiveTokensFor(gomock.Any(), uid, other).Return(nil, ctrl.ErrForbidden)
				},
			},
			{
				name:   "Empty",
				method: http.MethodGet,
				uri:    "/notifications/user-tokens/" + uid.String(),
				status: http.StatusOK,
				assertions: func(r *httptest.ResponseRecorder) {
					res := &dto.UserTokensResponse{}
					decodeData(t, r, res)
					assert.NotNil(t, res.Tokens)
					assert.Empty(t, res.Tokens)
				},
				expect: func() {
					mctrl.EXPECT().ActiveTokensFor(gomock.Any(), uid, uid).Return(nil, nil)
				},
			},
			{
				name:   "Success",
				method: http.MethodGet,
				uri:    "/notifications/user-tokens/" + uid.String(),
				status: http.StatusOK,
				assertions: func(r *httptest.ResponseRecorder) {
					res := &dto.UserTokensResponse{}
					decodeData(t, r, res)
					assert.Equal(t, []string{"a", "b"}, res.Tokens)
				},
				expect: func() {
					mctrl.EXPECT().ActiveTokensFor(gomock.Any(), uid, uid).Return([]string{"a", "b"}, nil)
				},
			},
		},
	)
}

func TestHandler_TestNotification(t *testing.T) {
	const uri = "/notifications/test"
	mock := gomock.NewController(t)
	defer mock.Finish()

	mctrl := mocks.NewMockAppCtrl(mock)
	mauth := mocks.NewMockCore(mock)
	h := New(mauth, mctrl)
	uid := uuid.New()

	body := map[string]any{"userId": uid, "title": "Hello", "body": "World"}
	req := &dto.TestNotificationRequest{UserID: uid, Title: "Hello", Body: "World"}

	serveAuthorized(
		t, h, mauth, uid, []notificationCase{
			{
				name:   "ErrMissingTitle",
				method: http.MethodPost,
				uri:    uri,
				body:   map[string]any{"userId": uid, "body": "World"},
				status: http.StatusBadRequest,
				expect: func() {},
			},
			{
				name:   "ErrNoActiveDevice",
				method: http.MethodPost,
				uri:    uri,
				body:   body,
				status: http.StatusNotFound,
				assertions: func(r *httptest.ResponseRecorder) {
					assert.Equal(t, ctrl.ErrNoActiveDevice.Error(), decodeErrors(t, r)[0])
				},
				expect: func() {
					mctrl.EXPECT().SendTest(gomock.Any(), uid, req).Return(dto.DeliveryResult{NoDevice: true}, ctrl.ErrNoActiveDevice)
				},
			},
			{
				name:   "OtherUser",
				method: http.MethodPost,
				uri:    uri,
				body:   body,
				status: http.StatusNotFound,
				expect: func() {
					mctrl.EXPECT().SendTest(gomock.Any(), uid, req).Return(dto.DeliveryResult{}, ctrl.ErrForbidden)
				},
			},
			{
				name:   "Success",
				method: http.MethodPost,
				uri:    uri,
				body:   body,
				status: http.StatusOK,
				assertions: func(r *httptest.ResponseRecorder) {
					res := &dto.DeliveryResult{}
					decodeData(t, r, res)
					assert.True(t, res.Success)
					assert.Equal(t, 1, res.SuccessCount)
					assert.Equal(t, 1, res.FailureCount)
				},
				expect: func() {
					mctrl.EXPECT().SendTest(gomock.Any(), uid, req).Return(
						dto.DeliveryResult{Success: true, SuccessCount: 1, FailureCount: 1}, nil,
					)
				},
			},
		},
	)
}

func TestHandler_CancelReminders(t *testing.T) {
	mock := gomock.NewController(t)
	defer mock.Finish()

	mctrl := mocks.NewMockAppCtrl(mock)
	mauth := mocks.NewMockCore(mock)
	h := New(mauth, mctrl)
	uid, recordID := uuid.New(), uuid.New()
	uri := "/notifications/reminders/" + recordID.String()

	serveAuthorized(
		t, h, mauth, uid, []notificationCase{
			{
				name:   "ErrNotFound",
				method: http.MethodDelete,
				uri:    uri,
				status: http.StatusNotFound,
				expect: func() {
					mctrl.EXPECT().CancelReminders(gomock.Any(), uid, recordID).Return(int64(0), ctrl.ErrNotFound)
				},
			},
			{
				name:   "OtherUser",
				method: http.MethodDelete,
				uri:    uri,
				status: http.StatusNotFound,
				expect: func() {
					mctrl.EXPECT().CancelReminders(gomock.Any(), uid, recordID).Return(int64(0), ctrl.ErrForbidden)
				},
			},
			{
				name:   "Success",
				method: http.MethodDelete,
				uri:    uri,
				status: http.StatusOK,
				assertions: func(r *httptest.ResponseRecorder) {
					res := &dto.CancelRemindersResponse{}
					decodeData(t, r, res)
					assert.Equal(t, int64(2), res.Cancelled)
				},
				expect: func() {
					mctrl.EXPECT().CancelReminders(gomock.Any(), uid, recordID).Return(int64(2), nil)
				},
			},
		},
	)
}

func TestHandler_NotificationsRequireAuth(t *testing.T) {
	mock := gomock.NewController(t)
	defer mock.Finish()

	mauth := mocks.NewMockCore(mock)
	h := New(mauth, mocks.NewMockAppCtrl(mock))

	w := httptest.NewRecorder()
	h.Router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/notifications/user-tokens/"+uuid.NewString(), nil))
	assert.Equal(t, http.StatusUnauthorized, w.Result().StatusCode)

	mauth.EXPECT().ParseClaims(gomock.Any(), "stale").Return(jwt.Claims{}, jwt.ErrTokenExpired)
	req := httptest.NewRequest(http.MethodGet, "/notifications/user-tokens/"+uuid.NewString(), nil)
	req.Header.Set("Authorization", "Bearer stale")

	w = httptest.NewRecorder()
	h.Router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Result().StatusCode)
}
