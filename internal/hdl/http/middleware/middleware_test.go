package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/JMURv/fieldlog/internal/auth/jwt"
	"github.com/JMURv/fieldlog/internal/config"
	"github.com/JMURv/fieldlog/tests/mocks"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"
)

func TestAuth(t *testing.T) {
	mock := gomock.NewController(t)
	defer mock.Finish()

	mauth := mocks.NewMockCore(mock)
	uid := uuid.New()

	var got uuid.UUID
	next := http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			got, _ = r.Context().Value(config.UidKey).(uuid.UUID)
			w.WriteHeader(http.StatusNoContent)
		},
	)
	h := Auth(mauth)(next)

	tests := []struct {
		name   string
		header string
		status int
		expect func()
	}{
		{
			name:   "Missing",
			status: http.StatusUnauthorized,
			expect: func() {},
		},
		{
			name:   "NotBearer",
			header: "Basic abc",
			status: http.StatusUnauthorized,
			expect: func() {},
		},
		{
			name:   "Malformed",
			header: "Bearer garbage",
			status: http.StatusForbidden,
			expect: func() {
				mauth.EXPECT().ParseClaims(gomock.Any(), "garbage").Return(jwt.Claims{}, jwt.ErrMalformedToken)
			},
		},
		{
			name:   "Expired",
			header: "Bearer old",
			status: http.StatusForbidden,
			expect: func() {
				mauth.EXPECT().ParseClaims(gomock.Any(), "old").Return(jwt.Claims{}, jwt.ErrTokenExpired)
			},
		},
		{
			name:   "EmptyBearer",
			header: "Bearer ",
			status: http.StatusUnauthorized,
			expect: func() {
				mauth.EXPECT().ParseClaims(gomock.Any(), "").Return(jwt.Claims{}, jwt.ErrMissingToken)
			},
		},
		{
			name:   "Valid",
			header: "Bearer good",
			status: http.StatusNoContent,
			expect: func() {
				mauth.EXPECT().ParseClaims(gomock.Any(), "good").Return(jwt.Claims{UID: uid}, nil)
			},
		},
	}

	for _, tt := range tests {
		t.Run(
			tt.name, func(t *testing.T) {
				tt.expect()
				req := httptest.NewRequest(http.MethodGet, "/", nil)
				if tt.header != "" {
					req.Header.Set("Authorization", tt.header)
				}

				w := httptest.NewRecorder()
				h.ServeHTTP(w, req)
				assert.Equal(t, tt.status, w.Result().StatusCode)
			},
		)
	}
	assert.Equal(t, uid, got)
}

func TestDevice(t *testing.T) {
	var ip, ua, name string
	h := Device(
		http.HandlerFunc(
			func(w http.ResponseWriter, r *http.Request) {
				ip, _ = r.Context().Value(config.IpKey).(string)
				ua, _ = r.Context().Value(config.UaKey).(string)
				name, _ = r.Context().Value(config.DeviceNameKey).(string)
			},
		),
	)

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.RemoteAddr = "10.1.2.3:5555"
	req.Header.Set("User-Agent", "fieldlog-android/2.1")
	req.Header.Set(config.DeviceNameHeader, "Barn tablet")
	h.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, "10.1.2.3", ip)
	assert.Equal(t, "fieldlog-android/2.1", ua)
	assert.Equal(t, "Barn tablet", name)
}
