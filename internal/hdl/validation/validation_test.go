package validation

import (
	"testing"

	"github.com/JMURv/fieldlog/internal/dto"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestStruct(t *testing.T) {
	tests := []struct {
		name string
		req  any
		errs []string
	}{
		{
			name: "Valid",
			req:  &dto.RegisterTokenRequest{UserID: uuid.New(), Token: "t", Platform: "ios"},
		},
		{
			name: "UnknownPlatform",
			req:  &dto.RegisterTokenRequest{UserID: uuid.New(), Token: "t", Platform: "web"},
			errs: []string{"field 'Platform' failed on the 'platform' rule"},
		},
		{
			name: "MissingFields",
			req:  &dto.EmailAndPasswordRequest{Email: "not-an-email"},
			errs: []string{
				"field 'Email' failed on the 'email' rule",
				"field 'Password' failed on the 'required' rule",
			},
		},
	}

	for _, tt := range tests {
		t.Run(
			tt.name, func(t *testing.T) {
				assert.Equal(t, tt.errs, Struct(tt.req))
			},
		)
	}
}
