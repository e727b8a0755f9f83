package ctrl

import (
	"context"
	"errors"
	"testing"

	"github.com/JMURv/fieldlog/internal/models"
	"github.com/JMURv/fieldlog/internal/repo"
	"github.com/JMURv/fieldlog/tests/mocks"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"
)

func TestController_CancelReminders(t *testing.T) {
	ctrlMock := gomock.NewController(t)
	defer ctrlMock.Finish()

	mockRepo := mocks.NewMockAppRepo(ctrlMock)
	ctx := context.Background()
	ctrl := New(nil, mockRepo, nil, nil)
	owner, recordID := uuid.New(), uuid.New()

	tests := []struct {
		name     string
		caller   uuid.UUID
		setup    func()
		expected int64
		err      error
	}{
		{
			name:   "Success",
			caller: owner,
			setup: func() {
				mockRepo.EXPECT().GetRecordOwner(gomock.Any(), recordID).Return(owner, nil)
				mockRepo.EXPECT().CancelReminders(gomock.Any(), recordID).Return(int64(1), nil)
			},
			expected: 1,
		},
		{
			name:   "NotOwner",
			caller: uuid.New(),
			setup: func() {
				mockRepo.EXPECT().GetRecordOwner(gomock.Any(), recordID).Return(owner, nil)
			},
			err: ErrForbidden,
		},
		{
			name:   "UnknownRecord",
			caller: owner,
			setup: func() {
				mockRepo.EXPECT().GetRecordOwner(gomock.Any(), recordID).Return(uuid.Nil, repo.ErrNotFound)
			},
			err: ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setup()
			n, err := ctrl.CancelReminders(ctx, tt.caller, recordID)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, n)
		})
	}
}

func TestController_LogNotification(t *testing.T) {
	ctrlMock := gomock.NewController(t)
	defer ctrlMock.Finish()

	mockRepo := mocks.NewMockAppRepo(ctrlMock)
	ctrl := New(nil, mockRepo, nil, nil)
	l := &models.NotificationLog{UserID: uuid.New(), Kind: "reminder"}

	mockRepo.EXPECT().CreateNotificationLog(gomock.Any(), l).Return(errors.New("db error"))
	ctrl.LogNotification(context.Background(), l)
}
