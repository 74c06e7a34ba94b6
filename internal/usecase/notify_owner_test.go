package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/xavierca1/funnel-leads/internal/entity"
	"github.com/xavierca1/funnel-leads/internal/infra/mail"
	"github.com/xavierca1/funnel-leads/internal/infra/queue"
)

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, u *entity.BusinessUser) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id string) (*entity.BusinessUser, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.BusinessUser), args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*entity.BusinessUser, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.BusinessUser), args.Error(1)
}

type MockEmailService struct {
	mock.Mock
}

func (m *MockEmailService) SendNewLead(to string, data mail.NewLeadEmailData) error {
	args := m.Called(to, data)
	return args.Error(0)
}

func TestNotifyOwner_SendsEmail(t *testing.T) {
	ctx := context.Background()
	users := new(MockUserRepository)
	email := new(MockEmailService)

	users.On("FindByID", ctx, testOwner).Return(&entity.BusinessUser{ID: testOwner, Name: "Carla", Email: "carla@example.com", IsActive: true}, nil)
	email.On("SendNewLead", "carla@example.com", mock.MatchedBy(func(d mail.NewLeadEmailData) bool {
		return d.OwnerName == "Carla" && d.FunnelTitle == "Reforma" && d.DashboardURL == "https://app.example.com/leads"
	})).Return(nil)

	uc := NewNotifyOwnerUseCase(users, email, "https://app.example.com/leads")
	err := uc.HandleLeadCaptured(ctx, queue.LeadCapturedPayload{BusinessUserID: testOwner, FunnelTitle: "Reforma", Phone: "1"})

	assert.NoError(t, err)
	email.AssertExpectations(t)
}

func TestNotifyOwner_MissingOwnerIsDropped(t *testing.T) {
	ctx := context.Background()
	users := new(MockUserRepository)
	email := new(MockEmailService)
	users.On("FindByID", ctx, "ghost").Return(nil, entity.ErrUserNotFound)

	err := NewNotifyOwnerUseCase(users, email, "").HandleLeadCaptured(ctx, queue.LeadCapturedPayload{BusinessUserID: "ghost"})

	assert.NoError(t, err)
	email.AssertNotCalled(t, "SendNewLead", mock.Anything, mock.Anything)
}

func TestNotifyOwner_DatabaseErrorIsReturned(t *testing.T) {
	ctx := context.Background()
	users := new(MockUserRepository)
	users.On("FindByID", ctx, testOwner).Return(nil, errors.New("pq: connection refused"))

	err := NewNotifyOwnerUseCase(users, new(MockEmailService), "").HandleLeadCaptured(ctx, queue.LeadCapturedPayload{BusinessUserID: testOwner})
	assert.Error(t, err)
}
