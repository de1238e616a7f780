package payment

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/lexserve/lexserve-backend/internal/models"
	"github.com/lexserve/lexserve-backend/internal/storage"
	"github.com/lexserve/lexserve-backend/internal/vpay"
)

// MockGateway реализует интерфейс Gateway
type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) Login(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *MockGateway) VerifyTransaction(ctx context.Context, token, transactionRef string) (*vpay.VerifyData, error) {
	args := m.Called(ctx, token, transactionRef)
	if res := args.Get(0); res != nil {
		return res.(*vpay.VerifyData), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockRepository реализует интерфейс Repository
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) CreateTransaction(ctx context.Context, t models.Transaction) (int64, error) {
	args := m.Called(ctx, t)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRepository) ListTransactions(ctx context.Context, userUID string, limit, offset int) ([]*models.Transaction, error) {
	args := m.Called(ctx, userUID, limit, offset)
	if res := args.Get(0); res != nil {
		return res.([]*models.Transaction), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRepository) ReadConsultation(ctx context.Context, id string) (*models.Consultation, error) {
	args := m.Called(ctx, id)
	if res := args.Get(0); res != nil {
		return res.(*models.Consultation), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRepository) MarkConsultationPaid(ctx context.Context, id string, transactionID int64) (int, error) {
	args := m.Called(ctx, id, transactionID)
	return args.Int(0), args.Error(1)
}

func (m *MockRepository) GetLatestPendingSubscription(ctx context.Context, userUID string) (*models.UserSubscription, error) {
	args := m.Called(ctx, userUID)
	if res := args.Get(0); res != nil {
		return res.(*models.UserSubscription), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRepository) GetPlan(ctx context.Context, id string) (*models.SubscriptionPlan, error) {
	args := m.Called(ctx, id)
	if res := args.Get(0); res != nil {
		return res.(*models.SubscriptionPlan), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRepository) ActivateSubscription(ctx context.Context, id string, endDate time.Time) (int, error) {
	args := m.Called(ctx, id, endDate)
	return args.Int(0), args.Error(1)
}

func (m *MockRepository) GetUserByUID(ctx context.Context, uid string) (*models.User, error) {
	args := m.Called(ctx, uid)
	if res := args.Get(0); res != nil {
		return res.(*models.User), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockPublisher реализует интерфейс Publisher
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(routingKey string, message any) error {
	args := m.Called(routingKey, message)
	return args.Error(0)
}

// MockCache реализует интерфейс Cache
type MockCache struct {
	mock.Mock
}

func (m *MockCache) Invalidate(key string) error {
	args := m.Called(key)
	return args.Error(0)
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func TestVerify_ConsultationPaid(t *testing.T) {
	gateway := new(MockGateway)
	repo := new(MockRepository)
	publisher := new(MockPublisher)

	gateway.On("Login", mock.Anything).Return("token-123", nil)
	gateway.On("VerifyTransaction", mock.Anything, "token-123", "ref-1").
		Return(&vpay.VerifyData{PaymentStatus: "paid", OrderAmount: 200, PaymentMethod: "card"}, nil)
	repo.On("CreateTransaction", mock.Anything, mock.Anything).Return(int64(7), nil)
	repo.On("ReadConsultation", mock.Anything, "cons-1").
		Return(&models.Consultation{ID: "cons-1", CallType: models.CallTypeVideo}, nil)
	repo.On("MarkConsultationPaid", mock.Anything, "cons-1", int64(7)).Return(1, nil)
	repo.On("GetUserByUID", mock.Anything, "user-1").
		Return(&models.User{UID: "user-1", Email: "u@example.com", Username: "testuser"}, nil)
	publisher.On("Publish", "receipt", mock.Anything).Return(nil)

	svc := New(gateway, repo, publisher, nil, newTestLogger())
	transaction, err := svc.Verify(context.Background(), "user-1", VerifyRequest{
		TransactionRef: "ref-1",
		Reason:         models.PaymentReasonConsultation,
		ConsultationID: "cons-1",
	})

	require.NoError(t, err)
	assert.Equal(t, int64(7), transaction.ID)
	assert.Equal(t, float64(200), transaction.Amount)
	repo.AssertExpectations(t)
	gateway.AssertExpectations(t)
	publisher.AssertExpectations(t)
}

func TestVerify_AmountMismatchKeepsTransaction(t *testing.T) {
	gateway := new(MockGateway)
	repo := new(MockRepository)

	gateway.On("Login", mock.Anything).Return("token-123", nil)
	gateway.On("VerifyTransaction", mock.Anything, "token-123", "ref-2").
		Return(&vpay.VerifyData{PaymentStatus: "paid", OrderAmount: 150}, nil)
	repo.On("CreateTransaction", mock.Anything, mock.Anything).Return(int64(8), nil)
	repo.On("ReadConsultation", mock.Anything, "cons-2").
		Return(&models.Consultation{ID: "cons-2", CallType: models.CallTypeVideo}, nil)

	svc := New(gateway, repo, nil, nil, newTestLogger())
	_, err := svc.Verify(context.Background(), "user-1", VerifyRequest{
		TransactionRef: "ref-2",
		Reason:         models.PaymentReasonConsultation,
		ConsultationID: "cons-2",
	})

	require.ErrorIs(t, err, ErrIncorrectAmount)
	// Квитанция сохранена до проверки суммы, связывание не выполнялось.
	repo.AssertCalled(t, "CreateTransaction", mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "MarkConsultationPaid", mock.Anything, mock.Anything, mock.Anything)
}

func TestVerify_NotPaidNothingPersisted(t *testing.T) {
	gateway := new(MockGateway)
	repo := new(MockRepository)

	gateway.On("Login", mock.Anything).Return("token-123", nil)
	gateway.On("VerifyTransaction", mock.Anything, "token-123", "ref-3").
		Return(&vpay.VerifyData{PaymentStatus: "pending", OrderAmount: 200}, nil)

	svc := New(gateway, repo, nil, nil, newTestLogger())
	_, err := svc.Verify(context.Background(), "user-1", VerifyRequest{
		TransactionRef: "ref-3",
		Reason:         models.PaymentReasonConsultation,
		ConsultationID: "cons-3",
	})

	require.ErrorIs(t, err, ErrPaymentNotCompleted)
	repo.AssertNotCalled(t, "CreateTransaction", mock.Anything, mock.Anything)
}

func TestVerify_DuplicateTransactionRef(t *testing.T) {
	gateway := new(MockGateway)
	repo := new(MockRepository)

	gateway.On("Login", mock.Anything).Return("token-123", nil)
	gateway.On("VerifyTransaction", mock.Anything, "token-123", "ref-4").
		Return(&vpay.VerifyData{PaymentStatus: "paid", OrderAmount: 200}, nil)
	repo.On("CreateTransaction", mock.Anything, mock.Anything).
		Return(int64(0), storage.ErrTransactionExists)

	svc := New(gateway, repo, nil, nil, newTestLogger())
	_, err := svc.Verify(context.Background(), "user-1", VerifyRequest{
		TransactionRef: "ref-4",
		Reason:         models.PaymentReasonConsultation,
		ConsultationID: "cons-4",
	})

	require.ErrorIs(t, err, storage.ErrTransactionExists)
}

func TestVerify_SubscriptionActivated(t *testing.T) {
	gateway := new(MockGateway)
	repo := new(MockRepository)
	cache := new(MockCache)

	gateway.On("Login", mock.Anything).Return("token-123", nil)
	gateway.On("VerifyTransaction", mock.Anything, "token-123", "ref-5").
		Return(&vpay.VerifyData{PaymentStatus: "paid", OrderAmount: 5000}, nil)
	repo.On("CreateTransaction", mock.Anything, mock.Anything).Return(int64(9), nil)
	repo.On("GetLatestPendingSubscription", mock.Anything, "user-1").
		Return(&models.UserSubscription{ID: "sub-1", PlanID: "basic-monthly"}, nil)
	repo.On("GetPlan", mock.Anything, "basic-monthly").
		Return(&models.SubscriptionPlan{ID: "basic-monthly", DurationDays: 30}, nil)
	repo.On("ActivateSubscription", mock.Anything, "sub-1", mock.Anything).Return(1, nil)
	cache.On("Invalidate", "subscription:active:user-1").Return(nil)

	svc := New(gateway, repo, nil, cache, newTestLogger())
	transaction, err := svc.Verify(context.Background(), "user-1", VerifyRequest{
		TransactionRef: "ref-5",
		Reason:         models.PaymentReasonSubscription,
	})

	require.NoError(t, err)
	assert.Equal(t, int64(9), transaction.ID)
	repo.AssertCalled(t, "ActivateSubscription", mock.Anything, "sub-1", mock.Anything)
	// Кешированный статус подписки сбрасывается после активации.
	cache.AssertExpectations(t)
}

func TestVerify_LoginFailed(t *testing.T) {
	gateway := new(MockGateway)
	repo := new(MockRepository)

	gateway.On("Login", mock.Anything).Return("", errors.New("gateway unavailable"))

	svc := New(gateway, repo, nil, nil, newTestLogger())
	_, err := svc.Verify(context.Background(), "user-1", VerifyRequest{
		TransactionRef: "ref-6",
		Reason:         models.PaymentReasonSubscription,
	})

	require.Error(t, err)
	gateway.AssertNotCalled(t, "VerifyTransaction", mock.Anything, mock.Anything, mock.Anything)
}
