package servicerequest

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/lexserve/lexserve-backend/internal/lib/rabbitmq"
	"github.com/lexserve/lexserve-backend/internal/models"
)

// MockRepository реализует интерфейс Repository
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) CreateServiceRequest(ctx context.Context, req models.ServiceRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

func (m *MockRepository) ReadServiceRequest(ctx context.Context, referenceNumber string) (*models.ServiceRequest, error) {
	args := m.Called(ctx, referenceNumber)
	if res := args.Get(0); res != nil {
		return res.(*models.ServiceRequest), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRepository) ListServiceRequests(ctx context.Context, userUID string, limit, offset int) ([]*models.ServiceRequest, error) {
	args := m.Called(ctx, userUID, limit, offset)
	if res := args.Get(0); res != nil {
		return res.([]*models.ServiceRequest), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRepository) UpdateServiceRequestStatus(ctx context.Context, referenceNumber, status string) (int, error) {
	args := m.Called(ctx, referenceNumber, status)
	return args.Int(0), args.Error(1)
}

func (m *MockRepository) AddRequestNote(ctx context.Context, referenceNumber, author, text string) (int64, error) {
	args := m.Called(ctx, referenceNumber, author, text)
	return args.Get(0).(int64), args.Error(1)
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

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func TestSubmit_AssignsReferenceNumber(t *testing.T) {
	repo := new(MockRepository)

	repo.On("CreateServiceRequest", mock.Anything, mock.MatchedBy(func(req models.ServiceRequest) bool {
		return req.Status == models.RequestSubmitted &&
			req.PaymentStatus == models.RequestUnpaid &&
			req.Type == models.RequestBusinessRegistration
	})).Return("id-1", nil)

	svc := New(repo, nil, newTestLogger())
	referenceNumber, err := svc.Submit(context.Background(), "user-1", models.RequestBusinessRegistration,
		models.BusinessRegistrationDetails{CompanyName: "Acme Ltd", BusinessType: "llc"},
		[]Attachment{{FileName: "passport.pdf", ContentType: "application/pdf", Data: []byte("pdf")}})

	require.NoError(t, err)
	// Референс начинается с SR- и даты подачи.
	assert.Contains(t, referenceNumber, fmt.Sprintf("SR-%s", time.Now().Format("20060102")))
	repo.AssertExpectations(t)
}

func TestSubmit_DocumentTooLarge(t *testing.T) {
	repo := new(MockRepository)

	svc := New(repo, nil, newTestLogger())
	_, err := svc.Submit(context.Background(), "user-1", models.RequestDueDiligence,
		models.DueDiligenceDetails{SubjectName: "Acme Ltd", SubjectType: "company"},
		[]Attachment{{FileName: "huge.pdf", Data: bytes.Repeat([]byte("a"), MaxDocumentSize+1)}})

	require.ErrorIs(t, err, ErrDocumentTooLarge)
	repo.AssertNotCalled(t, "CreateServiceRequest", mock.Anything, mock.Anything)
}

func TestRead_ForeignRequestDenied(t *testing.T) {
	repo := new(MockRepository)

	repo.On("ReadServiceRequest", mock.Anything, "SR-20250101-0001").
		Return(&models.ServiceRequest{ReferenceNumber: "SR-20250101-0001", UserUID: "other-user"}, nil)

	svc := New(repo, nil, newTestLogger())
	_, err := svc.Read(context.Background(), "SR-20250101-0001", "user-1", false)

	require.ErrorIs(t, err, ErrAccessDenied)
}

func TestRead_ManagerSeesForeignRequest(t *testing.T) {
	repo := new(MockRepository)

	repo.On("ReadServiceRequest", mock.Anything, "SR-20250101-0001").
		Return(&models.ServiceRequest{ReferenceNumber: "SR-20250101-0001", UserUID: "other-user"}, nil)

	svc := New(repo, nil, newTestLogger())
	req, err := svc.Read(context.Background(), "SR-20250101-0001", "admin-1", true)

	require.NoError(t, err)
	assert.Equal(t, "other-user", req.UserUID)
}

func TestUpdateStatus_PublishesNotice(t *testing.T) {
	repo := new(MockRepository)
	publisher := new(MockPublisher)

	repo.On("UpdateServiceRequestStatus", mock.Anything, "SR-20250101-0001", models.RequestInReview).Return(1, nil)
	repo.On("ReadServiceRequest", mock.Anything, "SR-20250101-0001").
		Return(&models.ServiceRequest{
			ReferenceNumber: "SR-20250101-0001",
			UserUID:         "user-1",
			Type:            models.RequestBusinessRegistration,
		}, nil)
	repo.On("GetUserByUID", mock.Anything, "user-1").
		Return(&models.User{UID: "user-1", Email: "u@example.com", Username: "testuser"}, nil)
	publisher.On("Publish", rabbitmq.RoutingKeyRequestStatus, mock.MatchedBy(func(msg any) bool {
		notice, ok := msg.(StatusNotice)
		return ok && notice.Email == "u@example.com" && notice.Status == models.RequestInReview
	})).Return(nil)

	svc := New(repo, publisher, newTestLogger())
	affected, err := svc.UpdateStatus(context.Background(), "SR-20250101-0001", models.RequestInReview)

	require.NoError(t, err)
	assert.Equal(t, 1, affected)
	publisher.AssertExpectations(t)
}

func TestUpdateStatus_UnknownReferenceNoNotice(t *testing.T) {
	repo := new(MockRepository)
	publisher := new(MockPublisher)

	repo.On("UpdateServiceRequestStatus", mock.Anything, "SR-20250101-9999", models.RequestCompleted).Return(0, nil)

	svc := New(repo, publisher, newTestLogger())
	affected, err := svc.UpdateStatus(context.Background(), "SR-20250101-9999", models.RequestCompleted)

	require.NoError(t, err)
	assert.Equal(t, 0, affected)
	publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestUpdateStatus_PublishFailureDoesNotFail(t *testing.T) {
	repo := new(MockRepository)
	publisher := new(MockPublisher)

	repo.On("UpdateServiceRequestStatus", mock.Anything, "SR-20250101-0001", models.RequestCompleted).Return(1, nil)
	repo.On("ReadServiceRequest", mock.Anything, "SR-20250101-0001").
		Return(&models.ServiceRequest{ReferenceNumber: "SR-20250101-0001", UserUID: "user-1"}, nil)
	repo.On("GetUserByUID", mock.Anything, "user-1").
		Return(&models.User{UID: "user-1", Email: "u@example.com"}, nil)
	publisher.On("Publish", mock.Anything, mock.Anything).Return(fmt.Errorf("broker unavailable"))

	svc := New(repo, publisher, newTestLogger())
	affected, err := svc.UpdateStatus(context.Background(), "SR-20250101-0001", models.RequestCompleted)

	require.NoError(t, err)
	assert.Equal(t, 1, affected)
}
