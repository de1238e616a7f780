package verify

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/lexserve/lexserve-backend/internal/http/middlewarectx"
	"github.com/lexserve/lexserve-backend/internal/models"
	"github.com/lexserve/lexserve-backend/internal/services/payment"
	"github.com/lexserve/lexserve-backend/internal/storage"
)

// MockService реализует интерфейс verify.Service
type MockService struct {
	mock.Mock
}

func (m *MockService) Verify(ctx context.Context, principalUID string, req payment.VerifyRequest) (*models.Transaction, error) {
	args := m.Called(ctx, principalUID, req)
	if res := args.Get(0); res != nil {
		return res.(*models.Transaction), args.Error(1)
	}
	return nil, args.Error(1)
}

func TestVerifyHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	tests := []struct {
		name           string
		body           string
		withPrincipal  bool
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:          "успешная верификация платежа",
			body:          `{"transaction_ref":"ref-1","reason":"consultation","consultation_id":"6f1e1f7c-9c2b-4f89-b7a4-2f0f60cb0a11"}`,
			withPrincipal: true,
			setupMock: func(m *MockService) {
				m.On("Verify", mock.Anything, "user-1", mock.Anything).
					Return(&models.Transaction{ID: 7, TransactionRef: "ref-1", Amount: 200, Status: "paid"}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"transaction_ref":"ref-1"`,
		},
		{
			name:          "платёж не завершён",
			body:          `{"transaction_ref":"ref-2","reason":"subscription"}`,
			withPrincipal: true,
			setupMock: func(m *MockService) {
				m.On("Verify", mock.Anything, "user-1", mock.Anything).
					Return(nil, payment.ErrPaymentNotCompleted)
			},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `"error":"payment not completed"`,
		},
		{
			name:          "сумма не совпала с тарифом",
			body:          `{"transaction_ref":"ref-3","reason":"consultation","consultation_id":"6f1e1f7c-9c2b-4f89-b7a4-2f0f60cb0a11"}`,
			withPrincipal: true,
			setupMock: func(m *MockService) {
				m.On("Verify", mock.Anything, "user-1", mock.Anything).
					Return(nil, payment.ErrIncorrectAmount)
			},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `"error":"incorrect payment amount"`,
		},
		{
			name:          "повторная верификация того же референса",
			body:          `{"transaction_ref":"ref-4","reason":"subscription"}`,
			withPrincipal: true,
			setupMock: func(m *MockService) {
				m.On("Verify", mock.Anything, "user-1", mock.Anything).
					Return(nil, storage.ErrTransactionExists)
			},
			expectedStatus: http.StatusConflict,
			expectedBody:   `"error":"transaction already verified"`,
		},
		{
			name:           "отсутствует consultation_id при reason consultation",
			body:           `{"transaction_ref":"ref-5","reason":"consultation"}`,
			withPrincipal:  true,
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   `"error":"field ConsultationID is a required field"`,
		},
		{
			name:           "некорректный reason",
			body:           `{"transaction_ref":"ref-6","reason":"donation"}`,
			withPrincipal:  true,
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   `"status":"Error"`,
		},
		{
			name:           "нет принципала в контексте",
			body:           `{"transaction_ref":"ref-7","reason":"subscription"}`,
			withPrincipal:  false,
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `"error":"unauthorized"`,
		},
		{
			name:          "ошибка шлюза",
			body:          `{"transaction_ref":"ref-8","reason":"subscription"}`,
			withPrincipal: true,
			setupMock: func(m *MockService) {
				m.On("Verify", mock.Anything, "user-1", mock.Anything).
					Return(nil, errors.New("gateway unavailable"))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `"error":"failed to verify payment"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockService)
			tt.setupMock(mockService)

			handler := New(logger, mockService)

			req := httptest.NewRequest(http.MethodPost, "/payments/verify", strings.NewReader(tt.body))
			if tt.withPrincipal {
				ctx := middlewarectx.WithPrincipal(req.Context(), middlewarectx.Principal{
					UserUID:  "user-1",
					Username: "testuser",
					Role:     models.RoleUser,
				})
				req = req.WithContext(ctx)
			}
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.True(t, strings.Contains(w.Body.String(), tt.expectedBody),
				"response body should contain %s, got %s", tt.expectedBody, w.Body.String())

			mockService.AssertExpectations(t)
		})
	}
}
