package storage

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexserve/lexserve-backend/internal/models"
)

func TestStorage_Users(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	ctx := context.Background()

	uid, err := storage.RegisterUser(ctx, models.User{
		Email:        "test@example.com",
		Username:     "testuser",
		PasswordHash: "hashedpassword",
		Role:         models.RoleUser,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, uid)

	t.Run("duplicate username returns ErrUserExists", func(t *testing.T) {
		_, err := storage.RegisterUser(ctx, models.User{
			Email:        "other@example.com",
			Username:     "testuser",
			PasswordHash: "hashedpassword",
			Role:         models.RoleUser,
		})
		require.ErrorIs(t, err, ErrUserExists)
	})

	t.Run("duplicate email returns ErrUserExists", func(t *testing.T) {
		_, err := storage.RegisterUser(ctx, models.User{
			Email:        "test@example.com",
			Username:     "otheruser",
			PasswordHash: "hashedpassword",
			Role:         models.RoleUser,
		})
		require.ErrorIs(t, err, ErrUserExists)
	})

	t.Run("get user by username", func(t *testing.T) {
		user, err := storage.GetUserByUsername(ctx, "testuser")
		require.NoError(t, err)
		assert.Equal(t, uid, user.UID)
		assert.Equal(t, "test@example.com", user.Email)
		assert.Equal(t, models.RoleUser, user.Role)
	})

	t.Run("get user by uid", func(t *testing.T) {
		user, err := storage.GetUserByUID(ctx, uid)
		require.NoError(t, err)
		assert.Equal(t, "testuser", user.Username)
	})

	t.Run("unknown username returns ErrNotFound", func(t *testing.T) {
		_, err := storage.GetUserByUsername(ctx, "nonexistent")
		require.ErrorIs(t, err, ErrNotFound)
	})
}

func TestStorage_Transactions(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	ctx := context.Background()
	factory := NewTestDataFactory(storage)
	userUID := factory.CreateUser(t, "payer", "payer@example.com")

	id, err := storage.CreateTransaction(ctx, models.Transaction{
		UserUID:        userUID,
		TransactionRef: "ref-001",
		Amount:         200,
		Status:         "paid",
		PaymentMethod:  "card",
		Reason:         models.PaymentReasonConsultation,
	})
	require.NoError(t, err)
	assert.Positive(t, id)

	t.Run("duplicate transaction_ref returns ErrTransactionExists", func(t *testing.T) {
		_, err := storage.CreateTransaction(ctx, models.Transaction{
			UserUID:        userUID,
			TransactionRef: "ref-001",
			Amount:         200,
			Status:         "paid",
			Reason:         models.PaymentReasonConsultation,
		})
		require.ErrorIs(t, err, ErrTransactionExists)
	})

	t.Run("list transactions for user", func(t *testing.T) {
		got, err := storage.ListTransactions(ctx, userUID, 10, 0)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "ref-001", got[0].TransactionRef)
		assert.Equal(t, float64(200), got[0].Amount)
		assert.False(t, got[0].Reversed)
	})

	t.Run("list transactions for another user is empty", func(t *testing.T) {
		otherUID := factory.CreateUser(t, "other", "other@example.com")
		got, err := storage.ListTransactions(ctx, otherUID, 10, 0)
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}

func TestStorage_Consultations(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	ctx := context.Background()
	factory := NewTestDataFactory(storage)
	userUID := factory.CreateUser(t, "client", "client@example.com")
	date := time.Now().AddDate(0, 0, 7)

	id, err := storage.CreateConsultation(ctx, models.Consultation{
		UserUID:       userUID,
		CallType:      models.CallTypeVideo,
		Date:          date,
		Time:          "14:00",
		Topic:         "company incorporation",
		Status:        models.ConsultationPending,
		PaymentStatus: "unpaid",
	})
	require.NoError(t, err)

	t.Run("read consultation", func(t *testing.T) {
		got, err := storage.ReadConsultation(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, userUID, got.UserUID)
		assert.Equal(t, models.CallTypeVideo, got.CallType)
		assert.Equal(t, "14:00", got.Time)
		assert.Equal(t, models.ConsultationPending, got.Status)
		assert.Nil(t, got.TransactionID)
		assert.Nil(t, got.CancelledAt)
	})

	t.Run("unknown consultation returns ErrNotFound", func(t *testing.T) {
		_, err := storage.ReadConsultation(ctx, uuid.New().String())
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("mark consultation paid", func(t *testing.T) {
		txID, err := storage.CreateTransaction(ctx, models.Transaction{
			UserUID:        userUID,
			TransactionRef: "ref-cons-1",
			Amount:         200,
			Status:         "paid",
			Reason:         models.PaymentReasonConsultation,
		})
		require.NoError(t, err)

		affected, err := storage.MarkConsultationPaid(ctx, id, txID)
		require.NoError(t, err)
		assert.Equal(t, 1, affected)

		got, err := storage.ReadConsultation(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, models.ConsultationPaid, got.Status)
		assert.Equal(t, models.ConsultationPaid, got.PaymentStatus)
		require.NotNil(t, got.TransactionID)
		assert.Equal(t, txID, *got.TransactionID)
	})

	t.Run("cancel of foreign consultation changes nothing", func(t *testing.T) {
		otherUID := factory.CreateUser(t, "stranger", "stranger@example.com")
		affected, err := storage.CancelConsultation(ctx, id, otherUID)
		require.NoError(t, err)
		assert.Equal(t, 0, affected)
	})

	t.Run("cancel own consultation", func(t *testing.T) {
		affected, err := storage.CancelConsultation(ctx, id, userUID)
		require.NoError(t, err)
		assert.Equal(t, 1, affected)

		got, err := storage.ReadConsultation(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, models.ConsultationCancelled, got.Status)
		assert.NotNil(t, got.CancelledAt)

		// Повторная отмена уже невозможна.
		affected, err = storage.CancelConsultation(ctx, id, userUID)
		require.NoError(t, err)
		assert.Equal(t, 0, affected)
	})

	t.Run("list consultations with pagination", func(t *testing.T) {
		second := factory.CreateConsultation(t, userUID, models.CallTypeAudio, date)
		_ = second

		got, err := storage.ListConsultations(ctx, userUID, 10, 0)
		require.NoError(t, err)
		assert.Len(t, got, 2)

		got, err = storage.ListConsultations(ctx, userUID, 1, 0)
		require.NoError(t, err)
		assert.Len(t, got, 1)

		all, err := storage.ListAllConsultations(ctx, 10, 0)
		require.NoError(t, err)
		assert.Len(t, all, 2)
	})
}

func TestStorage_Subscriptions(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	ctx := context.Background()
	factory := NewTestDataFactory(storage)
	userUID := factory.CreateUser(t, "subscriber", "subscriber@example.com")

	t.Run("seeded plans are available", func(t *testing.T) {
		plans, err := storage.ListPlans(ctx)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, len(plans), 4)

		plan, err := storage.GetPlan(ctx, "basic-monthly")
		require.NoError(t, err)
		assert.Equal(t, models.PlanRecurring, plan.Kind)

		_, err = storage.GetPlan(ctx, "nonexistent-plan")
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("pending subscription lifecycle", func(t *testing.T) {
		id, err := storage.CreateSubscription(ctx, models.UserSubscription{
			UserUID:   userUID,
			PlanID:    "basic-monthly",
			Status:    models.SubscriptionPending,
			StartDate: time.Now(),
			EndDate:   time.Now().AddDate(0, 0, 30),
		})
		require.NoError(t, err)

		pending, err := storage.GetLatestPendingSubscription(ctx, userUID)
		require.NoError(t, err)
		assert.Equal(t, id, pending.ID)
		assert.Nil(t, pending.Usage)

		// Пока подписка не активирована, действующей нет.
		_, err = storage.GetActiveSubscription(ctx, userUID)
		require.ErrorIs(t, err, ErrNotFound)

		affected, err := storage.ActivateSubscription(ctx, id, time.Now().AddDate(0, 0, 30))
		require.NoError(t, err)
		assert.Equal(t, 1, affected)

		active, err := storage.GetActiveSubscription(ctx, userUID)
		require.NoError(t, err)
		assert.Equal(t, id, active.ID)
		assert.Equal(t, models.SubscriptionActive, active.Status)

		// Повторная активация не срабатывает: подписка уже не pending.
		affected, err = storage.ActivateSubscription(ctx, id, time.Now().AddDate(0, 0, 30))
		require.NoError(t, err)
		assert.Equal(t, 0, affected)

		affected, err = storage.CancelSubscription(ctx, userUID)
		require.NoError(t, err)
		assert.Equal(t, 1, affected)

		_, err = storage.GetActiveSubscription(ctx, userUID)
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("active row with past end_date is still returned", func(t *testing.T) {
		expiredUID := factory.CreateUser(t, "expired", "expired@example.com")
		factory.CreateSubscription(t, expiredUID, "basic-monthly", models.SubscriptionActive,
			time.Now().AddDate(0, 0, -1))

		// Истечение срока не фильтруется в запросе: сервис сам
		// помечает такую запись как expired при чтении.
		sub, err := storage.GetActiveSubscription(ctx, expiredUID)
		require.NoError(t, err)
		assert.Equal(t, models.SubscriptionActive, sub.Status)
		assert.True(t, sub.EndDate.Before(time.Now()))
	})

	t.Run("one time usage counter stops at the limit", func(t *testing.T) {
		oneTimeUID := factory.CreateUser(t, "onetime", "onetime@example.com")
		id, err := storage.CreateSubscription(ctx, models.UserSubscription{
			UserUID:   oneTimeUID,
			PlanID:    "consult-single",
			Status:    models.SubscriptionActive,
			StartDate: time.Now(),
			EndDate:   time.Now().AddDate(0, 0, 30),
			Usage:     &models.OneTimeUsage{ConsultationsUsed: 0, ConsultationsTotal: 1},
		})
		require.NoError(t, err)

		affected, err := storage.ConsumeConsultationUsage(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, 1, affected)

		// Лимит исчерпан, счетчик дальше не растет.
		affected, err = storage.ConsumeConsultationUsage(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, 0, affected)

		active, err := storage.GetActiveSubscription(ctx, oneTimeUID)
		require.NoError(t, err)
		require.NotNil(t, active.Usage)
		assert.Equal(t, 1, active.Usage.ConsultationsUsed)
		assert.Equal(t, 1, active.Usage.ConsultationsTotal)
	})
}

func TestStorage_ServiceRequests(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	ctx := context.Background()
	factory := NewTestDataFactory(storage)
	userUID := factory.CreateUser(t, "founder", "founder@example.com")

	id, err := storage.CreateServiceRequest(ctx, models.ServiceRequest{
		ReferenceNumber: "SR-20260831-ABC123",
		UserUID:         userUID,
		Type:            models.RequestBusinessRegistration,
		Status:          models.RequestSubmitted,
		PaymentStatus:   models.RequestUnpaid,
		Details:         []byte(`{"company_name": "Acme Ltd", "business_type": "llc"}`),
		Documents: []models.RequestDocument{
			{FileName: "passport.pdf", ContentType: "application/pdf", Data: []byte("pdf-bytes")},
			{FileName: "utility-bill.pdf", ContentType: "application/pdf", Data: []byte("more-bytes")},
		},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	t.Run("read request with documents and notes", func(t *testing.T) {
		got, err := storage.ReadServiceRequest(ctx, "SR-20260831-ABC123")
		require.NoError(t, err)
		assert.Equal(t, id, got.ID)
		assert.Equal(t, models.RequestBusinessRegistration, got.Type)
		assert.Equal(t, models.RequestSubmitted, got.Status)
		assert.JSONEq(t, `{"company_name": "Acme Ltd", "business_type": "llc"}`, string(got.Details))

		require.Len(t, got.Documents, 2)
		assert.Equal(t, "passport.pdf", got.Documents[0].FileName)
		// Содержимое файлов при чтении заявки не выгружается.
		assert.Empty(t, got.Documents[0].Data)
		assert.Empty(t, got.Notes)
	})

	t.Run("unknown reference returns ErrNotFound", func(t *testing.T) {
		_, err := storage.ReadServiceRequest(ctx, "SR-00000000-XXXXXX")
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("update status", func(t *testing.T) {
		affected, err := storage.UpdateServiceRequestStatus(ctx, "SR-20260831-ABC123", models.RequestInReview)
		require.NoError(t, err)
		assert.Equal(t, 1, affected)

		got, err := storage.ReadServiceRequest(ctx, "SR-20260831-ABC123")
		require.NoError(t, err)
		assert.Equal(t, models.RequestInReview, got.Status)
		assert.True(t, got.UpdatedAt.After(got.CreatedAt))

		affected, err = storage.UpdateServiceRequestStatus(ctx, "SR-00000000-XXXXXX", models.RequestInReview)
		require.NoError(t, err)
		assert.Equal(t, 0, affected)
	})

	t.Run("add note", func(t *testing.T) {
		noteID, err := storage.AddRequestNote(ctx, "SR-20260831-ABC123", "staff_anna", "documents verified")
		require.NoError(t, err)
		assert.Positive(t, noteID)

		got, err := storage.ReadServiceRequest(ctx, "SR-20260831-ABC123")
		require.NoError(t, err)
		require.Len(t, got.Notes, 1)
		assert.Equal(t, "staff_anna", got.Notes[0].Author)
		assert.Equal(t, "documents verified", got.Notes[0].Text)
	})

	t.Run("add note to unknown reference returns ErrNotFound", func(t *testing.T) {
		_, err := storage.AddRequestNote(ctx, "SR-00000000-XXXXXX", "staff_anna", "lost")
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("list requests for user and for manager", func(t *testing.T) {
		otherUID := factory.CreateUser(t, "otherfounder", "otherfounder@example.com")
		_, err := storage.CreateServiceRequest(ctx, models.ServiceRequest{
			ReferenceNumber: "SR-20260831-DEF456",
			UserUID:         otherUID,
			Type:            models.RequestDueDiligence,
			Status:          models.RequestSubmitted,
			PaymentStatus:   models.RequestUnpaid,
			Details:         []byte(`{"subject_name": "Target Ltd", "subject_type": "company"}`),
		})
		require.NoError(t, err)

		own, err := storage.ListServiceRequests(ctx, userUID, 10, 0)
		require.NoError(t, err)
		assert.Len(t, own, 1)

		// Пустой userUID — выборка по всем пользователям.
		all, err := storage.ListServiceRequests(ctx, "", 10, 0)
		require.NoError(t, err)
		assert.Len(t, all, 2)
	})
}

func TestStorage_ChatMessages(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	ctx := context.Background()
	chatID := uuid.New().String()

	for _, content := range []string{"first", "second", "third"} {
		role := models.ChatRoleUser
		if content == "second" {
			role = models.ChatRoleAssistant
		}
		_, err := storage.AppendChatMessage(ctx, models.ChatMessage{
			ChatID:  chatID,
			UserUID: "uid-1",
			Role:    role,
			Content: content,
		})
		require.NoError(t, err)
	}

	t.Run("list returns messages in append order", func(t *testing.T) {
		got, err := storage.ListChatMessages(ctx, chatID, 10)
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.Equal(t, "first", got[0].Content)
		assert.Equal(t, "third", got[2].Content)
	})

	t.Run("limit keeps the tail of the dialog", func(t *testing.T) {
		got, err := storage.ListChatMessages(ctx, chatID, 2)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "second", got[0].Content)
		assert.Equal(t, "third", got[1].Content)
	})

	t.Run("unknown chat is empty", func(t *testing.T) {
		got, err := storage.ListChatMessages(ctx, uuid.New().String(), 10)
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}

func TestStorage_DocumentAnalyses(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	ctx := context.Background()
	factory := NewTestDataFactory(storage)
	userUID := factory.CreateUser(t, "analyst", "analyst@example.com")

	analysisID := uuid.New().String()
	err := storage.CreateDocumentAnalysis(ctx, models.DocumentAnalysis{
		ID:       analysisID,
		UserUID:  userUID,
		FileName: "contract.docx",
		Text:     "This agreement is made between the parties.",
		Analysis: models.AnalysisResult{
			Score:        85,
			DocumentType: "Service Agreement",
			Summary:      "Solid agreement with minor gaps.",
			Strengths:    []string{"Clear payment terms"},
			Weaknesses:   []string{"No dispute resolution clause"},
			RiskLevel:    "low",
		},
	})
	require.NoError(t, err)

	t.Run("read analysis by owner", func(t *testing.T) {
		got, err := storage.ReadDocumentAnalysis(ctx, analysisID, userUID)
		require.NoError(t, err)
		assert.Equal(t, "contract.docx", got.FileName)
		assert.Equal(t, 85, got.Analysis.Score)
		assert.Equal(t, "low", got.Analysis.RiskLevel)
		assert.False(t, got.Degraded)
	})

	t.Run("foreign user cannot read analysis", func(t *testing.T) {
		otherUID := factory.CreateUser(t, "outsider", "outsider@example.com")
		_, err := storage.ReadDocumentAnalysis(ctx, analysisID, otherUID)
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("list analyses omits document text", func(t *testing.T) {
		got, err := storage.ListDocumentAnalyses(ctx, userUID, 10, 0)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, analysisID, got[0].ID)
		assert.Empty(t, got[0].Text)
	})
}
