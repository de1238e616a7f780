package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/lexserve/lexserve-backend/internal/migrations"
)

// setupTestDatabase поднимает PostgreSQL в контейнере, применяет миграции
// и возвращает готовое хранилище вместе с функцией очистки.
func setupTestDatabase(t *testing.T) (*Storage, func()) {
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("lexserve_test"),
		postgres.WithUsername("test_user"),
		postgres.WithPassword("test_password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(5*time.Second),
		),
	)
	require.NoError(t, err)

	host, err := pgContainer.Host(ctx)
	require.NoError(t, err)
	port, err := pgContainer.MappedPort(ctx, nat.Port("5432/tcp"))
	require.NoError(t, err)

	dsn := fmt.Sprintf("postgres://test_user:test_password@%s:%s/lexserve_test?sslmode=disable",
		host, port.Port())

	store, err := New(dsn)
	require.NoError(t, err)

	migrationsPath, err := filepath.Abs(filepath.Join("..", "..", "migrations"))
	require.NoError(t, err)
	require.NoError(t, migrations.Run(store.DB, migrationsPath))

	cleanup := func() {
		_ = store.DB.Close()
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	}

	return store, cleanup
}

// TestDataFactory содержит методы для создания тестовых данных
type TestDataFactory struct {
	storage *Storage
}

// NewTestDataFactory создает новую фабрику тестовых данных
func NewTestDataFactory(storage *Storage) *TestDataFactory {
	return &TestDataFactory{storage: storage}
}

// CreateUser создает тестового пользователя и возвращает его uid.
func (f *TestDataFactory) CreateUser(t *testing.T, username, email string) string {
	var uid string
	err := f.storage.DB.QueryRow(`INSERT INTO users (email, username, password_hash, role)
		VALUES ($1, $2, 'hashedpassword', 'user')
		RETURNING uid`, email, username).Scan(&uid)
	require.NoError(t, err)
	return uid
}

// CreateConsultation создает тестовую консультацию и возвращает ее id.
func (f *TestDataFactory) CreateConsultation(t *testing.T, userUID, callType string, date time.Time) string {
	var id string
	err := f.storage.DB.QueryRow(`INSERT INTO consultations (user_uid, call_type, date, time_slot, topic)
		VALUES ($1, $2, $3, '10:00', 'contract review')
		RETURNING id`, userUID, callType, date).Scan(&id)
	require.NoError(t, err)
	return id
}

// CreateSubscription создает тестовую подписку и возвращает ее id.
func (f *TestDataFactory) CreateSubscription(t *testing.T, userUID, planID, status string, endDate time.Time) string {
	var id string
	err := f.storage.DB.QueryRow(`INSERT INTO user_subscriptions (user_uid, plan_id, status, end_date)
		VALUES ($1, $2, $3, $4)
		RETURNING id`, userUID, planID, status, endDate).Scan(&id)
	require.NoError(t, err)
	return id
}
