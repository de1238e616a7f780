// Package storage реализует хранилище данных на основе PostgreSQL.
// Предоставляет методы создания, чтения и обновления записей о пользователях,
// консультациях, платежах, заявках, подписках и результатах анализа документов.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	// Регистрация драйвера pgx для использования с database/sql.
	_ "github.com/jackc/pgx/v5/stdlib"
)

// Сигнальные ошибки хранилища. Обработчики переводят их в HTTP-статусы.
var (
	// ErrNotFound — запись не найдена.
	ErrNotFound = errors.New("record not found")
	// ErrTransactionExists — платёж с таким transaction_ref уже сохранён.
	ErrTransactionExists = errors.New("transaction already exists")
	// ErrUserExists — пользователь с таким email или username уже есть.
	ErrUserExists = errors.New("user already exists")
)

// Storage инкапсулирует соединение с базой данных PostgreSQL.
type Storage struct {
	DB *sql.DB
}

// New создаёт подключение к PostgreSQL и проверяет его доступность.
func New(storageConnectionString string) (*Storage, error) {
	const op = "storage.New"

	db, err := sql.Open("pgx", storageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = db.PingContext(context.Background()); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{
		DB: db,
	}, nil
}

// isUniqueViolation распознаёт нарушение уникального индекса (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
