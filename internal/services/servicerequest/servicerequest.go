// Package servicerequest содержит логику заявок на юридические услуги:
// регистрация бизнеса, due diligence, защита интеллектуальной собственности.
package servicerequest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lexserve/lexserve-backend/internal/lib/rabbitmq"
	"github.com/lexserve/lexserve-backend/internal/lib/reference"
	"github.com/lexserve/lexserve-backend/internal/lib/sl"
	"github.com/lexserve/lexserve-backend/internal/models"
)

// ErrAccessDenied возвращается при попытке прочитать чужую заявку.
var ErrAccessDenied = errors.New("access denied")

// Лимит на размер одного вложения: файл хранится в записи заявки.
const MaxDocumentSize = 10 << 20 // 10 MiB

// ErrDocumentTooLarge возвращается, когда вложение превышает MaxDocumentSize.
var ErrDocumentTooLarge = fmt.Errorf("document exceeds %d bytes", MaxDocumentSize)

// Repository определяет методы хранилища для заявок.
type Repository interface {
	CreateServiceRequest(ctx context.Context, req models.ServiceRequest) (string, error)
	ReadServiceRequest(ctx context.Context, referenceNumber string) (*models.ServiceRequest, error)
	ListServiceRequests(ctx context.Context, userUID string, limit, offset int) ([]*models.ServiceRequest, error)
	UpdateServiceRequestStatus(ctx context.Context, referenceNumber, status string) (int, error)
	AddRequestNote(ctx context.Context, referenceNumber, author, text string) (int64, error)
	GetUserByUID(ctx context.Context, uid string) (*models.User, error)
}

// Publisher публикует события уведомлений.
type Publisher interface {
	Publish(routingKey string, message any) error
}

// StatusNotice — событие о смене статуса заявки.
type StatusNotice struct {
	Email           string `json:"email"`
	Username        string `json:"username"`
	ReferenceNumber string `json:"reference_number"`
	RequestType     string `json:"request_type"`
	Status          string `json:"status"`
}

// Service реализует операции над заявками.
type Service struct {
	repo      Repository
	publisher Publisher
	log       *slog.Logger
}

// New создает новый Service.
func New(repo Repository, publisher Publisher, log *slog.Logger) *Service {
	return &Service{repo: repo, publisher: publisher, log: log}
}

// Attachment — вложение при подаче заявки.
type Attachment struct {
	FileName    string
	ContentType string
	Data        []byte
}

// Submit создаёт заявку указанного типа. details — уже проверенная
// типизированная структура деталей, она сериализуется в JSON как есть.
// Возвращает присвоенный референс-номер.
func (s *Service) Submit(ctx context.Context, userUID, requestType string, details any, attachments []Attachment) (string, error) {
	const op = "services.servicerequest.Submit"

	for _, a := range attachments {
		if len(a.Data) > MaxDocumentSize {
			return "", ErrDocumentTooLarge
		}
	}

	detailsJSON, err := json.Marshal(details)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	req := models.ServiceRequest{
		ReferenceNumber: reference.NewRequestNumber(time.Now()),
		UserUID:         userUID,
		Type:            requestType,
		Status:          models.RequestSubmitted,
		PaymentStatus:   models.RequestUnpaid,
		Details:         detailsJSON,
	}
	for _, a := range attachments {
		req.Documents = append(req.Documents, models.RequestDocument{
			FileName:    a.FileName,
			ContentType: a.ContentType,
			Data:        a.Data,
		})
	}

	if _, err := s.repo.CreateServiceRequest(ctx, req); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("submitted service request",
		slog.String("reference_number", req.ReferenceNumber),
		slog.String("type", requestType))
	return req.ReferenceNumber, nil
}

// Read возвращает заявку по номеру. Обычный пользователь видит только
// свои заявки; роли со снятым ограничением передают asManager = true.
func (s *Service) Read(ctx context.Context, referenceNumber, userUID string, asManager bool) (*models.ServiceRequest, error) {
	req, err := s.repo.ReadServiceRequest(ctx, referenceNumber)
	if err != nil {
		return nil, err
	}
	if !asManager && req.UserUID != userUID {
		return nil, ErrAccessDenied
	}
	return req, nil
}

// List возвращает заявки пользователя.
func (s *Service) List(ctx context.Context, userUID string, limit, offset int) ([]*models.ServiceRequest, error) {
	return s.repo.ListServiceRequests(ctx, userUID, limit, offset)
}

// ListAll возвращает заявки всех пользователей (для администратора).
func (s *Service) ListAll(ctx context.Context, limit, offset int) ([]*models.ServiceRequest, error) {
	return s.repo.ListServiceRequests(ctx, "", limit, offset)
}

// UpdateStatus перезаписывает статус заявки и публикует уведомление
// владельцу. Возвращает количество изменённых строк.
func (s *Service) UpdateStatus(ctx context.Context, referenceNumber, status string) (int, error) {
	affected, err := s.repo.UpdateServiceRequestStatus(ctx, referenceNumber, status)
	if err != nil || affected == 0 {
		return affected, err
	}
	s.notifyStatus(ctx, referenceNumber, status)
	return affected, nil
}

// AddNote добавляет заметку сотрудника к заявке.
func (s *Service) AddNote(ctx context.Context, referenceNumber, author, text string) (int64, error) {
	return s.repo.AddRequestNote(ctx, referenceNumber, author, text)
}

// notifyStatus отправляет событие о смене статуса. Сбой публикации
// не отменяет уже применённое обновление.
func (s *Service) notifyStatus(ctx context.Context, referenceNumber, status string) {
	if s.publisher == nil {
		return
	}
	req, err := s.repo.ReadServiceRequest(ctx, referenceNumber)
	if err != nil {
		s.log.Warn("failed to read request for notice", sl.Err(err))
		return
	}
	user, err := s.repo.GetUserByUID(ctx, req.UserUID)
	if err != nil {
		s.log.Warn("failed to read user for notice", sl.Err(err))
		return
	}
	notice := StatusNotice{
		Email:           user.Email,
		Username:        user.Username,
		ReferenceNumber: referenceNumber,
		RequestType:     req.Type,
		Status:          status,
	}
	if err := s.publisher.Publish(rabbitmq.RoutingKeyRequestStatus, notice); err != nil {
		s.log.Warn("failed to publish status notice", sl.Err(err))
	}
}
