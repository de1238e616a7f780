// Package sender отправляет письма по событиям из очередей уведомлений.
package sender

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/lexserve/lexserve-backend/internal/lib/sl"
	"github.com/lexserve/lexserve-backend/internal/lib/smtp"
	"github.com/lexserve/lexserve-backend/internal/services/payment"
	"github.com/lexserve/lexserve-backend/internal/services/servicerequest"
)

// SenderService превращает события очередей в письма пользователям.
type SenderService struct {
	transport smtp.TransportInterface
	log       *slog.Logger
}

// NewSenderService создает новый экземпляр SenderService.
func NewSenderService(transport smtp.TransportInterface, log *slog.Logger) *SenderService {
	return &SenderService{
		transport: transport,
		log:       log,
	}
}

// SendReceipt отправляет письмо-квитанцию о подтверждённом платеже.
func (s *SenderService) SendReceipt(body []byte) error {
	var message payment.ReceiptNotice
	if err := json.Unmarshal(body, &message); err != nil {
		s.log.Error("failed to unmarshal receipt notice", sl.Err(err))
		return fmt.Errorf("error unmarshalling message: %w", err)
	}

	to := []string{message.Email}
	subject := "Payment receipt"
	bodyText := fmt.Sprintf("Hello, %s!\n\nWe confirmed your payment.\n\nReference: %s\nAmount: %.2f\nPurpose: %s\n\nThank you for using our service.",
		message.Username, message.TransactionRef, message.Amount, message.Reason)

	return s.sendEmail(to, subject, bodyText)
}

// SendRequestStatus отправляет письмо о смене статуса заявки.
func (s *SenderService) SendRequestStatus(body []byte) error {
	var message servicerequest.StatusNotice
	if err := json.Unmarshal(body, &message); err != nil {
		s.log.Error("failed to unmarshal status notice", sl.Err(err))
		return fmt.Errorf("error unmarshalling message: %w", err)
	}

	to := []string{message.Email}
	subject := fmt.Sprintf("Request %s: status update", message.ReferenceNumber)
	bodyText := fmt.Sprintf("Hello, %s!\n\nThe status of your %s request %s has changed to: %s.\n\nYou can review the details in your account.",
		message.Username, message.RequestType, message.ReferenceNumber, message.Status)

	return s.sendEmail(to, subject, bodyText)
}

func (s *SenderService) sendEmail(to []string, subject, bodyText string) error {
	msg := strings.Join([]string{
		"From: " + s.transport.GetSMTPUser(),
		"To: " + strings.Join(to, ";"),
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
		"",
		bodyText,
	}, "\r\n")

	client, err := s.transport.Connect()
	if err != nil {
		s.log.Error("failed to connect to SMTP server", sl.Err(err))
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	if err := client.Mail(s.transport.GetSMTPUser()); err != nil {
		s.log.Error("failed to set MAIL FROM", slog.String("from", s.transport.GetSMTPUser()), sl.Err(err))
		return err
	}

	for _, addr := range to {
		if err := client.Rcpt(addr); err != nil {
			s.log.Error("failed to set RCPT TO", slog.String("recipient", addr), sl.Err(err))
			return err
		}
	}

	wc, err := client.Data()
	if err != nil {
		s.log.Error("failed to get data writer", sl.Err(err))
		return err
	}

	if _, err = wc.Write([]byte(msg)); err != nil {
		s.log.Error("failed to write email body", sl.Err(err))
		return err
	}
	if err = wc.Close(); err != nil {
		s.log.Error("failed to close data writer", sl.Err(err))
		return err
	}
	if err = client.Quit(); err != nil {
		s.log.Error("failed to quit SMTP client", sl.Err(err))
		return err
	}

	s.log.Info("email sent", slog.Any("to", to), slog.String("subject", subject))
	return nil
}
