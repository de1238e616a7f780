package models

import (
	"fmt"
	"time"
)

// Статусы консультации. Переходы: pending -> paid -> completed,
// pending/paid -> cancelled.
const (
	ConsultationPending   = "pending"
	ConsultationPaid      = "paid"
	ConsultationCompleted = "completed"
	ConsultationCancelled = "cancelled"
)

// Типы звонка консультации.
const (
	CallTypeVideo = "video"
	CallTypeAudio = "audio"
)

// Consultation — запись о бронировании консультации юриста.
type Consultation struct {
	ID            string     `json:"id"`
	UserUID       string     `json:"user_uid"`
	CallType      string     `json:"call_type"` // video или audio
	Date          time.Time  `json:"date"`
	Time          string     `json:"time"` // слот в формате 15:04
	Topic         string     `json:"topic,omitempty"`
	Status        string     `json:"status"`
	PaymentStatus string     `json:"payment_status"`
	TransactionID *int64     `json:"transaction_id,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	CancelledAt   *time.Time `json:"cancelled_at,omitempty"`
}

// ConsultationPrice возвращает стоимость консультации по типу звонка.
// Таблица фиксированная: видео — 200, аудио — 100.
func ConsultationPrice(callType string) (float64, error) {
	switch callType {
	case CallTypeVideo:
		return 200, nil
	case CallTypeAudio:
		return 100, nil
	default:
		return 0, fmt.Errorf("unknown call type: %q", callType)
	}
}
