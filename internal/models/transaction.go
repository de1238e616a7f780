package models

import "time"

// Причины платежа, допустимые при верификации.
const (
	PaymentReasonSubscription = "subscription"
	PaymentReasonConsultation = "consultation"
)

// Transaction — квитанция об успешно подтверждённом платеже.
// Запись неизменяема после создания: transaction_ref уникален на уровне базы.
type Transaction struct {
	ID             int64     `json:"id"`
	UserUID        string    `json:"user_uid"`
	TransactionRef string    `json:"transaction_ref"`
	Amount         float64   `json:"amount"`
	Status         string    `json:"status"`
	PaymentMethod  string    `json:"payment_method"`
	Reversed       bool      `json:"reversed"`
	Reason         string    `json:"reason"`
	CreatedAt      time.Time `json:"created_at"`
}
