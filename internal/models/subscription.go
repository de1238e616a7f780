package models

import "time"

// Виды тарифных планов.
const (
	PlanRecurring = "recurring"
	PlanOneTime   = "one_time"
)

// Статусы подписки. Переходы: pending -> active -> cancelled.
// Статус expired отдельно не выставляется: истечение определяется
// фильтром end_date > now при чтении.
const (
	SubscriptionPending   = "pending"
	SubscriptionActive    = "active"
	SubscriptionCancelled = "cancelled"
	// SubscriptionExpired выставляется только при чтении, в базу не пишется.
	SubscriptionExpired = "expired"
)

// SubscriptionPlan — тарифный план сервиса.
type SubscriptionPlan struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Kind          string  `json:"kind"` // recurring или one_time
	Price         float64 `json:"price"`
	DurationDays  int     `json:"duration_days"` // 0 — взять значение по умолчанию (30)
	Consultations int     `json:"consultations"` // лимит для one_time планов
	Description   string  `json:"description,omitempty"`
}

// UserSubscription связывает пользователя с планом.
//
// Вместо свободной metadata-карты состояние разового плана хранится
// типизированно: Usage заполняется только для kind = one_time.
type UserSubscription struct {
	ID        string        `json:"id"`
	UserUID   string        `json:"user_uid"`
	PlanID    string        `json:"plan_id"`
	Status    string        `json:"status"`
	StartDate time.Time     `json:"start_date"`
	EndDate   time.Time     `json:"end_date"`
	Usage     *OneTimeUsage `json:"usage,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
}

// OneTimeUsage — счётчик использования разового плана.
type OneTimeUsage struct {
	ConsultationsUsed  int `json:"consultations_used"`
	ConsultationsTotal int `json:"consultations_total"`
}
