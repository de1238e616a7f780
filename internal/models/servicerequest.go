package models

import "time"

// Типы заявок на услуги.
const (
	RequestBusinessRegistration = "business_registration"
	RequestDueDiligence         = "due_diligence"
	RequestIPProtection         = "ip_protection"
)

// Статусы заявки. Администратор перезаписывает статус напрямую,
// проверки допустимости перехода нет.
const (
	RequestSubmitted  = "submitted"
	RequestInReview   = "in_review"
	RequestInProgress = "in_progress"
	RequestCompleted  = "completed"
	RequestRejected   = "rejected"
)

// Статусы оплаты заявки.
const (
	RequestUnpaid = "unpaid"
	RequestPaid   = "paid"
)

// ServiceRequest — общий конверт заявки: регистрация бизнеса,
// due diligence или защита интеллектуальной собственности.
// Детали хранятся как JSON, вложения и заметки — отдельными записями.
type ServiceRequest struct {
	ID              string            `json:"id"`
	ReferenceNumber string            `json:"reference_number"`
	UserUID         string            `json:"user_uid"`
	Type            string            `json:"type"`
	Status          string            `json:"status"`
	PaymentStatus   string            `json:"payment_status"`
	Details         []byte            `json:"-"`
	Documents       []RequestDocument `json:"documents,omitempty"`
	Notes           []RequestNote     `json:"notes,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

// RequestDocument — вложение заявки. Содержимое файла хранится
// прямо в записи, внешнего blob-хранилища нет.
type RequestDocument struct {
	ID          int64     `json:"id"`
	RequestID   string    `json:"request_id"`
	FileName    string    `json:"file_name"`
	ContentType string    `json:"content_type"`
	Data        []byte    `json:"-"`
	UploadedAt  time.Time `json:"uploaded_at"`
}

// RequestNote — заметка сотрудника по заявке.
type RequestNote struct {
	ID        int64     `json:"id"`
	RequestID string    `json:"request_id"`
	Author    string    `json:"author"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// BusinessRegistrationDetails — данные для регистрации компании.
type BusinessRegistrationDetails struct {
	CompanyName      string        `json:"company_name" validate:"required,min=2,max=200"`
	BusinessType     string        `json:"business_type" validate:"required"`
	Address          Address       `json:"address" validate:"required"`
	Directors        []Person      `json:"directors" validate:"required,min=1,dive"`
	Shareholders     []Shareholder `json:"shareholders" validate:"required,min=1,dive"`
	ShareCapital     float64       `json:"share_capital" validate:"required,gt=0"`
	NatureOfBusiness string        `json:"nature_of_business" validate:"required"`
}

// DueDiligenceDetails — данные для проверки контрагента.
type DueDiligenceDetails struct {
	SubjectName    string `json:"subject_name" validate:"required,min=2,max=200"`
	SubjectType    string `json:"subject_type" validate:"required,oneof=company individual"`
	RCNumber       string `json:"rc_number,omitempty"`
	Scope          string `json:"scope" validate:"required"`
	AdditionalInfo string `json:"additional_info,omitempty"`
}

// IPProtectionDetails — данные для регистрации товарного знака или патента.
type IPProtectionDetails struct {
	AssetName   string `json:"asset_name" validate:"required,min=2,max=200"`
	AssetType   string `json:"asset_type" validate:"required,oneof=trademark patent copyright"`
	Description string `json:"description" validate:"required"`
	OwnerName   string `json:"owner_name" validate:"required"`
}

// Address — почтовый адрес в составе заявки.
type Address struct {
	Street  string `json:"street" validate:"required"`
	City    string `json:"city" validate:"required"`
	State   string `json:"state" validate:"required"`
	Country string `json:"country" validate:"required"`
}

// Person — директор или контактное лицо.
type Person struct {
	FullName string `json:"full_name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone" validate:"required"`
}

// Shareholder — акционер с долей в процентах.
type Shareholder struct {
	FullName string  `json:"full_name" validate:"required"`
	Share    float64 `json:"share" validate:"required,gt=0,lte=100"`
}
