package vpay

// loginResponse — ответ шлюза на вход мерчанта.
type loginResponse struct {
	Token string `json:"token"`
}

// verifyRequest — тело запроса подтверждения транзакции.
type verifyRequest struct {
	TransactionRef string `json:"transactionRef"`
}

// verifyResponse — ответ шлюза на запрос транзакции.
type verifyResponse struct {
	Data VerifyData `json:"data"`
}

// VerifyData — сведения о транзакции, возвращаемые шлюзом.
type VerifyData struct {
	PaymentStatus string  `json:"paymentstatus"`
	OrderAmount   float64 `json:"orderamount"`
	PaymentMethod string  `json:"paymentmethod"`
	Reversed      bool    `json:"reversed"`
}

// Paid сообщает, подтверждена ли оплата шлюзом.
func (d VerifyData) Paid() bool {
	return d.PaymentStatus == "paid"
}
