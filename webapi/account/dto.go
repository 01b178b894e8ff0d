package account

// DepositRequest is the body for deposit operations.
type DepositRequest struct {
	Amount float64 `json:"amount" validate:"required"`
}

// WithdrawRequest is the body for withdraw operations.
type WithdrawRequest struct {
	Amount float64 `json:"amount" validate:"required"`
}

// TransferRequest is the body for transfers to another card.
type TransferRequest struct {
	ToCardNumber string  `json:"toCardNumber" validate:"required"`
	Amount       float64 `json:"amount" validate:"required"`
}
