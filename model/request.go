package model

import "github.com/shopspring/decimal"

// RegisterRequest defines the payload for creating a new user.
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Name     string `json:"name" validate:"required,min=1,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// LoginRequest defines the payload for user authentication.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// CreateAccountRequest defines the payload for provisioning a new account.
// The IBAN is minted server-side; callers only choose name, type and currency.
type CreateAccountRequest struct {
	Name     string      `json:"name" validate:"required,min=1,max=100"`
	Type     AccountType `json:"type" validate:"required,oneof=savings checking credit"`
	Currency Currency    `json:"currency" validate:"required,oneof=USD EUR PLN"`
}

// InternalTransferRequest moves funds between two IBANs of equal currency.
// The source account must belong to the authenticated requester; the
// destination may belong to anyone.
type InternalTransferRequest struct {
	FromIBAN string          `json:"from_iban" validate:"required"`
	ToIBAN   string          `json:"to_iban" validate:"required"`
	Amount   decimal.Decimal `json:"amount" validate:"required"`
}

// ExternalTransferRequest moves funds to a recipient addressed by descriptor
// (IBAN, user id or account id) rather than by a known destination IBAN.
type ExternalTransferRequest struct {
	FromIBAN      string          `json:"from_iban" validate:"required"`
	Amount        decimal.Decimal `json:"amount" validate:"required"`
	Recipient     Recipient       `json:"recipient" validate:"required"`
	RecipientName string          `json:"recipient_name"`
	Category      string          `json:"category" validate:"required"`
}
