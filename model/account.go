package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Currency is the fixed set of currencies an account can be denominated in.
type Currency string

const (
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
	CurrencyPLN Currency = "PLN"
)

// CountryCode returns the IBAN country prefix used when minting account
// numbers for this currency.
func (c Currency) CountryCode() string {
	switch c {
	case CurrencyUSD:
		return "US"
	case CurrencyEUR:
		return "DE"
	case CurrencyPLN:
		return "PL"
	}
	return ""
}

// IsValid reports whether c is one of the supported currencies.
func (c Currency) IsValid() bool {
	switch c {
	case CurrencyUSD, CurrencyEUR, CurrencyPLN:
		return true
	}
	return false
}

// AccountType classifies an account. The recipient resolver prefers savings
// accounts when a transfer is addressed by user rather than by IBAN.
type AccountType string

const (
	AccountTypeSavings  AccountType = "savings"
	AccountTypeChecking AccountType = "checking"
	AccountTypeCredit   AccountType = "credit"
)

// Account is a ledger record. The IBAN is immutable once assigned and is the
// externally-facing handle; the numeric balance is stored as an exact decimal
// so minor-unit amounts never pick up rounding error.
//
// OwnerName is a snapshot of the owner's display name taken at creation time.
// It is deliberately not re-synced if the user later renames themself.
type Account struct {
	ID        string          `json:"id"`
	IBAN      string          `json:"iban"`
	OwnerID   string          `json:"owner_id"`
	OwnerName string          `json:"owner_name"`
	Name      string          `json:"name"`
	Balance   decimal.Decimal `json:"balance"`
	Currency  Currency        `json:"currency"`
	Type      AccountType     `json:"type"`
	CreatedAt time.Time       `json:"created_at"`
}

// Snapshot is the post-transfer view of one account returned to callers.
type Snapshot struct {
	IBAN     string          `json:"iban"`
	Balance  decimal.Decimal `json:"balance"`
	Currency Currency        `json:"currency"`
}

// Snapshot returns the account's current {iban, balance, currency} view.
func (a *Account) Snapshot() Snapshot {
	return Snapshot{IBAN: a.IBAN, Balance: a.Balance, Currency: a.Currency}
}

// TransferResult carries the updated snapshots of both sides of a committed
// transfer back to the caller.
type TransferResult struct {
	From Snapshot `json:"from"`
	To   Snapshot `json:"to"`
}
