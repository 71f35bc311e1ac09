package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransferType tags a transaction-log row with the path that produced it.
type TransferType string

const (
	TransferTypeInternal TransferType = "internal_transfer"
	TransferTypeExternal TransferType = "external_transfer"
)

// Participant identifier kinds. They record how a counterparty was addressed
// in the original request, not what it resolved to.
const (
	ParticipantTypeIBAN = "iban"
	ParticipantTypeID   = "id"
)

// Transaction is one side of a completed transfer. Every committed transfer
// appends exactly two rows sharing Amount and Date: the sender side with
// IsSent=true and the receiver side with IsSent=false. Rows are append-only
// and never updated or deleted.
type Transaction struct {
	ID          int             `json:"id"`
	AccountIBAN string          `json:"account_iban"`
	IsSent      bool            `json:"is_sent"`
	Sender      string          `json:"sender"`
	SenderName  string          `json:"sender_name,omitempty"`
	SenderType  string          `json:"sender_type,omitempty"`
	Receiver    string          `json:"receiver"`
	// ReceiverName preserves the display name the transfer was addressed
	// with; ReceiverType records whether Receiver is an IBAN or a user id.
	ReceiverName string          `json:"receiver_name,omitempty"`
	ReceiverType string          `json:"receiver_type,omitempty"`
	Amount       decimal.Decimal `json:"amount"`
	Currency     Currency        `json:"currency"`
	Date         time.Time       `json:"date"`
	Type         TransferType    `json:"type"`
	Category     string          `json:"category,omitempty"`
}
