package model

// RecipientKind discriminates how an external transfer addresses its
// destination.
type RecipientKind string

const (
	RecipientIBAN      RecipientKind = "iban"
	RecipientUserID    RecipientKind = "id"
	RecipientAccountID RecipientKind = "account"
)

// Recipient is the tagged descriptor resolved into a concrete destination
// account by the recipient resolver. The resolver switches exhaustively on
// Kind and rejects anything outside the three known variants.
type Recipient struct {
	Kind  RecipientKind `json:"type" validate:"required,oneof=iban id account"`
	Value string        `json:"value" validate:"required"`
}
