package repository

import (
	"database/sql"
	"webbank/logger"
	"webbank/model"

	"github.com/sirupsen/logrus"
)

// ITransactionRepository defines the contract for the append-only transfer
// log. Rows are written once inside a transfer's atomic unit and never
// updated or deleted afterwards.
type ITransactionRepository interface {
	CreateTransaction(q Querier, transaction *model.Transaction) error
	ListByAccountIBAN(iban string) ([]*model.Transaction, error)
}

// TransactionRepository implements ITransactionRepository.
type TransactionRepository struct {
	DB *sql.DB
}

func NewTransactionRepository(db *sql.DB) *TransactionRepository {
	return &TransactionRepository{DB: db}
}

func (r *TransactionRepository) CreateTransaction(q Querier, transaction *model.Transaction) error {
	log := logger.Log.WithFields(logrus.Fields{
		"account_iban": transaction.AccountIBAN,
		"is_sent":      transaction.IsSent,
		"amount":       transaction.Amount,
		"type":         transaction.Type,
	})
	log.Info("Executing query to create a new transaction record")

	query := `INSERT INTO transactions
		(account_iban, is_sent, sender, sender_name, sender_type, receiver, receiver_name, receiver_type, amount, currency, date, type, category)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id`
	err := q.QueryRow(query,
		transaction.AccountIBAN, transaction.IsSent,
		transaction.Sender, transaction.SenderName, transaction.SenderType,
		transaction.Receiver, transaction.ReceiverName, transaction.ReceiverType,
		transaction.Amount, transaction.Currency, transaction.Date,
		transaction.Type, transaction.Category).Scan(&transaction.ID)
	if err != nil {
		log.WithError(err).Error("Failed to execute create transaction query")
		return err
	}
	return nil
}

// ListByAccountIBAN retrieves the transaction history of one account, newest
// first.
func (r *TransactionRepository) ListByAccountIBAN(iban string) ([]*model.Transaction, error) {
	log := logger.Log.WithField("account_iban", iban)
	log.Info("Executing query to get transactions by account IBAN")

	query := `
		SELECT id, account_iban, is_sent, sender, sender_name, sender_type, receiver, receiver_name, receiver_type, amount, currency, date, type, category
		FROM transactions
		WHERE account_iban = $1
		ORDER BY date DESC, id DESC`

	rows, err := r.DB.Query(query, iban)
	if err != nil {
		log.WithError(err).Error("Failed to execute query for transactions by account IBAN")
		return nil, err
	}
	defer rows.Close()

	var transactions []*model.Transaction
	for rows.Next() {
		t := &model.Transaction{}
		var senderName, senderType, receiverName, receiverType, category sql.NullString
		if err := rows.Scan(&t.ID, &t.AccountIBAN, &t.IsSent,
			&t.Sender, &senderName, &senderType,
			&t.Receiver, &receiverName, &receiverType,
			&t.Amount, &t.Currency, &t.Date, &t.Type, &category); err != nil {
			log.WithError(err).Error("Failed to scan transaction row")
			return nil, err
		}
		t.SenderName = senderName.String
		t.SenderType = senderType.String
		t.ReceiverName = receiverName.String
		t.ReceiverType = receiverType.String
		t.Category = category.String
		transactions = append(transactions, t)
	}

	return transactions, rows.Err()
}
