package repository

import (
	"database/sql"
	"strings"
	"webbank/logger"
	"webbank/model"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// IAccountRepository defines the contract for account ledger operations.
// Lookups report absence as sql.ErrNoRows; callers treat that as a normal
// branch, not a failure.
type IAccountRepository interface {
	Save(account *model.Account) error
	GetByIBAN(iban string) (*model.Account, error)
	GetByIBANForUpdate(q Querier, iban string) (*model.Account, error)
	GetByID(id string) (*model.Account, error)
	GetByOwnerAndName(ownerID, name string) (*model.Account, error)
	ListByOwner(ownerID string) ([]*model.Account, error)
	GetAllAccounts() ([]*model.Account, error)
	UpdateBalance(q Querier, iban string, newBalance decimal.Decimal) error
	Delete(iban string) error
}

// AccountRepository implements IAccountRepository against postgres.
type AccountRepository struct {
	DB *sql.DB
}

func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{DB: db}
}

const accountColumns = `id, iban, owner_id, owner_name, name, balance, currency, type, created_at`

func scanAccount(row *sql.Row) (*model.Account, error) {
	acc := &model.Account{}
	err := row.Scan(&acc.ID, &acc.IBAN, &acc.OwnerID, &acc.OwnerName, &acc.Name,
		&acc.Balance, &acc.Currency, &acc.Type, &acc.CreatedAt)
	if err != nil {
		return nil, err
	}
	return acc, nil
}

// Save upserts an account keyed by IBAN. The IBAN itself is immutable; on
// conflict only the mutable attributes are rewritten.
func (r *AccountRepository) Save(account *model.Account) error {
	log := logger.Log.WithFields(logrus.Fields{
		"iban":     account.IBAN,
		"owner_id": account.OwnerID,
		"currency": account.Currency,
	})
	log.Info("Executing query to save account")

	query := `INSERT INTO accounts (id, iban, owner_id, owner_name, name, balance, currency, type)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (iban) DO UPDATE SET name = EXCLUDED.name, balance = EXCLUDED.balance
		RETURNING created_at`
	err := r.DB.QueryRow(query, account.ID, account.IBAN, account.OwnerID, account.OwnerName,
		account.Name, account.Balance, account.Currency, account.Type).Scan(&account.CreatedAt)
	if err != nil {
		log.WithError(err).Error("Failed to execute save account query")
		return err
	}
	return nil
}

// GetByIBAN retrieves a single account by its IBAN.
func (r *AccountRepository) GetByIBAN(iban string) (*model.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE iban = $1`
	return scanAccount(r.DB.QueryRow(query, iban))
}

// GetByIBANForUpdate retrieves an account inside a transfer's atomic unit,
// taking a row lock when the querier is a real transaction.
func (r *AccountRepository) GetByIBANForUpdate(q Querier, iban string) (*model.Account, error) {
	log := logger.Log.WithField("iban", iban)

	query := `SELECT ` + accountColumns + ` FROM accounts WHERE iban = $1 FOR UPDATE`
	account, err := scanAccount(q.QueryRow(query, iban))
	if err != nil {
		if err == sql.ErrNoRows {
			log.Info("Account not found for update")
		} else {
			log.WithError(err).Error("Failed to execute get account for update query")
		}
		return nil, err
	}
	return account, nil
}

// GetByID retrieves an account by its record id (not its IBAN).
func (r *AccountRepository) GetByID(id string) (*model.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	return scanAccount(r.DB.QueryRow(query, id))
}

// GetByOwnerAndName retrieves an owner's account by its display name. The
// match is case-insensitive and forgiving about surrounding whitespace and a
// single pair of quote characters, since names routinely arrive verbatim
// from chat input.
func (r *AccountRepository) GetByOwnerAndName(ownerID, name string) (*model.Account, error) {
	normalized := NormalizeAccountName(name)
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE owner_id = $1 AND LOWER(name) = LOWER($2)`
	return scanAccount(r.DB.QueryRow(query, ownerID, normalized))
}

// ListByOwner retrieves all accounts for a user, ordered by IBAN so callers
// relying on "first match" tie-breaks see a stable order.
func (r *AccountRepository) ListByOwner(ownerID string) ([]*model.Account, error) {
	log := logger.Log.WithField("owner_id", ownerID)
	log.Info("Executing query to get accounts by owner")

	query := `SELECT ` + accountColumns + ` FROM accounts WHERE owner_id = $1 ORDER BY iban`
	rows, err := r.DB.Query(query, ownerID)
	if err != nil {
		log.WithError(err).Error("Failed to execute query for accounts by owner")
		return nil, err
	}
	defer rows.Close()

	return collectAccounts(rows)
}

// GetAllAccounts retrieves every account. For admin use only.
func (r *AccountRepository) GetAllAccounts() ([]*model.Account, error) {
	logger.Log.Info("Executing query to get all accounts")

	query := `SELECT ` + accountColumns + ` FROM accounts ORDER BY iban`
	rows, err := r.DB.Query(query)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to execute query for all accounts")
		return nil, err
	}
	defer rows.Close()

	return collectAccounts(rows)
}

// UpdateBalance writes an account's new balance inside a transfer's atomic
// unit. Only the transfer engine calls this.
func (r *AccountRepository) UpdateBalance(q Querier, iban string, newBalance decimal.Decimal) error {
	log := logger.Log.WithFields(logrus.Fields{
		"iban":        iban,
		"new_balance": newBalance,
	})
	log.Info("Executing query to update account balance")

	query := `UPDATE accounts SET balance = $1 WHERE iban = $2`
	if _, err := q.Exec(query, newBalance, iban); err != nil {
		log.WithError(err).Error("Failed to execute update account balance query")
		return err
	}
	return nil
}

// Delete removes an account from the ledger. Ownership gating happens in the
// service layer; the ledger itself only knows the administrative path exists.
func (r *AccountRepository) Delete(iban string) error {
	log := logger.Log.WithField("iban", iban)
	log.Info("Executing query to delete account")

	if _, err := r.DB.Exec(`DELETE FROM accounts WHERE iban = $1`, iban); err != nil {
		log.WithError(err).Error("Failed to execute delete account query")
		return err
	}
	return nil
}

func collectAccounts(rows *sql.Rows) ([]*model.Account, error) {
	var accounts []*model.Account
	for rows.Next() {
		acc := &model.Account{}
		if err := rows.Scan(&acc.ID, &acc.IBAN, &acc.OwnerID, &acc.OwnerName, &acc.Name,
			&acc.Balance, &acc.Currency, &acc.Type, &acc.CreatedAt); err != nil {
			logger.Log.WithError(err).Error("Failed to scan account row")
			return nil, err
		}
		accounts = append(accounts, acc)
	}
	return accounts, rows.Err()
}

// NormalizeAccountName trims surrounding whitespace and a single pair of
// matching quote characters from a user-supplied account name.
func NormalizeAccountName(name string) string {
	trimmed := strings.TrimSpace(name)
	if len(trimmed) >= 2 {
		first, last := trimmed[0], trimmed[len(trimmed)-1]
		if first == last && (first == '"' || first == '\'') {
			trimmed = trimmed[1 : len(trimmed)-1]
		}
	}
	return trimmed
}
