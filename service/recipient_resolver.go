package service

import (
	"database/sql"
	"errors"
	"webbank/logger"
	"webbank/model"
	"webbank/repository"

	"github.com/sirupsen/logrus"
)

var (
	ErrRecipientNotFound    = errors.New("recipient not found")
	ErrSelfRecipient        = errors.New("cannot transfer to yourself")
	ErrNoMatchingAccount    = errors.New("recipient has no account in the transfer currency")
	ErrUnsupportedRecipient = errors.New("unsupported recipient type")
)

// ResolvedRecipient is the destination of an external transfer together with
// its owning user.
type ResolvedRecipient struct {
	Account *model.Account
	Owner   *model.User
}

// RecipientResolver maps a recipient descriptor to a concrete destination
// account, enforcing ownership and currency-compatibility rules. It never
// mutates state.
type RecipientResolver struct {
	accountRepo repository.IAccountRepository
	userRepo    repository.IUserRepository
}

func NewRecipientResolver(accountRepo repository.IAccountRepository, userRepo repository.IUserRepository) *RecipientResolver {
	return &RecipientResolver{accountRepo: accountRepo, userRepo: userRepo}
}

// Resolve locates the destination account for an external transfer from
// source. The three descriptor kinds are handled exhaustively; anything else
// is a validation failure.
func (r *RecipientResolver) Resolve(requesterID string, source *model.Account, recipient model.Recipient) (*ResolvedRecipient, error) {
	log := logger.Log.WithFields(logrus.Fields{
		"requester_id":    requesterID,
		"recipient_kind":  recipient.Kind,
		"source_currency": source.Currency,
	})
	log.Info("Resolving transfer recipient")

	switch recipient.Kind {
	case model.RecipientIBAN:
		return r.resolveByIBAN(requesterID, source, recipient.Value)
	case model.RecipientUserID:
		return r.resolveByUser(requesterID, source, recipient.Value)
	case model.RecipientAccountID:
		account, err := r.accountRepo.GetByID(recipient.Value)
		if err != nil {
			if err == sql.ErrNoRows {
				return nil, ErrRecipientNotFound
			}
			return nil, err
		}
		return r.resolveByUser(requesterID, source, account.OwnerID)
	default:
		return nil, ErrUnsupportedRecipient
	}
}

func (r *RecipientResolver) resolveByIBAN(requesterID string, source *model.Account, iban string) (*ResolvedRecipient, error) {
	account, err := r.accountRepo.GetByIBAN(iban)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrRecipientNotFound
		}
		return nil, err
	}
	if account.OwnerID == requesterID {
		// Moving funds between the requester's own accounts is the internal
		// path's job.
		return nil, ErrSelfRecipient
	}
	if account.Currency != source.Currency {
		return nil, ErrCurrencyMismatch
	}

	owner, err := r.userRepo.GetUserByID(account.OwnerID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &ResolvedRecipient{Account: account, Owner: owner}, nil
}

func (r *RecipientResolver) resolveByUser(requesterID string, source *model.Account, userID string) (*ResolvedRecipient, error) {
	if userID == requesterID {
		return nil, ErrSelfRecipient
	}

	owner, err := r.userRepo.GetUserByID(userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrRecipientNotFound
		}
		return nil, err
	}

	accounts, err := r.accountRepo.ListByOwner(userID)
	if err != nil {
		return nil, err
	}
	if len(accounts) == 0 {
		return nil, ErrRecipientNotFound
	}

	destination := pickDestination(accounts, source.Currency)
	if destination == nil {
		return nil, ErrNoMatchingAccount
	}
	return &ResolvedRecipient{Account: destination, Owner: owner}, nil
}

// pickDestination chooses among a user's currency-matching accounts,
// preferring savings; otherwise the first match in stable IBAN order wins.
func pickDestination(accounts []*model.Account, currency model.Currency) *model.Account {
	var first *model.Account
	for _, acc := range accounts {
		if acc.Currency != currency {
			continue
		}
		if acc.Type == model.AccountTypeSavings {
			return acc
		}
		if first == nil {
			first = acc
		}
	}
	return first
}
