package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
	"webbank/logger"
	"webbank/model"
	"webbank/repository"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

var (
	ErrSourceAccountNotFound      = errors.New("source account not found")
	ErrDestinationAccountNotFound = errors.New("destination account not found")
	ErrSameAccountTransfer        = errors.New("cannot transfer money to the same account")
	ErrPermissionDenied           = errors.New("you can only transfer money from your own account")
	ErrInsufficientFunds          = errors.New("insufficient funds")
	ErrCurrencyMismatch           = errors.New("currency mismatch between accounts")
	ErrInvalidAmount              = errors.New("transfer amount must be greater than zero")
	ErrAccountNotFound            = errors.New("account not found")
	ErrUserNotFound               = errors.New("user not found")
)

// TransferService is the sole authority for mutating two account balances
// together and recording the result in the transaction log. Every transfer
// runs as one atomic unit: validate, read both accounts, mutate balances,
// persist, append the paired log rows.
type TransferService struct {
	atomic          repository.IAtomic
	accountRepo     repository.IAccountRepository
	transactionRepo repository.ITransactionRepository
	userRepo        repository.IUserRepository
	resolver        *RecipientResolver
}

func NewTransferService(atomic repository.IAtomic, accountRepo repository.IAccountRepository,
	transactionRepo repository.ITransactionRepository, userRepo repository.IUserRepository,
	resolver *RecipientResolver) *TransferService {
	return &TransferService{
		atomic:          atomic,
		accountRepo:     accountRepo,
		transactionRepo: transactionRepo,
		userRepo:        userRepo,
		resolver:        resolver,
	}
}

// InternalTransfer moves amount from one IBAN to another of the same
// currency. The source must belong to the requester; the destination may
// belong to any user, which is deliberate: "internal" means addressed by
// IBAN, not same-owner.
func (s *TransferService) InternalTransfer(ctx context.Context, requesterID, fromIBAN, toIBAN string, amount decimal.Decimal) (*model.TransferResult, error) {
	log := logger.Log.WithFields(logrus.Fields{
		"requester_id": requesterID,
		"from_iban":    fromIBAN,
		"to_iban":      toIBAN,
		"amount":       amount,
	})
	log.Info("Starting internal transfer")

	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if fromIBAN == toIBAN {
		return nil, ErrSameAccountTransfer
	}

	var result *model.TransferResult
	err := s.atomic.Run(ctx, []string{fromIBAN, toIBAN}, func(q repository.Querier) error {
		source, err := s.accountRepo.GetByIBANForUpdate(q, fromIBAN)
		if err != nil {
			if err == sql.ErrNoRows {
				return ErrSourceAccountNotFound
			}
			return err
		}
		destination, err := s.accountRepo.GetByIBANForUpdate(q, toIBAN)
		if err != nil {
			if err == sql.ErrNoRows {
				return ErrDestinationAccountNotFound
			}
			return err
		}

		if source.OwnerID != requesterID {
			return ErrPermissionDenied
		}
		if source.Currency != destination.Currency {
			return ErrCurrencyMismatch
		}
		if source.Balance.LessThan(amount) {
			return ErrInsufficientFunds
		}

		now := time.Now().UTC()
		sent := &model.Transaction{
			AccountIBAN:  source.IBAN,
			IsSent:       true,
			Sender:       source.IBAN,
			SenderName:   source.OwnerName,
			SenderType:   model.ParticipantTypeIBAN,
			Receiver:     destination.IBAN,
			ReceiverName: destination.OwnerName,
			ReceiverType: model.ParticipantTypeIBAN,
			Amount:       amount,
			Currency:     source.Currency,
			Date:         now,
			Type:         model.TransferTypeInternal,
		}
		received := &model.Transaction{
			AccountIBAN:  destination.IBAN,
			IsSent:       false,
			Sender:       source.IBAN,
			SenderName:   source.OwnerName,
			SenderType:   model.ParticipantTypeIBAN,
			Receiver:     destination.IBAN,
			ReceiverName: destination.OwnerName,
			ReceiverType: model.ParticipantTypeIBAN,
			Amount:       amount,
			Currency:     destination.Currency,
			Date:         now,
			Type:         model.TransferTypeInternal,
		}

		res, err := s.commit(q, source, destination, amount, sent, received)
		if err != nil {
			return err
		}
		result = res
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info("Internal transfer completed successfully")
	return result, nil
}

// ExternalTransfer moves amount from the requester's account to a recipient
// addressed by descriptor. The resolver locates the destination and enforces
// ownership and currency compatibility before anything is mutated.
func (s *TransferService) ExternalTransfer(ctx context.Context, requesterID string, req model.ExternalTransferRequest) (*model.TransferResult, error) {
	log := logger.Log.WithFields(logrus.Fields{
		"requester_id":   requesterID,
		"from_iban":      req.FromIBAN,
		"amount":         req.Amount,
		"recipient_kind": req.Recipient.Kind,
	})
	log.Info("Starting external transfer")

	if !req.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	requester, err := s.userRepo.GetUserByID(requesterID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	source, err := s.accountRepo.GetByIBAN(req.FromIBAN)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrSourceAccountNotFound
		}
		return nil, err
	}
	if source.OwnerID != requesterID {
		return nil, ErrPermissionDenied
	}
	if source.Balance.LessThan(req.Amount) {
		return nil, ErrInsufficientFunds
	}

	resolved, err := s.resolver.Resolve(requesterID, source, req.Recipient)
	if err != nil {
		return nil, err
	}

	// How the recipient was addressed is preserved in the sender-side row:
	// an IBAN descriptor keeps the IBAN, anything else keeps the resolved
	// owner's user id.
	receiver := resolved.Account.IBAN
	receiverType := model.ParticipantTypeIBAN
	if req.Recipient.Kind != model.RecipientIBAN {
		receiver = resolved.Owner.ID
		receiverType = model.ParticipantTypeID
	}
	receiverName := req.RecipientName
	if receiverName == "" {
		receiverName = resolved.Owner.Name
	}

	var result *model.TransferResult
	err = s.atomic.Run(ctx, []string{source.IBAN, resolved.Account.IBAN}, func(q repository.Querier) error {
		// Re-read both sides inside the unit; the pre-checks above were
		// advisory and the balances may have moved since.
		source, err := s.accountRepo.GetByIBANForUpdate(q, source.IBAN)
		if err != nil {
			if err == sql.ErrNoRows {
				return ErrSourceAccountNotFound
			}
			return err
		}
		destination, err := s.accountRepo.GetByIBANForUpdate(q, resolved.Account.IBAN)
		if err != nil {
			if err == sql.ErrNoRows {
				return ErrDestinationAccountNotFound
			}
			return err
		}
		if source.Balance.LessThan(req.Amount) {
			return ErrInsufficientFunds
		}
		if source.Currency != destination.Currency {
			return ErrCurrencyMismatch
		}

		now := time.Now().UTC()
		sent := &model.Transaction{
			AccountIBAN:  source.IBAN,
			IsSent:       true,
			Sender:       source.IBAN,
			SenderName:   source.OwnerName,
			SenderType:   model.ParticipantTypeIBAN,
			Receiver:     receiver,
			ReceiverName: receiverName,
			ReceiverType: receiverType,
			Amount:       req.Amount,
			Currency:     source.Currency,
			Date:         now,
			Type:         model.TransferTypeExternal,
			Category:     req.Category,
		}
		received := &model.Transaction{
			AccountIBAN:  destination.IBAN,
			IsSent:       false,
			Sender:       requester.ID,
			SenderName:   requester.Name,
			SenderType:   model.ParticipantTypeID,
			Receiver:     destination.IBAN,
			ReceiverName: destination.OwnerName,
			ReceiverType: model.ParticipantTypeIBAN,
			Amount:       req.Amount,
			Currency:     destination.Currency,
			Date:         now,
			Type:         model.TransferTypeExternal,
			Category:     req.Category,
		}

		res, err := s.commit(q, source, destination, req.Amount, sent, received)
		if err != nil {
			return err
		}
		result = res
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info("External transfer completed successfully")
	return result, nil
}

// commit applies the balance mutation and appends both log rows. It must only
// be called after every validation has passed, inside the atomic unit.
func (s *TransferService) commit(q repository.Querier, source, destination *model.Account,
	amount decimal.Decimal, sent, received *model.Transaction) (*model.TransferResult, error) {

	source.Balance = source.Balance.Sub(amount)
	destination.Balance = destination.Balance.Add(amount)

	if err := s.accountRepo.UpdateBalance(q, source.IBAN, source.Balance); err != nil {
		return nil, fmt.Errorf("could not update sender balance: %w", err)
	}
	if err := s.accountRepo.UpdateBalance(q, destination.IBAN, destination.Balance); err != nil {
		return nil, fmt.Errorf("could not update receiver balance: %w", err)
	}
	if err := s.transactionRepo.CreateTransaction(q, sent); err != nil {
		return nil, fmt.Errorf("could not create sender transaction record: %w", err)
	}
	if err := s.transactionRepo.CreateTransaction(q, received); err != nil {
		return nil, fmt.Errorf("could not create receiver transaction record: %w", err)
	}

	return &model.TransferResult{
		From: source.Snapshot(),
		To:   destination.Snapshot(),
	}, nil
}

// ListTransactionsForAccount retrieves the transaction history for an account
// owned by the requester, newest first.
func (s *TransferService) ListTransactionsForAccount(ctx context.Context, requesterID, iban string) ([]*model.Transaction, error) {
	log := logger.Log.WithFields(logrus.Fields{
		"requester_id": requesterID,
		"account_iban": iban,
	})

	account, err := s.accountRepo.GetByIBAN(iban)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}

	if account.OwnerID != requesterID {
		log.Warn("Permission denied for accessing account's transaction history")
		return nil, ErrPermissionDenied
	}

	return s.transactionRepo.ListByAccountIBAN(iban)
}
