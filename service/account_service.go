package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
	"webbank/logger"
	"webbank/model"
	"webbank/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

var ErrAccountNameTaken = errors.New("account name already in use")

// ibanAttempts is how many purely random candidates are probed for
// uniqueness before the timestamp-based fallback takes over.
const ibanAttempts = 7

// AccountService provisions accounts with freshly minted, collision-free
// IBANs and serves account listings through a cache-aside Redis layer.
type AccountService struct {
	accountRepo repository.IAccountRepository
	userRepo    repository.IUserRepository
	generator   *IBANGenerator
	cache       ICacheClient
}

func NewAccountService(accountRepo repository.IAccountRepository, userRepo repository.IUserRepository,
	generator *IBANGenerator, cache ICacheClient) *AccountService {
	return &AccountService{
		accountRepo: accountRepo,
		userRepo:    userRepo,
		generator:   generator,
		cache:       cache,
	}
}

// CreateAccount provisions a new account for ownerID with a zero balance.
// When ownerName is empty the owner's display name is looked up from the
// user store; a missing owner aborts the creation. The name stored on the
// account is a snapshot and is never re-synced if the user renames themself.
func (s *AccountService) CreateAccount(ctx context.Context, ownerID, ownerName, name string,
	accType model.AccountType, currency model.Currency) (*model.Account, error) {

	log := logger.Log.WithFields(logrus.Fields{
		"owner_id": ownerID,
		"currency": currency,
		"type":     accType,
	})
	log.Info("Provisioning new account")

	if ownerName == "" {
		owner, err := s.userRepo.GetUserByID(ownerID)
		if err != nil {
			if err == sql.ErrNoRows {
				return nil, ErrUserNotFound
			}
			return nil, err
		}
		ownerName = owner.Name
	}

	// Account names are probed routinely before creation, so absence is the
	// expected branch here.
	if _, err := s.accountRepo.GetByOwnerAndName(ownerID, name); err == nil {
		return nil, ErrAccountNameTaken
	} else if err != sql.ErrNoRows {
		return nil, err
	}

	iban, err := s.mintIBAN(currency)
	if err != nil {
		return nil, err
	}

	account := &model.Account{
		ID:        uuid.NewString(),
		IBAN:      iban,
		OwnerID:   ownerID,
		OwnerName: ownerName,
		Name:      repository.NormalizeAccountName(name),
		Balance:   decimal.Zero,
		Currency:  currency,
		Type:      accType,
	}

	if err := s.accountRepo.Save(account); err != nil {
		return nil, err
	}

	s.invalidateCache(ctx, ownerID)
	log.WithField("iban", account.IBAN).Info("Account provisioned")
	return account, nil
}

// mintIBAN generates random candidates and probes the ledger for uniqueness.
// After ibanAttempts collisions it falls back to a timestamp-derived account
// number, which is unique enough in practice to skip the probe.
func (s *AccountService) mintIBAN(currency model.Currency) (string, error) {
	for i := 0; i < ibanAttempts; i++ {
		candidate := s.generator.Generate(currency)
		_, err := s.accountRepo.GetByIBAN(candidate)
		if err == sql.ErrNoRows {
			return candidate, nil
		}
		if err != nil {
			return "", fmt.Errorf("could not verify IBAN uniqueness: %w", err)
		}
		logger.Log.WithField("attempt", i+1).Warn("Generated IBAN already exists, retrying")
	}
	return s.generator.GenerateFallback(currency), nil
}

// ListAccounts lists a user's accounts with a cache-aside strategy.
func (s *AccountService) ListAccounts(ctx context.Context, ownerID string) ([]*model.Account, error) {
	cacheKey := accountsCacheKey(ownerID)

	if cached, err := s.cache.Get(ctx, cacheKey).Result(); err == nil {
		var accounts []*model.Account
		if err := json.Unmarshal([]byte(cached), &accounts); err == nil {
			return accounts, nil
		}
	}

	accounts, err := s.accountRepo.ListByOwner(ownerID)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(accounts); err == nil {
		s.cache.Set(ctx, cacheKey, data, 10*time.Minute)
	}

	return accounts, nil
}

// GetAllAccounts retrieves every account. Caching is not applied here as
// admin data may need to be fresh.
func (s *AccountService) GetAllAccounts() ([]*model.Account, error) {
	return s.accountRepo.GetAllAccounts()
}

// DeleteAccount removes an account through the administrative delete path.
// Only the exclusive owner may delete.
func (s *AccountService) DeleteAccount(ctx context.Context, requesterID, iban string) error {
	account, err := s.accountRepo.GetByIBAN(iban)
	if err != nil {
		if err == sql.ErrNoRows {
			return ErrAccountNotFound
		}
		return err
	}
	if account.OwnerID != requesterID {
		return ErrPermissionDenied
	}

	if err := s.accountRepo.Delete(iban); err != nil {
		return err
	}

	s.invalidateCache(ctx, requesterID)
	return nil
}

func (s *AccountService) invalidateCache(ctx context.Context, ownerID string) {
	s.cache.Del(ctx, accountsCacheKey(ownerID))
}

func accountsCacheKey(ownerID string) string {
	return fmt.Sprintf("accounts:%s", ownerID)
}
