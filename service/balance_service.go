package service

import (
	"context"
	"errors"
	"fmt"
	"webbank/logger"
	"webbank/model"
	"webbank/repository"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

var ErrUnsupportedCurrency = errors.New("unsupported reporting currency")

// BalanceService produces read-only rollups of a user's balances across all
// owned accounts, converted into a single reporting currency. It never
// participates in a transfer's atomic unit.
type BalanceService struct {
	accountRepo repository.IAccountRepository
	rates       RateProvider
}

func NewBalanceService(accountRepo repository.IAccountRepository, rates RateProvider) *BalanceService {
	return &BalanceService{accountRepo: accountRepo, rates: rates}
}

// TotalBalance sums the user's balances into target. Native amounts are added
// directly; everything else goes through the injected rate provider.
func (s *BalanceService) TotalBalance(ctx context.Context, userID string, target model.Currency) (decimal.Decimal, error) {
	if !target.IsValid() {
		return decimal.Zero, ErrUnsupportedCurrency
	}

	log := logger.Log.WithFields(logrus.Fields{
		"user_id":  userID,
		"currency": target,
	})
	log.Info("Aggregating total balance")

	accounts, err := s.accountRepo.ListByOwner(userID)
	if err != nil {
		return decimal.Zero, err
	}

	total := decimal.Zero
	for _, account := range accounts {
		if account.Currency == target {
			total = total.Add(account.Balance)
			continue
		}

		converted, err := s.rates.Convert(ctx, account.Balance, account.Currency)
		if err != nil {
			return decimal.Zero, fmt.Errorf("could not convert %s balance: %w", account.Currency, err)
		}
		amount, ok := converted[target]
		if !ok {
			return decimal.Zero, fmt.Errorf("rate provider returned no %s rate", target)
		}
		total = total.Add(amount)
	}

	return total, nil
}
