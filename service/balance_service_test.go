package service

import (
	"context"
	"errors"
	"testing"
	"time"
	"webbank/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

// stubRateProvider returns canned unit-scaled conversions and counts calls.
type stubRateProvider struct {
	calls int
	fn    func(amount decimal.Decimal, from model.Currency) (map[model.Currency]decimal.Decimal, error)
}

func (p *stubRateProvider) Convert(ctx context.Context, amount decimal.Decimal, from model.Currency) (map[model.Currency]decimal.Decimal, error) {
	p.calls++
	return p.fn(amount, from)
}

func TestBalanceService_TotalBalance(t *testing.T) {
	ctx := context.Background()

	t.Run("sums native and converted balances", func(t *testing.T) {
		accountRepo := new(MockAccountRepository)

		native := plnAccount("PL001", "user-1", "Alice Kowalska", 100)
		foreign := plnAccount("DE001", "user-1", "Alice Kowalska", 10)
		foreign.Currency = model.CurrencyEUR
		accountRepo.On("ListByOwner", "user-1").Return([]*model.Account{native, foreign}, nil).Once()

		rates := &stubRateProvider{fn: func(amount decimal.Decimal, from model.Currency) (map[model.Currency]decimal.Decimal, error) {
			assert.Equal(t, model.CurrencyEUR, from)
			return map[model.Currency]decimal.Decimal{
				model.CurrencyPLN: amount.Mul(decimal.NewFromFloat(4.5)),
				model.CurrencyEUR: amount,
			}, nil
		}}

		svc := NewBalanceService(accountRepo, rates)
		total, err := svc.TotalBalance(ctx, "user-1", model.CurrencyPLN)

		assert.NoError(t, err)
		assert.True(t, total.Equal(decimal.NewFromInt(145)), "got %s", total)
		assert.Equal(t, 1, rates.calls, "native balances must not hit the provider")
	})

	t.Run("no accounts yields zero", func(t *testing.T) {
		accountRepo := new(MockAccountRepository)
		accountRepo.On("ListByOwner", "user-1").Return([]*model.Account{}, nil).Once()

		svc := NewBalanceService(accountRepo, &stubRateProvider{})
		total, err := svc.TotalBalance(ctx, "user-1", model.CurrencyUSD)

		assert.NoError(t, err)
		assert.True(t, total.IsZero())
	})

	t.Run("rejects an unknown reporting currency", func(t *testing.T) {
		svc := NewBalanceService(new(MockAccountRepository), &stubRateProvider{})

		_, err := svc.TotalBalance(ctx, "user-1", model.Currency("GBP"))
		assert.Equal(t, ErrUnsupportedCurrency, err)
	})

	t.Run("provider failure surfaces", func(t *testing.T) {
		accountRepo := new(MockAccountRepository)
		foreign := plnAccount("DE001", "user-1", "Alice Kowalska", 10)
		foreign.Currency = model.CurrencyEUR
		accountRepo.On("ListByOwner", "user-1").Return([]*model.Account{foreign}, nil).Once()

		rates := &stubRateProvider{fn: func(amount decimal.Decimal, from model.Currency) (map[model.Currency]decimal.Decimal, error) {
			return nil, errors.New("provider down")
		}}

		svc := NewBalanceService(accountRepo, rates)
		_, err := svc.TotalBalance(ctx, "user-1", model.CurrencyPLN)

		assert.ErrorContains(t, err, "provider down")
	})

	t.Run("missing target rate surfaces", func(t *testing.T) {
		accountRepo := new(MockAccountRepository)
		foreign := plnAccount("DE001", "user-1", "Alice Kowalska", 10)
		foreign.Currency = model.CurrencyEUR
		accountRepo.On("ListByOwner", "user-1").Return([]*model.Account{foreign}, nil).Once()

		rates := &stubRateProvider{fn: func(amount decimal.Decimal, from model.Currency) (map[model.Currency]decimal.Decimal, error) {
			return map[model.Currency]decimal.Decimal{model.CurrencyEUR: amount}, nil
		}}

		svc := NewBalanceService(accountRepo, rates)
		_, err := svc.TotalBalance(ctx, "user-1", model.CurrencyPLN)

		assert.ErrorContains(t, err, "no PLN rate")
	})
}

func TestCachedRateProvider_Convert(t *testing.T) {
	ctx := context.Background()

	inner := &stubRateProvider{fn: func(amount decimal.Decimal, from model.Currency) (map[model.Currency]decimal.Decimal, error) {
		return map[model.Currency]decimal.Decimal{
			model.CurrencyPLN: amount.Mul(decimal.NewFromFloat(4.5)),
			model.CurrencyEUR: amount,
		}, nil
	}}
	provider := NewCachedRateProvider(inner, newFakeCache(), time.Minute)

	first, err := provider.Convert(ctx, decimal.NewFromInt(10), model.CurrencyEUR)
	assert.NoError(t, err)
	assert.True(t, first[model.CurrencyPLN].Equal(decimal.NewFromInt(45)))

	// Second call with a different amount is served from cached unit rates.
	second, err := provider.Convert(ctx, decimal.NewFromInt(20), model.CurrencyEUR)
	assert.NoError(t, err)
	assert.True(t, second[model.CurrencyPLN].Equal(decimal.NewFromInt(90)))
	assert.Equal(t, 1, inner.calls)
}
