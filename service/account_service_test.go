package service

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand"
	"regexp"
	"testing"
	"time"
	"webbank/model"
	"webbank/repository"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// fakeCache is an in-memory ICacheClient for tests.
type fakeCache struct {
	data map[string]string
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: make(map[string]string)}
}

func (c *fakeCache) Get(ctx context.Context, key string) *redis.StringCmd {
	cmd := redis.NewStringCmd(ctx)
	if v, ok := c.data[key]; ok {
		cmd.SetVal(v)
	} else {
		cmd.SetErr(redis.Nil)
	}
	return cmd
}

func (c *fakeCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	switch v := value.(type) {
	case []byte:
		c.data[key] = string(v)
	case string:
		c.data[key] = v
	}
	return redis.NewStatusCmd(ctx)
}

func (c *fakeCache) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	for _, key := range keys {
		delete(c.data, key)
	}
	return redis.NewIntCmd(ctx)
}

// scriptedRand returns zero digits while forced draws remain, then delegates
// to a seeded source. Forcing a multiple of 20 zero draws makes whole IBAN
// candidates collide deterministically.
type scriptedRand struct {
	forced int
	inner  *rand.Rand
}

func (r *scriptedRand) Intn(n int) int {
	if r.forced > 0 {
		r.forced--
		return 0
	}
	return r.inner.Intn(n)
}

var ibanPattern = regexp.MustCompile(`^PL\d{20}$`)

func TestAccountService_CreateAccount(t *testing.T) {
	ctx := context.Background()

	t.Run("provisions a zero-balance account with a fresh IBAN", func(t *testing.T) {
		accountRepo := new(MockAccountRepository)
		userRepo := new(MockUserRepository)
		cache := newFakeCache()
		svc := NewAccountService(accountRepo, userRepo, NewIBANGenerator(rand.New(rand.NewSource(1))), cache)

		accountRepo.On("GetByOwnerAndName", "user-1", "daily").Return(nil, sql.ErrNoRows).Once()
		accountRepo.On("GetByIBAN", mock.AnythingOfType("string")).Return(nil, sql.ErrNoRows).Once()

		var saved *model.Account
		accountRepo.On("Save", mock.AnythingOfType("*model.Account")).
			Run(func(args mock.Arguments) { saved = args.Get(0).(*model.Account) }).
			Return(nil).Once()

		account, err := svc.CreateAccount(ctx, "user-1", "Alice Kowalska", "daily", model.AccountTypeChecking, model.CurrencyPLN)

		assert.NoError(t, err)
		assert.Equal(t, saved, account)
		assert.True(t, account.Balance.IsZero())
		assert.Equal(t, "user-1", account.OwnerID)
		assert.Equal(t, "Alice Kowalska", account.OwnerName)
		assert.Regexp(t, ibanPattern, account.IBAN)
		assert.NotEmpty(t, account.ID)
		accountRepo.AssertExpectations(t)
	})

	t.Run("country prefix follows the currency", func(t *testing.T) {
		accountRepo := new(MockAccountRepository)
		userRepo := new(MockUserRepository)
		svc := NewAccountService(accountRepo, userRepo, NewIBANGenerator(rand.New(rand.NewSource(1))), newFakeCache())

		accountRepo.On("GetByOwnerAndName", "user-1", "travel").Return(nil, sql.ErrNoRows).Once()
		accountRepo.On("GetByIBAN", mock.AnythingOfType("string")).Return(nil, sql.ErrNoRows).Once()
		accountRepo.On("Save", mock.AnythingOfType("*model.Account")).Return(nil).Once()

		account, err := svc.CreateAccount(ctx, "user-1", "Alice Kowalska", "travel", model.AccountTypeSavings, model.CurrencyEUR)

		assert.NoError(t, err)
		assert.Regexp(t, `^DE\d{20}$`, account.IBAN)
	})

	t.Run("looks up the owner name when not supplied", func(t *testing.T) {
		accountRepo := new(MockAccountRepository)
		userRepo := new(MockUserRepository)
		svc := NewAccountService(accountRepo, userRepo, NewIBANGenerator(rand.New(rand.NewSource(1))), newFakeCache())

		owner := &model.User{ID: "user-1", Name: "Alice Kowalska"}
		userRepo.On("GetUserByID", "user-1").Return(owner, nil).Once()
		accountRepo.On("GetByOwnerAndName", "user-1", "daily").Return(nil, sql.ErrNoRows).Once()
		accountRepo.On("GetByIBAN", mock.AnythingOfType("string")).Return(nil, sql.ErrNoRows).Once()
		accountRepo.On("Save", mock.AnythingOfType("*model.Account")).Return(nil).Once()

		account, err := svc.CreateAccount(ctx, "user-1", "", "daily", model.AccountTypeChecking, model.CurrencyPLN)

		assert.NoError(t, err)
		assert.Equal(t, "Alice Kowalska", account.OwnerName)
		userRepo.AssertExpectations(t)
	})

	t.Run("aborts when the owner does not exist", func(t *testing.T) {
		accountRepo := new(MockAccountRepository)
		userRepo := new(MockUserRepository)
		svc := NewAccountService(accountRepo, userRepo, NewIBANGenerator(rand.New(rand.NewSource(1))), newFakeCache())

		userRepo.On("GetUserByID", "ghost").Return(nil, sql.ErrNoRows).Once()

		_, err := svc.CreateAccount(ctx, "ghost", "", "daily", model.AccountTypeChecking, model.CurrencyPLN)

		assert.Equal(t, ErrUserNotFound, err)
	})

	t.Run("rejects a duplicate account name", func(t *testing.T) {
		accountRepo := new(MockAccountRepository)
		userRepo := new(MockUserRepository)
		svc := NewAccountService(accountRepo, userRepo, NewIBANGenerator(rand.New(rand.NewSource(1))), newFakeCache())

		existing := plnAccount("PL001", "user-1", "Alice Kowalska", 10)
		accountRepo.On("GetByOwnerAndName", "user-1", "daily").Return(existing, nil).Once()

		_, err := svc.CreateAccount(ctx, "user-1", "Alice Kowalska", "daily", model.AccountTypeChecking, model.CurrencyPLN)

		assert.Equal(t, ErrAccountNameTaken, err)
	})

	t.Run("falls back after seven colliding candidates", func(t *testing.T) {
		accountRepo := new(MockAccountRepository)
		userRepo := new(MockUserRepository)
		// Constant zero source: every random candidate is identical.
		svc := NewAccountService(accountRepo, userRepo, NewIBANGenerator(&scriptedRand{forced: 1 << 30}), newFakeCache())

		existing := plnAccount("PL00000000000000000000", "user-9", "Taken", 1)
		accountRepo.On("GetByOwnerAndName", "user-1", "daily").Return(nil, sql.ErrNoRows).Once()
		accountRepo.On("GetByIBAN", "PL00000000000000000000").Return(existing, nil).Times(7)

		var saved *model.Account
		accountRepo.On("Save", mock.AnythingOfType("*model.Account")).
			Run(func(args mock.Arguments) { saved = args.Get(0).(*model.Account) }).
			Return(nil).Once()

		account, err := svc.CreateAccount(ctx, "user-1", "Alice Kowalska", "daily", model.AccountTypeChecking, model.CurrencyPLN)

		assert.NoError(t, err)
		assert.Regexp(t, ibanPattern, account.IBAN)
		assert.NotEqual(t, existing.IBAN, saved.IBAN)
		accountRepo.AssertExpectations(t)
	})
}

// fakeLedger is an in-memory IAccountRepository used for the uniqueness
// property below. Save fails on a duplicate IBAN the way the unique index
// would.
type fakeLedger struct {
	byIBAN map[string]*model.Account
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{byIBAN: make(map[string]*model.Account)}
}

func (l *fakeLedger) Save(account *model.Account) error {
	if _, ok := l.byIBAN[account.IBAN]; ok {
		return fmt.Errorf("duplicate iban %s", account.IBAN)
	}
	l.byIBAN[account.IBAN] = account
	return nil
}

func (l *fakeLedger) GetByIBAN(iban string) (*model.Account, error) {
	if acc, ok := l.byIBAN[iban]; ok {
		return acc, nil
	}
	return nil, sql.ErrNoRows
}

func (l *fakeLedger) GetByIBANForUpdate(q repository.Querier, iban string) (*model.Account, error) {
	return l.GetByIBAN(iban)
}

func (l *fakeLedger) GetByID(id string) (*model.Account, error) { return nil, sql.ErrNoRows }

func (l *fakeLedger) GetByOwnerAndName(ownerID, name string) (*model.Account, error) {
	return nil, sql.ErrNoRows
}

func (l *fakeLedger) ListByOwner(ownerID string) ([]*model.Account, error) { return nil, nil }
func (l *fakeLedger) GetAllAccounts() ([]*model.Account, error)            { return nil, nil }

func (l *fakeLedger) UpdateBalance(q repository.Querier, iban string, newBalance decimal.Decimal) error {
	return nil
}

func (l *fakeLedger) Delete(iban string) error { return nil }

// Provisioning must never hand out an IBAN already present in the ledger,
// even when the random source keeps reproducing taken candidates.
func TestAccountService_IBANUniqueness(t *testing.T) {
	ledger := newFakeLedger()
	rng := &scriptedRand{inner: rand.New(rand.NewSource(42))}
	svc := NewAccountService(ledger, new(MockUserRepository), NewIBANGenerator(rng), newFakeCache())

	// A pre-existing account every forced candidate collides with.
	taken := plnAccount("PL00000000000000000000", "user-0", "Taken", 1)
	assert.NoError(t, ledger.Save(taken))

	ctx := context.Background()
	for i := 0; i < 10000; i++ {
		// Force the first three candidates of this creation to collide.
		rng.forced = 3 * 20
		account, err := svc.CreateAccount(ctx, "user-1", "Alice Kowalska",
			fmt.Sprintf("acc-%d", i), model.AccountTypeChecking, model.CurrencyPLN)
		assert.NoError(t, err)
		assert.Regexp(t, ibanPattern, account.IBAN)
	}

	// The taken account plus every provisioned one, no overwrites.
	assert.Len(t, ledger.byIBAN, 10001)
}

func TestAccountService_ListAccounts(t *testing.T) {
	ctx := context.Background()

	t.Run("caches the listing", func(t *testing.T) {
		accountRepo := new(MockAccountRepository)
		cache := newFakeCache()
		svc := NewAccountService(accountRepo, new(MockUserRepository), NewIBANGenerator(nil), cache)

		accounts := []*model.Account{plnAccount("PL001", "user-1", "Alice Kowalska", 10)}
		accountRepo.On("ListByOwner", "user-1").Return(accounts, nil).Once()

		first, err := svc.ListAccounts(ctx, "user-1")
		assert.NoError(t, err)
		assert.Len(t, first, 1)

		// Second read must come from the cache; the mock would panic on a
		// second repository call.
		second, err := svc.ListAccounts(ctx, "user-1")
		assert.NoError(t, err)
		assert.Len(t, second, 1)
		assert.Equal(t, first[0].IBAN, second[0].IBAN)
		accountRepo.AssertExpectations(t)
	})
}

func TestAccountService_DeleteAccount(t *testing.T) {
	ctx := context.Background()

	t.Run("owner may delete", func(t *testing.T) {
		accountRepo := new(MockAccountRepository)
		svc := NewAccountService(accountRepo, new(MockUserRepository), NewIBANGenerator(nil), newFakeCache())

		account := plnAccount("PL001", "user-1", "Alice Kowalska", 0)
		accountRepo.On("GetByIBAN", "PL001").Return(account, nil).Once()
		accountRepo.On("Delete", "PL001").Return(nil).Once()

		assert.NoError(t, svc.DeleteAccount(ctx, "user-1", "PL001"))
		accountRepo.AssertExpectations(t)
	})

	t.Run("non-owner is denied", func(t *testing.T) {
		accountRepo := new(MockAccountRepository)
		svc := NewAccountService(accountRepo, new(MockUserRepository), NewIBANGenerator(nil), newFakeCache())

		account := plnAccount("PL001", "user-1", "Alice Kowalska", 0)
		accountRepo.On("GetByIBAN", "PL001").Return(account, nil).Once()

		err := svc.DeleteAccount(ctx, "user-2", "PL001")
		assert.Equal(t, ErrPermissionDenied, err)
	})

	t.Run("missing account", func(t *testing.T) {
		accountRepo := new(MockAccountRepository)
		svc := NewAccountService(accountRepo, new(MockUserRepository), NewIBANGenerator(nil), newFakeCache())

		accountRepo.On("GetByIBAN", "PL404").Return(nil, sql.ErrNoRows).Once()

		err := svc.DeleteAccount(ctx, "user-1", "PL404")
		assert.Equal(t, ErrAccountNotFound, err)
	})
}
