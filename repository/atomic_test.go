package repository

import (
	"context"
	"errors"
	"sync"
	"testing"
	"webbank/logger"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
)

func TestMain(m *testing.M) {
	logger.Init()
	m.Run()
}

func TestAtomic_RunTx(t *testing.T) {
	t.Run("commits on success", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		assert.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectCommit()

		atomic := NewAtomic(db, true)
		err = atomic.Run(context.Background(), []string{"PL001", "PL002"}, func(q Querier) error {
			assert.NotNil(t, q)
			return nil
		})

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back when the unit fails", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		assert.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectRollback()

		unitErr := errors.New("insufficient funds")
		atomic := NewAtomic(db, true)
		err = atomic.Run(context.Background(), []string{"PL001"}, func(q Querier) error {
			return unitErr
		})

		assert.Equal(t, unitErr, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestAtomic_RunLocked(t *testing.T) {
	t.Run("serializes units touching the same accounts", func(t *testing.T) {
		db, _, err := sqlmock.New()
		assert.NoError(t, err)
		defer db.Close()

		atomic := NewAtomic(db, false)

		// A non-atomic counter; overlapping units would race without the
		// per-IBAN locks and -race would flag it.
		counter := 0
		var wg sync.WaitGroup
		for i := 0; i < 200; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				err := atomic.Run(context.Background(), []string{"PL001", "PL002"}, func(q Querier) error {
					counter++
					return nil
				})
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		assert.Equal(t, 200, counter)
	})

	t.Run("crossing account pairs do not deadlock", func(t *testing.T) {
		db, _, err := sqlmock.New()
		assert.NoError(t, err)
		defer db.Close()

		atomic := NewAtomic(db, false)

		var wg sync.WaitGroup
		for i := 0; i < 100; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				keys := []string{"PL001", "PL002"}
				if i%2 == 1 {
					keys = []string{"PL002", "PL001"}
				}
				_ = atomic.Run(context.Background(), keys, func(q Querier) error {
					return nil
				})
			}(i)
		}
		wg.Wait()
	})

	t.Run("fallback passes the raw connection to the unit", func(t *testing.T) {
		db, _, err := sqlmock.New()
		assert.NoError(t, err)
		defer db.Close()

		atomic := NewAtomic(db, false)
		err = atomic.Run(context.Background(), []string{"PL001"}, func(q Querier) error {
			assert.Equal(t, Querier(db), q)
			return nil
		})
		assert.NoError(t, err)
	})
}

func TestDedupeSorted(t *testing.T) {
	assert.Equal(t, []string{"PL001", "PL002"}, dedupeSorted([]string{"PL002", "PL001", "PL002"}))
	assert.Equal(t, []string{"PL001"}, dedupeSorted([]string{"PL001", "PL001"}))
	assert.Empty(t, dedupeSorted(nil))
}
