package coins

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/mahinbs/series-shop-beacon-32-sub001/internal/db"
	"github.com/mahinbs/series-shop-beacon-32-sub001/internal/fallback"
	"github.com/mahinbs/series-shop-beacon-32-sub001/pkg/logger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPackages map[string]db.CoinPackage

func (s stubPackages) Get(_ context.Context, id string) (db.CoinPackage, error) {
	p, ok := s[id]
	if !ok {
		return db.CoinPackage{}, fmt.Errorf("%w: %s", fallback.ErrNotFound, id)
	}
	return p, nil
}

func setupTestDB(t *testing.T) *db.DB {
	database, err := db.OpenInMemory()
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations(database))
	t.Cleanup(func() { _ = database.Close() })
	return database
}

func setupWallet(t *testing.T) *Wallet {
	packages := stubPackages{
		"reader":  {Meta: db.Meta{ID: "reader"}, Name: "Reader Pack", Coins: 500, BonusCoins: 50, Price: decimal.RequireFromString("4.99"), IsActive: true},
		"retired": {Meta: db.Meta{ID: "retired"}, Name: "Old Pack", Coins: 10, Price: decimal.RequireFromString("0.10"), IsActive: false},
	}
	return NewWallet(setupTestDB(t), packages, logger.NewLogger("test", "error", "json"))
}

func TestSpendBeyondBalanceIsRejectedWithoutError(t *testing.T) {
	ctx := context.Background()
	w := setupWallet(t)

	_, err := w.Earn(ctx, "u1", 100, "welcome bonus")
	require.NoError(t, err)

	res, err := w.Spend(ctx, "u1", 150, "chapter", "ch-1")
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, "Insufficient coins", res.Error)
	assert.Equal(t, 100, res.Balance)

	balance, err := w.Balance(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 100, balance)

	history, err := w.History(ctx, "u1", 0)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestSpendWithoutProfile(t *testing.T) {
	res, err := setupWallet(t).Spend(context.Background(), "nobody", 1, "", "")
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, 0, res.Balance)
}

func TestPurchaseCreditsCoinsPlusBonus(t *testing.T) {
	ctx := context.Background()
	w := setupWallet(t)

	res, err := w.Purchase(ctx, "u1", "reader")
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, 550, res.Balance)
	require.NotNil(t, res.Transaction)
	assert.Equal(t, db.TxPurchase, res.Transaction.Type)
	assert.Equal(t, "reader", res.Transaction.Reference)

	_, err = w.Purchase(ctx, "u1", "retired")
	assert.ErrorIs(t, err, ErrPackageNotFound)
	_, err = w.Purchase(ctx, "u1", "ghost")
	assert.ErrorIs(t, err, ErrPackageNotFound)
}

func TestLedgerBalancesChain(t *testing.T) {
	ctx := context.Background()
	w := setupWallet(t)

	_, err := w.Purchase(ctx, "u1", "reader")
	require.NoError(t, err)
	_, err = w.Spend(ctx, "u1", 200, "volume", "p1")
	require.NoError(t, err)
	_, err = w.Refund(ctx, "u1", 50, "p1", "partial refund")
	require.NoError(t, err)
	_, err = w.Earn(ctx, "u1", 5, "daily login")
	require.NoError(t, err)

	history, err := w.History(ctx, "u1", 0)
	require.NoError(t, err)
	require.Len(t, history, 4)

	// oldest first for the chain check
	prev := 0
	for i := len(history) - 1; i >= 0; i-- {
		tx := history[i]
		assert.Equal(t, prev+tx.Amount, tx.BalanceAfter, "transaction %s", tx.Type)
		prev = tx.BalanceAfter
	}

	balance, err := w.Balance(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, prev, balance)
	assert.Equal(t, 405, balance)

	limited, err := w.History(ctx, "u1", 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestInvalidAmounts(t *testing.T) {
	ctx := context.Background()
	w := setupWallet(t)

	_, err := w.Spend(ctx, "u1", 0, "", "")
	assert.ErrorIs(t, err, ErrInvalidAmount)
	_, err = w.Earn(ctx, "u1", -5, "")
	assert.ErrorIs(t, err, ErrInvalidAmount)
	_, err = w.Refund(ctx, "u1", 0, "", "")
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestUnlockProduct(t *testing.T) {
	ctx := context.Background()
	w := setupWallet(t)
	price := 30
	product := db.Product{Meta: db.Meta{ID: "p1"}, Title: "Digital Vol. 1", CanUnlockWithCoins: true, CoinPrice: &price}

	res, err := w.UnlockProduct(ctx, "u1", product)
	require.NoError(t, err)
	assert.False(t, res.Success)

	_, err = w.Earn(ctx, "u1", 100, "")
	require.NoError(t, err)

	res, err = w.UnlockProduct(ctx, "u1", product)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, 70, res.Balance)

	owned, err := w.IsUnlocked(ctx, "u1", "p1")
	require.NoError(t, err)
	assert.True(t, owned)

	_, err = w.UnlockProduct(ctx, "u1", product)
	assert.ErrorIs(t, err, ErrAlreadyUnlocked)

	_, err = w.UnlockProduct(ctx, "u1", db.Product{Meta: db.Meta{ID: "p2"}})
	assert.ErrorIs(t, err, ErrNotUnlockable)

	balance, err := w.Balance(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 70, balance)
}

func TestUnlockChapter(t *testing.T) {
	ctx := context.Background()
	w := setupWallet(t)
	_, err := w.Earn(ctx, "u1", 10, "")
	require.NoError(t, err)

	_, err = w.UnlockChapter(ctx, "u1", db.Chapter{Meta: db.Meta{ID: "c0"}, IsFree: true})
	assert.ErrorIs(t, err, ErrNotUnlockable)

	res, err := w.UnlockChapter(ctx, "u1", db.Chapter{Meta: db.Meta{ID: "c1"}, Number: 12, CoinPrice: 10})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, 0, res.Balance)
	assert.Equal(t, "Unlocked chapter 12", res.Transaction.Description)
}

func TestConcurrentSpendsNeverOverdraw(t *testing.T) {
	ctx := context.Background()
	w := setupWallet(t)
	_, err := w.Earn(ctx, "u1", 50, "")
	require.NoError(t, err)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := w.Spend(ctx, "u1", 10, "", "")
			if err == nil && res.Success {
				mu.Lock()
				accepted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 5, accepted)
	balance, err := w.Balance(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 0, balance)
}
