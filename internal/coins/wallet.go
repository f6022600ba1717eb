package coins

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mahinbs/series-shop-beacon-32-sub001/internal/db"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrPackageNotFound is returned when purchasing an unknown or inactive package.
	ErrPackageNotFound = errors.New("coin package not found")

	// ErrInvalidAmount is returned for zero or negative coin amounts.
	ErrInvalidAmount = errors.New("coin amount must be positive")

	// ErrNotUnlockable is returned for items that cannot be bought with coins.
	ErrNotUnlockable = errors.New("item cannot be unlocked with coins")

	// ErrAlreadyUnlocked is returned when the user already owns the item.
	ErrAlreadyUnlocked = errors.New("item already unlocked")

	errInsufficient = errors.New("insufficient coins")
)

// InsufficientCoins is the Result.Error of a rejected spend.
const InsufficientCoins = "Insufficient coins"

const txRetries = 3

// Result is the outcome of a balance mutation. A spend beyond the balance is
// reported as Success false with the unchanged balance, not as an error.
type Result struct {
	Success     bool                `json:"success"`
	Error       string              `json:"error,omitempty"`
	Balance     int                 `json:"balance"`
	Transaction *db.CoinTransaction `json:"transaction,omitempty"`
}

// PackageSource resolves coin packages; the CMS coin package service implements it.
type PackageSource interface {
	Get(ctx context.Context, id string) (db.CoinPackage, error)
}

// Wallet owns coin balances and the transaction ledger. Every mutation
// updates profiles.coin_balance and appends to coin_transactions in one
// database transaction.
type Wallet struct {
	db       *db.DB
	packages PackageSource
	log      *zap.Logger
	now      func() time.Time
}

func NewWallet(database *db.DB, packages PackageSource, logger *zap.Logger) *Wallet {
	return &Wallet{db: database, packages: packages, log: logger, now: time.Now}
}

// Balance returns the user's balance; users without a profile have 0.
func (w *Wallet) Balance(ctx context.Context, userID string) (int, error) {
	var profile db.Profile
	err := w.db.WithContext(ctx).Select("coin_balance").Where("id = ?", userID).First(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		w.log.Error("Failed to read balance", zap.String("user_id", userID), zap.Error(err))
		return 0, err
	}
	return profile.CoinBalance, nil
}

// History returns the user's ledger, newest first. limit <= 0 returns everything.
func (w *Wallet) History(ctx context.Context, userID string, limit int) ([]db.CoinTransaction, error) {
	q := w.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC").Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var txs []db.CoinTransaction
	if err := q.Find(&txs).Error; err != nil {
		w.log.Error("Failed to list coin transactions", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	return txs, nil
}

// Purchase credits the package's coins plus bonus. Payment is settled
// before this is called.
func (w *Wallet) Purchase(ctx context.Context, userID, packageID string) (Result, error) {
	pkg, err := w.packages.Get(ctx, packageID)
	if err != nil || !pkg.IsActive {
		return Result{}, fmt.Errorf("%w: %s", ErrPackageNotFound, packageID)
	}
	desc := fmt.Sprintf("Purchased %s (%d coins)", pkg.Name, pkg.TotalCoins())
	return w.apply(ctx, userID, db.TxPurchase, pkg.TotalCoins(), desc, pkg.ID, nil)
}

// Earn credits a reward or an admin grant.
func (w *Wallet) Earn(ctx context.Context, userID string, amount int, description string) (Result, error) {
	if amount <= 0 {
		return Result{}, ErrInvalidAmount
	}
	return w.apply(ctx, userID, db.TxEarn, amount, description, "", nil)
}

// Refund credits coins back against reference.
func (w *Wallet) Refund(ctx context.Context, userID string, amount int, reference, description string) (Result, error) {
	if amount <= 0 {
		return Result{}, ErrInvalidAmount
	}
	return w.apply(ctx, userID, db.TxRefund, amount, description, reference, nil)
}

// Spend debits amount if the balance covers it.
func (w *Wallet) Spend(ctx context.Context, userID string, amount int, description, reference string) (Result, error) {
	if amount <= 0 {
		return Result{}, ErrInvalidAmount
	}
	return w.apply(ctx, userID, db.TxSpend, -amount, description, reference, nil)
}

// UnlockProduct spends the product's coin price and records the unlock.
func (w *Wallet) UnlockProduct(ctx context.Context, userID string, p db.Product) (Result, error) {
	if !p.CanUnlockWithCoins || p.CoinPrice == nil || *p.CoinPrice <= 0 {
		return Result{}, fmt.Errorf("%w: %s", ErrNotUnlockable, p.ID)
	}
	return w.unlock(ctx, userID, p.ID, *p.CoinPrice, "Unlocked "+p.Title)
}

// UnlockChapter spends the chapter's coin price. Free chapters need no unlock.
func (w *Wallet) UnlockChapter(ctx context.Context, userID string, ch db.Chapter) (Result, error) {
	if ch.IsFree || ch.CoinPrice <= 0 {
		return Result{}, fmt.Errorf("%w: %s", ErrNotUnlockable, ch.ID)
	}
	return w.unlock(ctx, userID, ch.ID, ch.CoinPrice, fmt.Sprintf("Unlocked chapter %g", ch.Number))
}

// IsUnlocked reports whether the user has unlocked itemID.
func (w *Wallet) IsUnlocked(ctx context.Context, userID, itemID string) (bool, error) {
	var count int64
	err := w.db.WithContext(ctx).Model(&db.CoinUnlock{}).
		Where("user_id = ? AND item_id = ?", userID, itemID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (w *Wallet) unlock(ctx context.Context, userID, itemID string, price int, desc string) (Result, error) {
	owned, err := w.IsUnlocked(ctx, userID, itemID)
	if err != nil {
		return Result{}, err
	}
	if owned {
		return Result{}, fmt.Errorf("%w: %s", ErrAlreadyUnlocked, itemID)
	}

	return w.apply(ctx, userID, db.TxSpend, -price, desc, itemID, func(tx *gorm.DB, now time.Time) error {
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&db.CoinUnlock{
			ID:         uuid.NewString(),
			UserID:     userID,
			ItemID:     itemID,
			CoinsSpent: price,
			CreatedAt:  now,
		})
		if res.Error != nil {
			return res.Error
		}
		// a concurrent unlock won the race; roll back this spend
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: %s", ErrAlreadyUnlocked, itemID)
		}
		return nil
	})
}

// apply moves the balance by amount and appends the ledger row. For
// debits the update is conditional on the balance covering the amount.
func (w *Wallet) apply(ctx context.Context, userID string, typ db.TransactionType, amount int, desc, ref string, extra func(*gorm.DB, time.Time) error) (Result, error) {
	var entry db.CoinTransaction

	err := w.db.WithRetry(ctx, txRetries, func(tx *gorm.DB) error {
		now := w.now().UTC()

		// profiles are created lazily by the first ledger write
		err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&db.Profile{
			ID:        userID,
			CreatedAt: now,
			UpdatedAt: now,
		}).Error
		if err != nil {
			return err
		}

		update := tx.Model(&db.Profile{}).Where("id = ?", userID)
		if amount < 0 {
			update = update.Where("coin_balance >= ?", -amount)
		}
		res := update.Updates(map[string]interface{}{
			"coin_balance": gorm.Expr("coin_balance + ?", amount),
			"updated_at":   now,
		})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errInsufficient
		}

		var profile db.Profile
		if err := tx.Select("coin_balance").Where("id = ?", userID).First(&profile).Error; err != nil {
			return err
		}

		entry = db.CoinTransaction{
			ID:           uuid.NewString(),
			UserID:       userID,
			Type:         typ,
			Amount:       amount,
			BalanceAfter: profile.CoinBalance,
			Description:  desc,
			Reference:    ref,
			CreatedAt:    now,
		}
		if err := tx.Create(&entry).Error; err != nil {
			return err
		}

		if extra != nil {
			return extra(tx, now)
		}
		return nil
	})

	if errors.Is(err, errInsufficient) {
		balance, balErr := w.Balance(ctx, userID)
		if balErr != nil {
			return Result{}, balErr
		}
		w.log.Info("Coin spend rejected",
			zap.String("user_id", userID),
			zap.Int("amount", -amount),
			zap.Int("balance", balance))
		return Result{Success: false, Error: InsufficientCoins, Balance: balance}, nil
	}
	if err != nil {
		if !errors.Is(err, ErrAlreadyUnlocked) {
			w.log.Error("Coin transaction failed",
				zap.String("user_id", userID),
				zap.String("type", string(typ)),
				zap.Error(err))
		}
		return Result{}, err
	}

	w.log.Info("Coin transaction recorded",
		zap.String("user_id", userID),
		zap.String("type", string(typ)),
		zap.Int("amount", amount),
		zap.Int("balance_after", entry.BalanceAfter))
	return Result{Success: true, Balance: entry.BalanceAfter, Transaction: &entry}, nil
}
