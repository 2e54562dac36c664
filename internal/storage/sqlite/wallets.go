package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mmynk/tripfund/internal/calculator"
	"github.com/mmynk/tripfund/internal/models"
	"github.com/mmynk/tripfund/internal/storage"
)

const (
	walletColumns   = `id, user_id, balance, card_number, status, created_at`
	walletTxColumns = `id, wallet_id, amount, type, description, status, processor_id, created_at`

	txPending   = "pending"
	txCompleted = "completed"
	txFailed    = "failed"
)

// CreateWallet persists a wallet and its rewards record.
func (s *SQLiteStore) CreateWallet(ctx context.Context, wallet *models.Wallet) error {
	if wallet.ID == "" {
		wallet.ID = newID()
	}
	if wallet.CardNumber == "" {
		wallet.CardNumber = cardNumber()
	}
	if wallet.Status == "" {
		wallet.Status = models.WalletActive
	}
	if wallet.CreatedAt == 0 {
		wallet.CreatedAt = nowUnix()
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO wallets (`+walletColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
			wallet.ID, wallet.UserID, wallet.Balance, wallet.CardNumber, wallet.Status, wallet.CreatedAt,
		)
		if isUniqueViolation(err) {
			return fmt.Errorf("wallet for user %s: %w", wallet.UserID, storage.ErrConflict)
		}
		if err != nil {
			return fmt.Errorf("failed to insert wallet: %w", err)
		}

		_, err = tx.ExecContext(ctx,
			"INSERT INTO wallet_rewards (wallet_id, points, level, last_updated) VALUES (?, ?, ?, ?)",
			wallet.ID, decimal.Zero, models.LevelBronze, wallet.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert wallet rewards: %w", err)
		}
		return nil
	})
}

// GetWalletByUser retrieves the wallet owned by userID.
func (s *SQLiteStore) GetWalletByUser(ctx context.Context, userID string) (*models.Wallet, error) {
	return walletByUser(ctx, s.db, userID)
}

// CreateDeposit records a pending deposit for a processor payment.
func (s *SQLiteStore) CreateDeposit(ctx context.Context, walletID string, amount decimal.Decimal, processorID string) (*models.WalletTransaction, error) {
	wtx := &models.WalletTransaction{
		ID:          newID(),
		WalletID:    walletID,
		Amount:      amount,
		Type:        models.TxDeposit,
		Description: "card deposit",
		Status:      txPending,
		ProcessorID: processorID,
		CreatedAt:   nowUnix(),
	}
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		return insertWalletTx(ctx, tx, wtx)
	})
	if err != nil {
		return nil, err
	}
	return wtx, nil
}

// ConfirmDeposit credits a pending deposit and adds its reward points.
func (s *SQLiteStore) ConfirmDeposit(ctx context.Context, processorID string) (*models.WalletTransaction, error) {
	var wtx *models.WalletTransaction
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		wtx, err = pendingDeposit(ctx, tx, processorID)
		if err != nil {
			return err
		}

		wallet, err := walletByID(ctx, tx, wtx.WalletID)
		if err != nil {
			return err
		}
		if err := setBalance(ctx, tx, wallet.ID, wallet.Balance.Add(wtx.Amount)); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx,
			"UPDATE wallet_transactions SET status = ? WHERE id = ?", txCompleted, wtx.ID,
		); err != nil {
			return fmt.Errorf("failed to complete deposit: %w", err)
		}
		wtx.Status = txCompleted

		rewards, err := rewardsByWallet(ctx, tx, wallet.ID)
		if err != nil {
			return err
		}
		points := rewards.Points.Add(calculator.RewardPoints(wtx.Amount))
		_, err = tx.ExecContext(ctx,
			"UPDATE wallet_rewards SET points = ?, level = ?, last_updated = ? WHERE wallet_id = ?",
			points, calculator.RewardLevel(points), nowUnix(), wallet.ID,
		)
		if err != nil {
			return fmt.Errorf("failed to update rewards: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return wtx, nil
}

// FailDeposit marks a pending deposit as failed.
func (s *SQLiteStore) FailDeposit(ctx context.Context, processorID string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		wtx, err := pendingDeposit(ctx, tx, processorID)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			"UPDATE wallet_transactions SET status = ? WHERE id = ?", txFailed, wtx.ID,
		); err != nil {
			return fmt.Errorf("failed to fail deposit: %w", err)
		}
		return nil
	})
}

// Transfer moves amount from one user's wallet to another's.
func (s *SQLiteStore) Transfer(ctx context.Context, fromUserID, toUserID string, amount decimal.Decimal) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		return moveFunds(ctx, tx, fromUserID, toUserID, amount, models.TxTransfer, "wallet transfer")
	})
}

// ListWalletTransactions returns a wallet's history, newest first.
func (s *SQLiteStore) ListWalletTransactions(ctx context.Context, walletID string) ([]*models.WalletTransaction, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+walletTxColumns+` FROM wallet_transactions WHERE wallet_id = ? ORDER BY created_at DESC, rowid DESC`,
		walletID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list wallet transactions: %w", err)
	}
	defer rows.Close()

	var txs []*models.WalletTransaction
	for rows.Next() {
		wtx := &models.WalletTransaction{}
		if err := rows.Scan(
			&wtx.ID, &wtx.WalletID, &wtx.Amount, &wtx.Type, &wtx.Description,
			&wtx.Status, &wtx.ProcessorID, &wtx.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan wallet transaction: %w", err)
		}
		txs = append(txs, wtx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate wallet transactions: %w", err)
	}
	return txs, nil
}

// GetRewards retrieves the rewards record of a wallet.
func (s *SQLiteStore) GetRewards(ctx context.Context, walletID string) (*models.WalletRewards, error) {
	return rewardsByWallet(ctx, s.db, walletID)
}

// moveFunds debits fromUserID and credits toUserID inside tx, recording a
// transaction on each side. Funds are checked before either balance changes.
func moveFunds(ctx context.Context, tx *sql.Tx, fromUserID, toUserID string, amount decimal.Decimal, txType, desc string) error {
	if fromUserID == toUserID {
		return fmt.Errorf("transfer to own wallet: %w", calculator.ErrInvalidAmount)
	}
	from, err := walletByUser(ctx, tx, fromUserID)
	if err != nil {
		return err
	}
	to, err := walletByUser(ctx, tx, toUserID)
	if err != nil {
		return err
	}
	if err := checkActive(from); err != nil {
		return err
	}
	if err := checkActive(to); err != nil {
		return err
	}
	if err := calculator.CheckFunds(from.Balance, amount); err != nil {
		return err
	}

	if err := setBalance(ctx, tx, from.ID, from.Balance.Sub(amount)); err != nil {
		return err
	}
	if err := setBalance(ctx, tx, to.ID, to.Balance.Add(amount)); err != nil {
		return err
	}

	now := nowUnix()
	for _, wtx := range []*models.WalletTransaction{
		{WalletID: from.ID, Amount: amount.Neg(), Type: txType, Description: desc, Status: txCompleted, CreatedAt: now},
		{WalletID: to.ID, Amount: amount, Type: txType, Description: desc, Status: txCompleted, CreatedAt: now},
	} {
		wtx.ID = newID()
		if err := insertWalletTx(ctx, tx, wtx); err != nil {
			return err
		}
	}
	return nil
}

// debitWallet withdraws amount from userID's wallet inside tx.
func debitWallet(ctx context.Context, tx *sql.Tx, userID string, amount decimal.Decimal, txType, desc string) error {
	wallet, err := walletByUser(ctx, tx, userID)
	if err != nil {
		return err
	}
	if err := checkActive(wallet); err != nil {
		return err
	}
	if err := calculator.CheckFunds(wallet.Balance, amount); err != nil {
		return err
	}
	if err := setBalance(ctx, tx, wallet.ID, wallet.Balance.Sub(amount)); err != nil {
		return err
	}
	return insertWalletTx(ctx, tx, &models.WalletTransaction{
		ID:          newID(),
		WalletID:    wallet.ID,
		Amount:      amount.Neg(),
		Type:        txType,
		Description: desc,
		Status:      txCompleted,
		CreatedAt:   nowUnix(),
	})
}

func checkActive(w *models.Wallet) error {
	if w.Status != models.WalletActive {
		return fmt.Errorf("wallet %s is %s: %w", w.ID, w.Status, storage.ErrConflict)
	}
	return nil
}

func setBalance(ctx context.Context, tx *sql.Tx, walletID string, balance decimal.Decimal) error {
	_, err := tx.ExecContext(ctx, "UPDATE wallets SET balance = ? WHERE id = ?", balance, walletID)
	if err != nil {
		return fmt.Errorf("failed to update wallet balance: %w", err)
	}
	return nil
}

func insertWalletTx(ctx context.Context, tx *sql.Tx, wtx *models.WalletTransaction) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO wallet_transactions (`+walletTxColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		wtx.ID, wtx.WalletID, wtx.Amount, wtx.Type, wtx.Description, wtx.Status, wtx.ProcessorID, wtx.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert wallet transaction: %w", err)
	}
	return nil
}

func pendingDeposit(ctx context.Context, tx *sql.Tx, processorID string) (*models.WalletTransaction, error) {
	wtx := &models.WalletTransaction{}
	err := tx.QueryRowContext(ctx,
		`SELECT `+walletTxColumns+` FROM wallet_transactions
		WHERE processor_id = ? AND type = ? AND status = ?`,
		processorID, models.TxDeposit, txPending,
	).Scan(
		&wtx.ID, &wtx.WalletID, &wtx.Amount, &wtx.Type, &wtx.Description,
		&wtx.Status, &wtx.ProcessorID, &wtx.CreatedAt,
	)
	if err != nil {
		return nil, notFound(err, "pending deposit", processorID)
	}
	return wtx, nil
}

func walletByUser(ctx context.Context, q queryer, userID string) (*models.Wallet, error) {
	return scanWallet(q.QueryRowContext(ctx, `SELECT `+walletColumns+` FROM wallets WHERE user_id = ?`, userID), userID)
}

func walletByID(ctx context.Context, q queryer, walletID string) (*models.Wallet, error) {
	return scanWallet(q.QueryRowContext(ctx, `SELECT `+walletColumns+` FROM wallets WHERE id = ?`, walletID), walletID)
}

func scanWallet(row *sql.Row, key string) (*models.Wallet, error) {
	w := &models.Wallet{}
	if err := row.Scan(&w.ID, &w.UserID, &w.Balance, &w.CardNumber, &w.Status, &w.CreatedAt); err != nil {
		return nil, notFound(err, "wallet", key)
	}
	return w, nil
}

func rewardsByWallet(ctx context.Context, q queryer, walletID string) (*models.WalletRewards, error) {
	r := &models.WalletRewards{}
	err := q.QueryRowContext(ctx,
		"SELECT wallet_id, points, level, last_updated FROM wallet_rewards WHERE wallet_id = ?", walletID,
	).Scan(&r.WalletID, &r.Points, &r.Level, &r.LastUpdated)
	if err != nil {
		return nil, notFound(err, "wallet rewards", walletID)
	}
	return r, nil
}

// cardNumber returns a virtual card number like 4242-TRIP-1A2B3C4D.
func cardNumber() string {
	hex := strings.ReplaceAll(newID(), "-", "")
	return "4242-TRIP-" + strings.ToUpper(hex[:8])
}
