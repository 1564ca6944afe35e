package repository

import (
	"context"
	"errors"

	walletdomain "github.com/apexmarket/vendora/internal/wallet/domain"
	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository interface {
	FindWallet(ctx context.Context, db *gorm.DB, businessID snowflake.ID) (*walletdomain.Wallet, error)
	FindWalletForUpdate(ctx context.Context, db *gorm.DB, businessID snowflake.ID) (*walletdomain.Wallet, error)
	EnsureWallet(ctx context.Context, db *gorm.DB, businessID snowflake.ID) error
	UpdateWallet(ctx context.Context, db *gorm.DB, w *walletdomain.Wallet) error

	InsertWithdrawal(ctx context.Context, db *gorm.DB, req *walletdomain.WithdrawalRequest) error
	FindWithdrawal(ctx context.Context, db *gorm.DB, id snowflake.ID) (*walletdomain.WithdrawalRequest, error)
	FindWithdrawalForUpdate(ctx context.Context, db *gorm.DB, id snowflake.ID) (*walletdomain.WithdrawalRequest, error)
	UpdateWithdrawal(ctx context.Context, db *gorm.DB, req *walletdomain.WithdrawalRequest) error
}

type repo struct{}

func Provide() Repository {
	return &repo{}
}

func forUpdate(db *gorm.DB) *gorm.DB {
	if db.Dialector.Name() == "sqlite" {
		return db
	}
	return db.Clauses(clause.Locking{Strength: "UPDATE"})
}

func (r *repo) FindWallet(ctx context.Context, db *gorm.DB, businessID snowflake.ID) (*walletdomain.Wallet, error) {
	var wallet walletdomain.Wallet
	err := db.WithContext(ctx).Where("business_id = ?", businessID).First(&wallet).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &wallet, nil
}

func (r *repo) FindWalletForUpdate(ctx context.Context, db *gorm.DB, businessID snowflake.ID) (*walletdomain.Wallet, error) {
	var wallet walletdomain.Wallet
	err := forUpdate(db.WithContext(ctx)).Where("business_id = ?", businessID).First(&wallet).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &wallet, nil
}

func (r *repo) EnsureWallet(ctx context.Context, db *gorm.DB, businessID snowflake.ID) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO wallets (business_id, available_balance_kobo, withdraw_hold_kobo, total_withdrawn_kobo, updated_at)
		 VALUES (?, 0, 0, 0, CURRENT_TIMESTAMP)
		 ON CONFLICT (business_id) DO NOTHING`,
		businessID,
	).Error
}

func (r *repo) UpdateWallet(ctx context.Context, db *gorm.DB, w *walletdomain.Wallet) error {
	return db.WithContext(ctx).
		Model(&walletdomain.Wallet{}).
		Where("business_id = ?", w.BusinessID).
		Updates(map[string]any{
			"available_balance_kobo": w.AvailableBalanceKobo,
			"withdraw_hold_kobo":     w.WithdrawHoldKobo,
			"total_withdrawn_kobo":   w.TotalWithdrawnKobo,
			"updated_at":             w.UpdatedAt,
		}).Error
}

func (r *repo) InsertWithdrawal(ctx context.Context, db *gorm.DB, req *walletdomain.WithdrawalRequest) error {
	return db.WithContext(ctx).Create(req).Error
}

func (r *repo) FindWithdrawal(ctx context.Context, db *gorm.DB, id snowflake.ID) (*walletdomain.WithdrawalRequest, error) {
	var req walletdomain.WithdrawalRequest
	err := db.WithContext(ctx).Where("id = ?", id).First(&req).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *repo) FindWithdrawalForUpdate(ctx context.Context, db *gorm.DB, id snowflake.ID) (*walletdomain.WithdrawalRequest, error) {
	var req walletdomain.WithdrawalRequest
	err := forUpdate(db.WithContext(ctx)).Where("id = ?", id).First(&req).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *repo) UpdateWithdrawal(ctx context.Context, db *gorm.DB, req *walletdomain.WithdrawalRequest) error {
	return db.WithContext(ctx).
		Model(&walletdomain.WithdrawalRequest{}).
		Where("id = ?", req.ID).
		Updates(map[string]any{
			"status":      req.Status,
			"admin_note":  req.AdminNote,
			"payout_ref":  req.PayoutRef,
			"approved_at": req.ApprovedAt,
			"rejected_at": req.RejectedAt,
			"paid_at":     req.PaidAt,
		}).Error
}
