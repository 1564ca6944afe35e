package service

import (
	"context"
	"time"

	"github.com/apexmarket/vendora/internal/clock"
	financedomain "github.com/apexmarket/vendora/internal/finance/domain"
	"github.com/apexmarket/vendora/internal/metrics"
	walletdomain "github.com/apexmarket/vendora/internal/wallet/domain"
	walletrepository "github.com/apexmarket/vendora/internal/wallet/repository"
	"github.com/bwmarrin/snowflake"
	"github.com/oklog/ulid/v2"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Clock      clock.Clock
	Repo       walletrepository.Repository
	FinanceSvc financedomain.Service
	Metrics    *metrics.Metrics `optional:"true"`
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	clock      clock.Clock
	repo       walletrepository.Repository
	financeSvc financedomain.Service
	metrics    *metrics.Metrics
}

func NewService(p Params) walletdomain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("wallet.service"),
		genID:      p.GenID,
		clock:      p.Clock,
		repo:       p.Repo,
		financeSvc: p.FinanceSvc,
		metrics:    p.Metrics,
	}
}

func (s *Service) Get(ctx context.Context, businessID snowflake.ID) (*walletdomain.Wallet, error) {
	wallet, err := s.repo.FindWallet(ctx, s.db, businessID)
	if err != nil {
		return nil, err
	}
	if wallet == nil {
		return nil, walletdomain.ErrWalletNotFound
	}
	return wallet, nil
}

// Credit adds settled escrow funds to the vendor's spendable balance.
func (s *Service) Credit(ctx context.Context, businessID snowflake.ID, amountKobo int64) (*walletdomain.Wallet, error) {
	var wallet *walletdomain.Wallet
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.CreditTx(ctx, tx, businessID, amountKobo); err != nil {
			return err
		}
		var err error
		wallet, err = s.repo.FindWallet(ctx, tx, businessID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return wallet, nil
}

// CreditTx credits the wallet inside the caller's transaction.
func (s *Service) CreditTx(ctx context.Context, tx *gorm.DB, businessID snowflake.ID, amountKobo int64) error {
	if amountKobo <= 0 {
		return walletdomain.ErrInvalidAmount
	}
	if err := s.repo.EnsureWallet(ctx, tx, businessID); err != nil {
		return err
	}
	wallet, err := s.repo.FindWalletForUpdate(ctx, tx, businessID)
	if err != nil {
		return err
	}
	if wallet == nil {
		return walletdomain.ErrWalletNotFound
	}

	wallet.AvailableBalanceKobo += amountKobo
	wallet.UpdatedAt = s.clock.Now()
	return s.repo.UpdateWallet(ctx, tx, wallet)
}

// RequestWithdrawal moves the requested amount from the available balance into
// the withdraw hold and opens a pending request, atomically.
func (s *Service) RequestWithdrawal(ctx context.Context, businessID snowflake.ID, amountKobo int64) (*walletdomain.WithdrawalRequest, error) {
	if amountKobo <= 0 {
		return nil, walletdomain.ErrInvalidAmount
	}

	request := &walletdomain.WithdrawalRequest{
		ID:          s.genID.Generate(),
		BusinessID:  businessID,
		AmountKobo:  amountKobo,
		Status:      walletdomain.WithdrawalStatusPending,
		RequestedAt: s.clock.Now(),
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		wallet, err := s.repo.FindWalletForUpdate(ctx, tx, businessID)
		if err != nil {
			return err
		}
		if wallet == nil {
			return walletdomain.ErrWalletNotFound
		}
		if wallet.AvailableBalanceKobo < amountKobo {
			return walletdomain.ErrInsufficientFunds
		}

		wallet.AvailableBalanceKobo -= amountKobo
		wallet.WithdrawHoldKobo += amountKobo
		wallet.UpdatedAt = s.clock.Now()
		if err := s.repo.UpdateWallet(ctx, tx, wallet); err != nil {
			return err
		}
		return s.repo.InsertWithdrawal(ctx, tx, request)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("withdrawal requested",
		zap.String("business_id", businessID.String()),
		zap.Int64("amount_kobo", amountKobo),
	)
	return request, nil
}

// Approve records admin approval. No funds move; the hold placed at request
// time stays reserved until the payout is marked paid.
func (s *Service) Approve(ctx context.Context, id snowflake.ID, note string) (*walletdomain.WithdrawalRequest, error) {
	var request *walletdomain.WithdrawalRequest
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		request, err = s.repo.FindWithdrawalForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if request == nil {
			return walletdomain.ErrWithdrawalNotFound
		}
		if request.Status != walletdomain.WithdrawalStatusPending {
			return walletdomain.ErrInvalidTransition
		}

		now := s.clock.Now()
		request.Status = walletdomain.WithdrawalStatusApproved
		request.AdminNote = note
		request.ApprovedAt = &now
		return s.repo.UpdateWithdrawal(ctx, tx, request)
	})
	if err != nil {
		return nil, err
	}
	return request, nil
}

// Reject returns the held amount to the available balance and closes the
// request. Only pending requests can be rejected.
func (s *Service) Reject(ctx context.Context, id snowflake.ID, note string) (*walletdomain.WithdrawalRequest, error) {
	var request *walletdomain.WithdrawalRequest
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		request, err = s.repo.FindWithdrawalForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if request == nil {
			return walletdomain.ErrWithdrawalNotFound
		}
		if request.Status != walletdomain.WithdrawalStatusPending {
			return walletdomain.ErrInvalidTransition
		}

		wallet, err := s.repo.FindWalletForUpdate(ctx, tx, request.BusinessID)
		if err != nil {
			return err
		}
		if wallet == nil {
			return walletdomain.ErrWalletNotFound
		}
		if wallet.WithdrawHoldKobo < request.AmountKobo {
			return walletdomain.ErrInsufficientHold
		}

		now := s.clock.Now()
		wallet.WithdrawHoldKobo -= request.AmountKobo
		wallet.AvailableBalanceKobo += request.AmountKobo
		wallet.UpdatedAt = now
		if err := s.repo.UpdateWallet(ctx, tx, wallet); err != nil {
			return err
		}

		request.Status = walletdomain.WithdrawalStatusRejected
		request.AdminNote = note
		request.RejectedAt = &now
		return s.repo.UpdateWithdrawal(ctx, tx, request)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("withdrawal rejected",
		zap.String("withdrawal_id", id.String()),
		zap.Int64("amount_kobo", request.AmountKobo),
	)
	return request, nil
}

// MarkPaid settles the payout: the hold is consumed, lifetime withdrawn grows,
// the platform aggregate is debited and a payout_outflow ledger entry is
// appended, all in one transaction.
func (s *Service) MarkPaid(ctx context.Context, id snowflake.ID, note string) (*walletdomain.WithdrawalRequest, error) {
	var request *walletdomain.WithdrawalRequest
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		request, err = s.repo.FindWithdrawalForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if request == nil {
			return walletdomain.ErrWithdrawalNotFound
		}
		if request.Status != walletdomain.WithdrawalStatusPending &&
			request.Status != walletdomain.WithdrawalStatusApproved {
			return walletdomain.ErrInvalidTransition
		}

		wallet, err := s.repo.FindWalletForUpdate(ctx, tx, request.BusinessID)
		if err != nil {
			return err
		}
		if wallet == nil {
			return walletdomain.ErrWalletNotFound
		}
		// Guards against a hold that was never correctly placed.
		if wallet.WithdrawHoldKobo < request.AmountKobo {
			return walletdomain.ErrInsufficientHold
		}

		now := s.clock.Now()
		wallet.WithdrawHoldKobo -= request.AmountKobo
		wallet.TotalWithdrawnKobo += request.AmountKobo
		wallet.UpdatedAt = now
		if err := s.repo.UpdateWallet(ctx, tx, wallet); err != nil {
			return err
		}

		payoutRef := newPayoutRef(now)
		if err := s.financeSvc.RecordPayout(ctx, tx, payoutRef, request.BusinessID, request.AmountKobo); err != nil {
			return err
		}

		request.Status = walletdomain.WithdrawalStatusPaid
		request.AdminNote = note
		request.PayoutRef = payoutRef
		request.PaidAt = &now
		return s.repo.UpdateWithdrawal(ctx, tx, request)
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.Payouts.Inc()
	}
	s.log.Info("withdrawal paid",
		zap.String("withdrawal_id", id.String()),
		zap.String("payout_ref", request.PayoutRef),
		zap.Int64("amount_kobo", request.AmountKobo),
	)
	return request, nil
}

func (s *Service) GetWithdrawal(ctx context.Context, id snowflake.ID) (*walletdomain.WithdrawalRequest, error) {
	request, err := s.repo.FindWithdrawal(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if request == nil {
		return nil, walletdomain.ErrWithdrawalNotFound
	}
	return request, nil
}

func newPayoutRef(now time.Time) string {
	return "po_" + ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy()).String()
}
