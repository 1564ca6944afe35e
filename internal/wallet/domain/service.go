package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

var (
	ErrWalletNotFound     = errors.New("wallet not found")
	ErrWithdrawalNotFound = errors.New("withdrawal request not found")
	ErrInvalidAmount      = errors.New("amount must be positive")
	ErrInsufficientFunds  = errors.New("insufficient available balance")
	ErrInsufficientHold   = errors.New("insufficient withdraw hold")
	ErrInvalidTransition  = errors.New("invalid withdrawal state transition")
)

// Service owns every wallet and withdrawal mutation. Each transition runs as
// one transaction spanning the withdrawal row, the wallet row, the platform
// aggregate and a ledger append.
type Service interface {
	Get(ctx context.Context, businessID snowflake.ID) (*Wallet, error)
	Credit(ctx context.Context, businessID snowflake.ID, amountKobo int64) (*Wallet, error)
	CreditTx(ctx context.Context, tx *gorm.DB, businessID snowflake.ID, amountKobo int64) error

	RequestWithdrawal(ctx context.Context, businessID snowflake.ID, amountKobo int64) (*WithdrawalRequest, error)
	Approve(ctx context.Context, id snowflake.ID, note string) (*WithdrawalRequest, error)
	Reject(ctx context.Context, id snowflake.ID, note string) (*WithdrawalRequest, error)
	MarkPaid(ctx context.Context, id snowflake.ID, note string) (*WithdrawalRequest, error)
	GetWithdrawal(ctx context.Context, id snowflake.ID) (*WithdrawalRequest, error)
}
