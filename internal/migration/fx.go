package migration

import (
	billingdomain "github.com/apexmarket/vendora/internal/billing/domain"
	businessdomain "github.com/apexmarket/vendora/internal/business/domain"
	"github.com/apexmarket/vendora/internal/config"
	financedomain "github.com/apexmarket/vendora/internal/finance/domain"
	plandomain "github.com/apexmarket/vendora/internal/plan/domain"
	"github.com/apexmarket/vendora/internal/seed"
	walletdomain "github.com/apexmarket/vendora/internal/wallet/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if cfg.DBType == "postgres" {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			if err := RunMigrations(sqlDB); err != nil {
				return err
			}
		} else {
			// The versioned migrations target postgres; other dialects are for
			// local development and get the schema straight from the models.
			if err := AutoMigrate(conn); err != nil {
				return err
			}
		}

		if err := seed.EnsurePlatformFinance(conn); err != nil {
			return err
		}
		return seed.EnsureDefaultPlanConfigs(conn)
	}),
)

// AutoMigrate creates the schema from the gorm models.
func AutoMigrate(conn *gorm.DB) error {
	return conn.AutoMigrate(
		&businessdomain.Business{},
		&businessdomain.AddonEntitlement{},
		&businessdomain.Product{},
		&businessdomain.Order{},
		&businessdomain.Dispute{},
		&businessdomain.PolicyViolation{},
		&plandomain.ConfigRow{},
		&billingdomain.Confirmation{},
		&billingdomain.Campaign{},
		&financedomain.PlatformFinance{},
		&financedomain.LedgerEntry{},
		&walletdomain.Wallet{},
		&walletdomain.WithdrawalRequest{},
	)
}
