// Package seed bootstraps the rows the services assume exist: the platform
// finance singleton and an editable config document per plan and add-on.
package seed

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"time"

	financedomain "github.com/apexmarket/vendora/internal/finance/domain"
	plandomain "github.com/apexmarket/vendora/internal/plan/domain"
	"gorm.io/gorm"
)

// EnsurePlatformFinance inserts the aggregate singleton if it is missing.
// Revenue and payout writes target this row by fixed id.
func EnsurePlatformFinance(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}
	ctx := context.Background()
	return db.WithContext(ctx).Exec(
		`INSERT INTO platform_finance (id, balance_kobo, subscription_revenue_kobo, boost_revenue_kobo, payout_outflow_kobo, updated_at)
		 VALUES (?, 0, 0, 0, 0, ?)
		 ON CONFLICT (id) DO NOTHING`,
		financedomain.PlatformFinanceID,
		time.Now().UTC(),
	).Error
}

// EnsureDefaultPlanConfigs writes one config document per built-in plan and
// add-on so admins edit a full starting document instead of an empty one.
// Existing documents are never touched.
func EnsureDefaultPlanConfigs(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	docs := make(map[string]any)
	for key, plan := range plandomain.DefaultPlans() {
		docs["plan:"+key] = plan
	}
	for sku, addon := range plandomain.DefaultAddons() {
		docs["addon:"+sku] = addon
	}

	keys := make([]string, 0, len(docs))
	for key := range docs {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, key := range keys {
			encoded, err := json.Marshal(docs[key])
			if err != nil {
				return err
			}
			err = tx.Exec(
				`INSERT INTO plan_configs (key, doc, updated_at)
				 VALUES (?, ?, ?)
				 ON CONFLICT (key) DO NOTHING`,
				key,
				encoded,
				time.Now().UTC(),
			).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
}
