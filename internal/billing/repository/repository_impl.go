package repository

import (
	"context"
	"errors"

	billingdomain "github.com/apexmarket/vendora/internal/billing/domain"
	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository interface {
	FindConfirmation(ctx context.Context, db *gorm.DB, purpose billingdomain.Purpose, reference string) (*billingdomain.Confirmation, error)
	InsertConfirmation(ctx context.Context, db *gorm.DB, c *billingdomain.Confirmation) (bool, error)

	InsertCampaign(ctx context.Context, db *gorm.DB, c *billingdomain.Campaign) error
	FindCampaign(ctx context.Context, db *gorm.DB, id snowflake.ID) (*billingdomain.Campaign, error)
	FindCampaignForUpdate(ctx context.Context, db *gorm.DB, id snowflake.ID) (*billingdomain.Campaign, error)
	UpdateCampaign(ctx context.Context, db *gorm.DB, c *billingdomain.Campaign) error
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

func (r *repo) FindConfirmation(ctx context.Context, db *gorm.DB, purpose billingdomain.Purpose, reference string) (*billingdomain.Confirmation, error) {
	var confirmation billingdomain.Confirmation
	err := db.WithContext(ctx).
		Where("purpose = ? AND reference = ?", purpose, reference).
		First(&confirmation).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &confirmation, nil
}

// InsertConfirmation writes the idempotency record. It reports false when a
// confirmation for the same (purpose, reference) already exists.
func (r *repo) InsertConfirmation(ctx context.Context, db *gorm.DB, c *billingdomain.Confirmation) (bool, error) {
	result := db.WithContext(ctx).Exec(
		`INSERT INTO payment_confirmations (id, purpose, reference, business_id, amount_kobo, result, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (purpose, reference) DO NOTHING`,
		c.ID,
		string(c.Purpose),
		c.Reference,
		c.BusinessID,
		c.AmountKobo,
		c.Result,
		c.CreatedAt,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repo) InsertCampaign(ctx context.Context, db *gorm.DB, c *billingdomain.Campaign) error {
	return db.WithContext(ctx).Create(c).Error
}

func (r *repo) FindCampaign(ctx context.Context, db *gorm.DB, id snowflake.ID) (*billingdomain.Campaign, error) {
	var campaign billingdomain.Campaign
	err := db.WithContext(ctx).Where("id = ?", id).First(&campaign).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &campaign, nil
}

func (r *repo) FindCampaignForUpdate(ctx context.Context, db *gorm.DB, id snowflake.ID) (*billingdomain.Campaign, error) {
	var campaign billingdomain.Campaign
	err := forUpdate(db.WithContext(ctx)).Where("id = ?", id).First(&campaign).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &campaign, nil
}

func (r *repo) UpdateCampaign(ctx context.Context, db *gorm.DB, c *billingdomain.Campaign) error {
	return db.WithContext(ctx).
		Model(&billingdomain.Campaign{}).
		Where("id = ?", c.ID).
		Updates(map[string]any{
			"status":            c.Status,
			"payment_reference": c.PaymentReference,
			"starts_at":         c.StartsAt,
			"ends_at":           c.EndsAt,
			"updated_at":        c.UpdatedAt,
		}).Error
}
