package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

var (
	ErrUnknownPlan  = errors.New("unknown plan")
	ErrUnknownAddon = errors.New("unknown addon sku")
	ErrUnknownCycle = errors.New("unknown billing cycle")
	ErrNotPriced    = errors.New("not priced for cycle")
)

// Service resolves effective plans and server-side prices. It never mutates
// state and is safe at arbitrary read concurrency.
type Service interface {
	Resolve(ctx context.Context, businessID snowflake.ID) (*Resolution, error)
	PlanByKey(ctx context.Context, planKey string) (*Plan, error)
	PlanPrice(ctx context.Context, planKey, cycle string) (int64, error)
	AddonByKey(ctx context.Context, sku string) (*AddonDefinition, error)
	AddonPrice(ctx context.Context, sku, cycle string) (int64, error)
}
