package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

// Service runs the trust recompute. Triggering is external; the service only
// exposes the single-vendor and plan-scoped batch entry points.
type Service interface {
	RecomputeBusiness(ctx context.Context, businessID snowflake.ID) (*Result, error)
	RecomputePlan(ctx context.Context, planKey string) ([]Result, error)
}
