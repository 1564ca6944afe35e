package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

// Gateway verifies a charge against the external payment provider. The call
// happens before the confirmation transaction and is never retried inside it.
type Gateway interface {
	VerifyTransaction(ctx context.Context, reference string) (*VerifiedTransaction, error)
}

// Service implements the idempotent confirmation protocol: verify once,
// validate purpose and amount server-side, then commit all side effects of the
// payment exactly once per reference.
type Service interface {
	ConfirmSubscription(ctx context.Context, reference string) (*ConfirmResult, error)
	ConfirmAddon(ctx context.Context, reference string) (*ConfirmResult, error)
	ConfirmPromotion(ctx context.Context, reference string) (*ConfirmResult, error)

	CreateCampaign(ctx context.Context, req CreateCampaignRequest) (*Campaign, error)
	GetCampaign(ctx context.Context, id snowflake.ID) (*Campaign, error)
}

// CreateCampaignRequest drafts a campaign in PENDING_PAYMENT; the stored
// amount is what the promotion confirmation later validates against.
type CreateCampaignRequest struct {
	BusinessID   snowflake.ID
	Name         string
	AmountKobo   int64
	DurationDays int
}
