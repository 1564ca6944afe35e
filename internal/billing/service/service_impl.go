package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	billingdomain "github.com/apexmarket/vendora/internal/billing/domain"
	billingrepository "github.com/apexmarket/vendora/internal/billing/repository"
	businessdomain "github.com/apexmarket/vendora/internal/business/domain"
	"github.com/apexmarket/vendora/internal/clock"
	financedomain "github.com/apexmarket/vendora/internal/finance/domain"
	"github.com/apexmarket/vendora/internal/metrics"
	"github.com/apexmarket/vendora/internal/notify"
	plandomain "github.com/apexmarket/vendora/internal/plan/domain"
	"github.com/apexmarket/vendora/internal/reflock"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// errReplayRace marks a transaction that lost the race to write the
// confirmation record; the winner's stored result is returned instead.
var errReplayRace = errors.New("confirmation replay race")

const expectedCurrency = "NGN"

type Params struct {
	fx.In

	DB           *gorm.DB
	Log          *zap.Logger
	GenID        *snowflake.Node
	Clock        clock.Clock
	Gateway      billingdomain.Gateway
	Repo         billingrepository.Repository
	BusinessRepo businessdomain.Repository
	PlanSvc      plandomain.Service
	FinanceSvc   financedomain.Service
	Notifier     notify.Provider
	Locker       *reflock.Locker  `optional:"true"`
	Metrics      *metrics.Metrics `optional:"true"`
}

type Service struct {
	db           *gorm.DB
	log          *zap.Logger
	genID        *snowflake.Node
	clock        clock.Clock
	gateway      billingdomain.Gateway
	repo         billingrepository.Repository
	businessRepo businessdomain.Repository
	planSvc      plandomain.Service
	financeSvc   financedomain.Service
	notifier     notify.Provider
	locker       *reflock.Locker
	metrics      *metrics.Metrics
}

func NewService(p Params) billingdomain.Service {
	return &Service{
		db:           p.DB,
		log:          p.Log.Named("billing.service"),
		genID:        p.GenID,
		clock:        p.Clock,
		gateway:      p.Gateway,
		repo:         p.Repo,
		businessRepo: p.BusinessRepo,
		planSvc:      p.PlanSvc,
		financeSvc:   p.FinanceSvc,
		notifier:     p.Notifier,
		locker:       p.Locker,
		metrics:      p.Metrics,
	}
}

// applyFunc performs the purpose-specific amount validation and state writes
// inside the confirmation transaction. It must not commit anything itself.
type applyFunc func(ctx context.Context, tx *gorm.DB, verified *billingdomain.VerifiedTransaction, business *businessdomain.Business) (*billingdomain.ConfirmResult, error)

// confirm runs the protocol shared by all three handlers: verify the
// reference against the gateway exactly once, validate purpose and amount,
// then commit every side effect together with the confirmation record in one
// transaction. A reference that is already confirmed short-circuits to the
// stored result.
func (s *Service) confirm(ctx context.Context, purpose billingdomain.Purpose, reference string, apply applyFunc) (*billingdomain.ConfirmResult, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, billingdomain.ErrInvalidReference
	}

	// Cheap pre-check: replays skip the gateway round trip entirely.
	if stored, err := s.repo.FindConfirmation(ctx, s.db, purpose, reference); err != nil {
		return nil, err
	} else if stored != nil {
		s.countOutcome(purpose, "replay")
		return replayResult(stored)
	}

	lockKey := fmt.Sprintf("billing:confirm:%s:%s", purpose, reference)
	if token, ok, err := s.locker.TryLock(ctx, lockKey, time.Minute); err != nil {
		s.log.Debug("reference lock unavailable", zap.Error(err))
	} else if ok {
		defer func() { _ = s.locker.Release(context.WithoutCancel(ctx), lockKey, token) }()
	}

	verified, err := s.gateway.VerifyTransaction(ctx, reference)
	if err != nil {
		s.countOutcome(purpose, "gateway_error")
		return nil, err
	}
	if !verified.Succeeded() {
		s.countOutcome(purpose, "not_successful")
		return nil, billingdomain.ErrPaymentNotSuccessful
	}
	if !strings.EqualFold(verified.Currency, expectedCurrency) {
		s.countOutcome(purpose, "rejected")
		return nil, billingdomain.ErrCurrencyMismatch
	}
	if verified.Metadata.Purpose != string(purpose) {
		s.countOutcome(purpose, "rejected")
		return nil, billingdomain.ErrPurposeMismatch
	}

	businessID, err := snowflake.ParseString(strings.TrimSpace(verified.Metadata.BusinessID))
	if err != nil {
		s.countOutcome(purpose, "rejected")
		return nil, billingdomain.ErrInvalidMetadata
	}

	var result *billingdomain.ConfirmResult
	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Re-check inside the transaction: a concurrent confirmation may have
		// committed between the pre-check and here.
		stored, err := s.repo.FindConfirmation(ctx, tx, purpose, reference)
		if err != nil {
			return err
		}
		if stored != nil {
			result, err = replayResult(stored)
			return err
		}

		business, err := s.businessRepo.FindByIDForUpdate(ctx, tx, businessID)
		if err != nil {
			return err
		}
		if business == nil {
			return businessdomain.ErrBusinessNotFound
		}

		result, err = apply(ctx, tx, verified, business)
		if err != nil {
			return err
		}

		encoded, err := json.Marshal(result)
		if err != nil {
			return err
		}
		inserted, err := s.repo.InsertConfirmation(ctx, tx, &billingdomain.Confirmation{
			ID:         s.genID.Generate(),
			Purpose:    purpose,
			Reference:  reference,
			BusinessID: businessID,
			AmountKobo: verified.AmountKobo,
			Result:     datatypes.JSON(encoded),
			CreatedAt:  s.clock.Now(),
		})
		if err != nil {
			return err
		}
		if !inserted {
			return errReplayRace
		}
		return nil
	})

	if errors.Is(txErr, errReplayRace) || errors.Is(txErr, financedomain.ErrDuplicateEntry) {
		stored, err := s.repo.FindConfirmation(ctx, s.db, purpose, reference)
		if err != nil {
			return nil, err
		}
		if stored != nil {
			s.countOutcome(purpose, "replay")
			return replayResult(stored)
		}
		return nil, txErr
	}
	if txErr != nil {
		s.countOutcome(purpose, "rejected")
		return nil, txErr
	}

	if result.AlreadyProcessed {
		s.countOutcome(purpose, "replay")
		return result, nil
	}

	s.countOutcome(purpose, "confirmed")
	s.afterConfirm(result)
	return result, nil
}

// afterConfirm fires best-effort side effects. They run detached from the
// request and must never fail the committed confirmation.
func (s *Service) afterConfirm(result *billingdomain.ConfirmResult) {
	res := *result
	go func() {
		defer func() {
			if r := recover(); r != nil {
				s.log.Error("post-confirmation side effect panicked", zap.Any("panic", r))
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		subject := fmt.Sprintf("payment confirmed: %s", res.Purpose)
		message := fmt.Sprintf("business %s paid %d kobo (ref %s)", res.BusinessID, res.AmountKobo, res.Reference)
		if err := s.notifier.NotifyAdmin(ctx, subject, message); err != nil {
			s.log.Warn("admin notification failed", zap.Error(err))
		}

		// Storefront readers outside this core cache plan resolutions under
		// this key; the core only evicts, it never populates it.
		cacheKey := fmt.Sprintf("plan:resolve:%s", res.BusinessID)
		if err := s.locker.Invalidate(ctx, cacheKey); err != nil {
			s.log.Warn("resolution cache invalidation failed", zap.Error(err))
		}
	}()
}

func (s *Service) countOutcome(purpose billingdomain.Purpose, outcome string) {
	if s.metrics == nil {
		return
	}
	s.metrics.Confirmations.WithLabelValues(string(purpose), outcome).Inc()
}

func replayResult(stored *billingdomain.Confirmation) (*billingdomain.ConfirmResult, error) {
	var result billingdomain.ConfirmResult
	if err := json.Unmarshal(stored.Result, &result); err != nil {
		return nil, fmt.Errorf("decode stored confirmation result: %w", err)
	}
	result.AlreadyProcessed = true
	return &result, nil
}
