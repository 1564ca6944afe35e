// Package server exposes the HTTP surface: confirmation endpoints, withdrawal
// settlement, admin reads and the recompute trigger.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/apexmarket/vendora/internal/billing"
	billingdomain "github.com/apexmarket/vendora/internal/billing/domain"
	"github.com/apexmarket/vendora/internal/business"
	businessdomain "github.com/apexmarket/vendora/internal/business/domain"
	"github.com/apexmarket/vendora/internal/clock"
	"github.com/apexmarket/vendora/internal/config"
	"github.com/apexmarket/vendora/internal/finance"
	financedomain "github.com/apexmarket/vendora/internal/finance/domain"
	"github.com/apexmarket/vendora/internal/metrics"
	"github.com/apexmarket/vendora/internal/migration"
	"github.com/apexmarket/vendora/internal/notify"
	"github.com/apexmarket/vendora/internal/plan"
	plandomain "github.com/apexmarket/vendora/internal/plan/domain"
	"github.com/apexmarket/vendora/internal/reflock"
	"github.com/apexmarket/vendora/internal/trust"
	trustdomain "github.com/apexmarket/vendora/internal/trust/domain"
	"github.com/apexmarket/vendora/internal/wallet"
	walletdomain "github.com/apexmarket/vendora/internal/wallet/domain"
	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	clock.Module,
	metrics.Module,
	notify.Module,
	reflock.Module,
	migration.Module,
	business.Module,
	plan.Module,
	finance.Module,
	wallet.Module,
	billing.Module,
	trust.Module,
	fx.Provide(registerGin),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(reg *prometheus.Registry) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	return r
}

func registerGin(reg *prometheus.Registry) *gin.Engine {
	return NewEngine(reg)
}

func run(lc fx.Lifecycle, cfg config.Config, log *zap.Logger, r *gin.Engine) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal("http server failed", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine       *gin.Engine
	cfg          config.Config
	db           *gorm.DB
	genID        *snowflake.Node
	billingSvc   billingdomain.Service
	planSvc      plandomain.Service
	walletSvc    walletdomain.Service
	financeSvc   financedomain.Service
	trustSvc     trustdomain.Service
	businessRepo businessdomain.Repository
}

type ServerParams struct {
	fx.In

	Gin          *gin.Engine
	Cfg          config.Config
	DB           *gorm.DB
	GenID        *snowflake.Node
	BillingSvc   billingdomain.Service
	PlanSvc      plandomain.Service
	WalletSvc    walletdomain.Service
	FinanceSvc   financedomain.Service
	TrustSvc     trustdomain.Service
	BusinessRepo businessdomain.Repository
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:       p.Gin,
		cfg:          p.Cfg,
		db:           p.DB,
		genID:        p.GenID,
		billingSvc:   p.BillingSvc,
		planSvc:      p.PlanSvc,
		walletSvc:    p.WalletSvc,
		financeSvc:   p.FinanceSvc,
		trustSvc:     p.TrustSvc,
		businessRepo: p.BusinessRepo,
	}

	svc.registerAPIRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api/v1")

	api.POST("/billing/subscription/confirm", s.ConfirmSubscription)
	api.POST("/billing/addons/confirm", s.ConfirmAddon)
	api.POST("/billing/promotions/confirm", s.ConfirmPromotion)
	api.POST("/billing/campaigns", s.CreateCampaign)
	api.GET("/billing/campaigns/:id", s.GetCampaign)

	api.POST("/wallet/withdrawals", s.RequestWithdrawal)
	api.POST("/wallet/withdrawals/:id/settle", s.SettleWithdrawal)
	api.GET("/wallet/withdrawals/:id", s.GetWithdrawal)
	api.GET("/wallet/:business_id", s.GetWallet)

	api.GET("/businesses/:id/plan", s.ResolvePlan)
	api.GET("/businesses/:id/entitlements", s.ListEntitlements)

	api.GET("/finance/ledger", s.ListLedger)
	api.GET("/finance/aggregate", s.FinanceAggregate)
	api.GET("/finance/reconcile", s.FinanceReconcile)

	api.POST("/trust/recompute", s.TrustRecompute)
}
