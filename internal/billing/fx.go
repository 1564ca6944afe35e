package billing

import (
	"github.com/apexmarket/vendora/internal/billing/gateway"
	"github.com/apexmarket/vendora/internal/billing/repository"
	"github.com/apexmarket/vendora/internal/billing/service"
	"go.uber.org/fx"
)

var Module = fx.Module("billing.service",
	fx.Provide(gateway.NewPaystack),
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
