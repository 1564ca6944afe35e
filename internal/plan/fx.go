package plan

import (
	"github.com/apexmarket/vendora/internal/plan/repository"
	"github.com/apexmarket/vendora/internal/plan/service"
	"go.uber.org/fx"
)

var Module = fx.Module("plan.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
