package trust

import (
	"github.com/apexmarket/vendora/internal/trust/service"
	"go.uber.org/fx"
)

var Module = fx.Module("trust.service",
	fx.Provide(service.NewService),
)
