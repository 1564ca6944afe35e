package wallet

import (
	"github.com/apexmarket/vendora/internal/wallet/repository"
	"github.com/apexmarket/vendora/internal/wallet/service"
	"go.uber.org/fx"
)

var Module = fx.Module("wallet.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
