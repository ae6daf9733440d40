package bootstrap

import (
	"github.com/mukuljibh/airbnb-backend-sub000/internal/pkg/config"

	"go.uber.org/fx"
)

var ConfigModule = fx.Module("config",
	fx.Provide(
		config.LoadConfig,
		func(cfg config.Config) config.DBConfig { return cfg.DB },
		func(cfg config.Config) config.StripeConfig { return cfg.Stripe },
		func(cfg config.Config) config.SchedulerConfig { return cfg.Scheduler },
		func(cfg config.Config) config.ReservationConfig { return cfg.Reservation },
	),
)
