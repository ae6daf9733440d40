package components

import (
	"github.com/mukuljibh/airbnb-backend-sub000/internal/domain/reservation"
	"github.com/mukuljibh/airbnb-backend-sub000/internal/pkg/clock"
	"github.com/mukuljibh/airbnb-backend-sub000/internal/pkg/config"
	"github.com/mukuljibh/airbnb-backend-sub000/internal/usecase/commands"
	"github.com/mukuljibh/airbnb-backend-sub000/internal/usecase/queries"

	"go.uber.org/fx"
)

var UseCaseModule = fx.Module("usecase",
	fx.Provide(
		clock.NewRealClock,
		func(clk clock.Clock, cfg config.ReservationConfig) *reservation.Factory {
			return reservation.NewFactory(clk, cfg.PaymentWindow)
		},
		commands.NewReservationCommands,
		commands.NewWebhookCommands,
		queries.NewReservationQueries,
	),
)
