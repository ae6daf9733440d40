package bootstrap

import (
	"github.com/mukuljibh/airbnb-backend-sub000/internal/infra/gateway"
	"github.com/mukuljibh/airbnb-backend-sub000/internal/infra/notify"
	"github.com/mukuljibh/airbnb-backend-sub000/internal/infra/pricing"
	"github.com/mukuljibh/airbnb-backend-sub000/internal/usecase/commands"

	"go.uber.org/fx"
)

// Collaborator adapters: the payment provider, the quote calculator, and
// the notification fan-out.
var CollaboratorModule = fx.Module("collaborators",
	fx.Provide(
		fx.Annotate(
			gateway.NewStripeGateway,
			fx.As(new(commands.PaymentGateway)),
		),
		fx.Annotate(
			pricing.NewEngine,
			fx.As(new(commands.PricingEngine)),
		),
		fx.Annotate(
			notify.NewLogDispatcher,
			fx.As(new(commands.NotificationDispatcher)),
		),
	),
)
