package components

import (
	"github.com/mukuljibh/airbnb-backend-sub000/internal/handler"
	"github.com/mukuljibh/airbnb-backend-sub000/internal/handler/api"
	"github.com/mukuljibh/airbnb-backend-sub000/internal/handler/middleware"

	"go.uber.org/fx"
)

var HandlerModule = fx.Module("handler",
	fx.Provide(
		api.NewReservationHandler,
		api.NewWebhookHandler,
		middleware.NewAuthMiddleware,
	),
	fx.Invoke(handler.NewRouter),
)
