package components

import (
	"github.com/mukuljibh/airbnb-backend-sub000/internal/infra/db"
	"github.com/mukuljibh/airbnb-backend-sub000/internal/infra/readstore"
	"github.com/mukuljibh/airbnb-backend-sub000/internal/infra/repository"
	"github.com/mukuljibh/airbnb-backend-sub000/internal/infra/uow"
	"github.com/mukuljibh/airbnb-backend-sub000/internal/usecase/queries"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/fx"
)

var PersistenceModule = fx.Module("persistence",
	fx.Provide(
		NewDBTX,
		uow.NewPostgresUoW,
		// The scheduler claims jobs on the pool directly, outside any
		// usecase transaction.
		repository.NewJobRepository,
		fx.Annotate(
			readstore.NewReservationViewStore,
			fx.As(new(queries.ReservationReadStore)),
		),
	),
)

func NewDBTX(pool *pgxpool.Pool) db.DBTX {
	return pool
}
