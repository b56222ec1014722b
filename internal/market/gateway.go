package market

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/tradeforge-io/signal-engine-go/internal/models"
)

// Gateway provides read access to historical candle windows. An empty
// window with a nil error means no data exists for the request.
type Gateway interface {
	// GetWindow returns up to limit most recent candles for the symbol and
	// timeframe, in chronological order.
	GetWindow(ctx context.Context, symbol string, timeframe models.Timeframe, limit int) (models.Window, error)
}

// DBPool abstracts the pgx pool operations the gateway needs, allowing
// pgxmock in tests.
type DBPool interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Ping(ctx context.Context) error
	Close()
}
