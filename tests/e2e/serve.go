package e2e

import (
	"net/http/httptest"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stretchr/testify/require"

	"github.com/akitada/filedepot/internal/handlers"
	"github.com/akitada/filedepot/internal/logger"
	"github.com/akitada/filedepot/internal/repository/postgres"
	"github.com/akitada/filedepot/internal/service/auth"
	"github.com/akitada/filedepot/internal/service/item"
	"github.com/akitada/filedepot/internal/service/user"
	"github.com/akitada/filedepot/internal/testutil"
)

type Services struct {
	AuthService *auth.Service
	UserService *user.Service
	FileService *item.Service
}

// Create db transaction and run server with that connection (one connection cause one transaction)
// The created transaction passed to inner function: so, you can safely use testutil.WithTx with it
func ServeWithTx(dbpool *pgxpool.Pool, t *testing.T, fn func(tx pgx.Tx, srvURL string, services Services)) {
	testutil.WithTx(dbpool, t, func(tx pgx.Tx) {
		// Initialize repositories
		userRepo := &postgres.UserRepo{DB: tx}
		tokenRepo := &postgres.AccessTokenRepo{DB: tx}
		itemRepo := &postgres.ItemRepo{DB: tx}

		// Initialize services
		as, err := auth.NewService(auth.Config{}, tokenRepo)
		require.NoError(t, err, "auth service starting error")

		us := user.NewService(auth.DefaultHasher, userRepo)
		fs := item.NewService(itemRepo)

		// Complete all together as router
		router := handlers.NewRouter(as, us, fs, logger.NewNoOp())

		// Run http server with the router in transaction
		srv := httptest.NewServer(router)
		defer srv.Close()

		fn(tx, srv.URL, Services{
			AuthService: as,
			UserService: us,
			FileService: fs,
		})
	})
}
