package repository

import (
	"context"
	"testing"
	"time"

	"marketplace/internal/database"
	"marketplace/internal/model"
	"marketplace/migrations"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupTestDB starts a PostgreSQL testcontainer with the schema applied.
func setupTestDB(t *testing.T) (*pgxpool.Pool, func()) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container-backed repository test")
	}

	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)

	applied, err := database.Migrate(ctx, pool, migrations.Files, database.DirectionUp, zerolog.Nop())
	require.NoError(t, err)
	require.Equal(t, 3, applied)

	cleanup := func() {
		pool.Close()
		_ = pgContainer.Terminate(ctx)
	}

	return pool, cleanup
}

// seedVendor creates a vendor account and returns its vendor id.
func seedVendor(t *testing.T, repo UserRepository, email string) int64 {
	t.Helper()

	user := &model.User{Email: email, PasswordHash: "x", FullName: "Vendor", Role: model.RoleVendor}
	vendor := &model.Vendor{ShopName: "Shop " + email, Status: "active"}
	require.NoError(t, repo.Create(context.Background(), user, vendor))
	return vendor.ID
}

// seedProduct inserts an active product for a vendor.
func seedProduct(t *testing.T, repo ProductRepository, vendorID int64, sku, price string, qty int) *model.Product {
	t.Helper()

	p := &model.Product{
		VendorID: vendorID,
		SKU:      sku,
		Title:    "Title " + sku,
		Price:    decimal.RequireFromString(price),
		Quantity: qty,
		Status:   model.ProductStatusActive,
	}
	require.NoError(t, repo.Create(context.Background(), p))
	return p
}
