package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"marketplace/internal/cache"
	"marketplace/internal/config"
	"marketplace/internal/database"
	"marketplace/internal/handler"
	"marketplace/internal/repository"
	"marketplace/internal/router"
	"marketplace/internal/service"
	"marketplace/internal/storage"
	"marketplace/migrations"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"golang.org/x/crypto/bcrypt"
)

// TestEnv is a fully wired API backed by PostgreSQL and Redis containers.
type TestEnv struct {
	Pool   *pgxpool.Pool
	Redis  *redis.Client
	Server http.Handler
}

// SetupTestDB creates a PostgreSQL test container with the schema applied.
func SetupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()

	ctx := context.Background()

	// Create PostgreSQL container
	postgresContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "failed to start postgres container")

	connStr, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := database.NewPoolFromURL(ctx, connStr, config.DatabaseConfig{
		MaxConnections: 20,
		MinConnections: 2,
	}, zerolog.Nop())
	require.NoError(t, err)

	_, err = database.Migrate(ctx, pool, migrations.Files, database.DirectionUp, zerolog.Nop())
	require.NoError(t, err)

	t.Cleanup(func() {
		pool.Close()
		if err := postgresContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	return pool
}

// SetupTestRedis creates a Redis test container.
func SetupTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err, "failed to start redis container")

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)

	client, err := cache.NewRedisClient(ctx, config.RedisConfig{Addr: endpoint})
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = client.Close()
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	return client
}

// SetupTestEnv wires repositories, services, handlers and the router the
// same way cmd/api does.
func SetupTestEnv(t *testing.T) *TestEnv {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	pool := SetupTestDB(t)
	redisClient := SetupTestRedis(t)
	logger := zerolog.Nop()

	redisCache := cache.NewRedisCache(redisClient, "it")
	sessions := cache.NewSessionStore(redisCache, time.Hour)
	idempotency := cache.NewIdempotencyStore(redisCache, time.Hour)
	images := storage.NewFileStore(t.TempDir(), "/uploads", logger)

	userRepo := repository.NewUserRepository(pool, logger)
	productRepo := repository.NewProductRepository(pool, logger)
	orderRepo := repository.NewOrderRepository(pool, logger)

	retry := database.RetryOptions{MaxRetries: 5, InitialBackoff: 10 * time.Millisecond}

	authService := service.NewAuthService(userRepo, sessions, logger, service.WithBcryptCost(bcrypt.MinCost))
	productService := service.NewProductService(productRepo, images, logger)
	checkoutService := service.NewCheckoutService(authService, productRepo, orderRepo, idempotency, retry, logger)
	orderService := service.NewOrderService(orderRepo, productRepo, retry, logger)

	server := router.New(router.Handlers{
		Auth:     handler.NewAuthHandler(authService, logger),
		Product:  handler.NewProductHandler(productService, 1<<20, logger),
		Checkout: handler.NewCheckoutHandler(checkoutService, logger),
		Order:    handler.NewOrderHandler(orderService, logger),
	}, authService, router.Options{}, logger)

	return &TestEnv{Pool: pool, Redis: redisClient, Server: server}
}

// envelope decodes both the success and the error response shapes.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Message string          `json:"message"`
}

// Do sends a JSON request through the router.
func (e *TestEnv) Do(t *testing.T, method, path, token string, body interface{}, headers map[string]string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	e.Server.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w, env
}

// Register creates an account over HTTP and returns a bearer token for it.
func (e *TestEnv) Register(t *testing.T, email, role, shopName string) string {
	t.Helper()

	w, env := e.Do(t, http.MethodPost, "/api/auth/register", "", map[string]interface{}{
		"email":    email,
		"password": "password123",
		"fullName": "Test " + role,
		"role":     role,
		"shopName": shopName,
	}, nil)
	require.Equal(t, http.StatusCreated, w.Code, env.Message)

	w, env = e.Do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    email,
		"password": "password123",
	}, nil)
	require.Equal(t, http.StatusOK, w.Code, env.Message)

	var session struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &session))
	require.NotEmpty(t, session.Token)
	return session.Token
}

// CreateProduct adds a product to the vendor behind token and returns its id.
func (e *TestEnv) CreateProduct(t *testing.T, token, sku, price string, quantity int) int64 {
	t.Helper()

	w, env := e.Do(t, http.MethodPost, "/api/vendor/products", token, map[string]interface{}{
		"sku":      sku,
		"title":    "Title " + sku,
		"price":    price,
		"quantity": quantity,
	}, nil)
	require.Equal(t, http.StatusCreated, w.Code, env.Message)

	var product struct {
		ID int64 `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &product))
	return product.ID
}

// Stock reads a product's quantity and status straight from the database.
func (e *TestEnv) Stock(t *testing.T, productID int64) (int, string) {
	t.Helper()

	var (
		quantity int
		status   string
	)
	err := e.Pool.QueryRow(context.Background(),
		"SELECT quantity, status FROM catalog.vendor_products WHERE id = $1", productID,
	).Scan(&quantity, &status)
	require.NoError(t, err)
	return quantity, status
}

// CountOrders counts vendor orders placed for the client behind email.
func (e *TestEnv) CountOrders(t *testing.T, email string) int {
	t.Helper()

	var count int
	err := e.Pool.QueryRow(context.Background(), `
		SELECT COUNT(*)
		FROM orders.vendor_orders o
		JOIN auth.users u ON u.id = o.client_id
		WHERE LOWER(u.email) = LOWER($1)
	`, email).Scan(&count)
	require.NoError(t, err)
	return count
}
