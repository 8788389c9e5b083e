// Command seed loads a demo catalog: two categories, two vendors with a few
// products each, and one client account. Running it twice is harmless.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"marketplace/internal/config"
	"marketplace/internal/database"
	"marketplace/internal/model"
	"marketplace/internal/repository"
	"marketplace/internal/service"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const demoPassword = "password123"

type seedProduct struct {
	sku      string
	title    string
	category string
	price    string
	quantity int
}

type seedVendor struct {
	email    string
	fullName string
	shopName string
	products []seedProduct
}

var categories = map[string]string{
	"kitchen":    "Kitchen",
	"stationery": "Stationery",
}

var vendors = []seedVendor{
	{
		email:    "acme@example.com",
		fullName: "Acme Owner",
		shopName: "Acme Kitchen",
		products: []seedProduct{
			{sku: "ACME-KNIFE", title: "Chef Knife", category: "kitchen", price: "30.00", quantity: 50},
			{sku: "ACME-PAN", title: "Cast Iron Pan", category: "kitchen", price: "60.00", quantity: 20},
		},
	},
	{
		email:    "paper@example.com",
		fullName: "Paper Lane Owner",
		shopName: "Paper Lane",
		products: []seedProduct{
			{sku: "PL-NOTEBOOK", title: "Dotted Notebook", category: "stationery", price: "25.00", quantity: 100},
			{sku: "PL-PEN", title: "Fountain Pen", category: "stationery", price: "50.00", quantity: 10},
		},
	},
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	logger := config.NewLogger(cfg.Logger).With().Str("component", "seed").Logger()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer pool.Close()

	categoryIDs, err := seedCategories(ctx, pool)
	if err != nil {
		return err
	}

	userRepo := repository.NewUserRepository(pool, logger)
	productRepo := repository.NewProductRepository(pool, logger)
	// Registration never touches sessions.
	auth := service.NewAuthService(userRepo, nil, logger)
	products := service.NewProductService(productRepo, nil, logger)

	for _, v := range vendors {
		vendorID, err := ensureVendor(ctx, auth, userRepo, v)
		if err != nil {
			return err
		}

		for _, p := range v.products {
			categoryID := categoryIDs[p.category]
			_, err := products.Create(ctx, vendorID, &model.ProductRequest{
				CategoryID: &categoryID,
				SKU:        p.sku,
				Title:      p.title,
				Price:      decimal.RequireFromString(p.price),
				Quantity:   p.quantity,
			})
			if err != nil {
				if de, ok := model.AsDomainError(err); ok && de.Code == model.ErrCodeValidation {
					logger.Info().Str("sku", p.sku).Msg("product already seeded")
					continue
				}
				return fmt.Errorf("failed to seed product %s: %w", p.sku, err)
			}
		}
	}

	_, err = auth.Register(ctx, &model.RegisterRequest{
		Email:    "client@example.com",
		Password: demoPassword,
		FullName: "Demo Client",
		Role:     model.RoleClient,
	})
	if err != nil && !errors.Is(err, model.ErrEmailTaken) {
		return fmt.Errorf("failed to seed client: %w", err)
	}

	logSummary(logger)
	return nil
}

func seedCategories(ctx context.Context, pool *pgxpool.Pool) (map[string]int64, error) {
	ids := make(map[string]int64, len(categories))
	for slug, name := range categories {
		var id int64
		err := pool.QueryRow(ctx, `
			INSERT INTO catalog.product_categories (name, slug)
			VALUES ($1, $2)
			ON CONFLICT (slug) DO UPDATE SET name = EXCLUDED.name
			RETURNING id
		`, name, slug).Scan(&id)
		if err != nil {
			return nil, fmt.Errorf("failed to seed category %s: %w", slug, err)
		}
		ids[slug] = id
	}
	return ids, nil
}

func ensureVendor(ctx context.Context, auth service.AuthService, users repository.UserRepository, v seedVendor) (int64, error) {
	_, err := auth.Register(ctx, &model.RegisterRequest{
		Email:    v.email,
		Password: demoPassword,
		FullName: v.fullName,
		Role:     model.RoleVendor,
		ShopName: v.shopName,
	})
	if err != nil && !errors.Is(err, model.ErrEmailTaken) {
		return 0, fmt.Errorf("failed to seed vendor %s: %w", v.email, err)
	}

	user, err := users.GetByEmail(ctx, v.email)
	if err != nil || user == nil {
		return 0, fmt.Errorf("failed to load vendor user %s: %v", v.email, err)
	}
	vendor, err := users.GetVendorByUserID(ctx, user.ID)
	if err != nil || vendor == nil {
		return 0, fmt.Errorf("failed to load vendor %s: %v", v.email, err)
	}
	return vendor.ID, nil
}

func logSummary(logger zerolog.Logger) {
	for _, v := range vendors {
		logger.Info().
			Str("email", v.email).
			Str("shop", v.shopName).
			Int("products", len(v.products)).
			Msg("vendor ready")
	}
	logger.Info().
		Str("email", "client@example.com").
		Str("password", demoPassword).
		Msg("seed completed")
}
