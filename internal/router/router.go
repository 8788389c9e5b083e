package router

import (
	"net/http"

	"marketplace/internal/handler"
	"marketplace/internal/middleware"
	"marketplace/internal/model"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Handlers groups the HTTP handlers mounted by the router.
type Handlers struct {
	Auth     *handler.AuthHandler
	Product  *handler.ProductHandler
	Checkout *handler.CheckoutHandler
	Order    *handler.OrderHandler
}

// Options configures optional routes.
type Options struct {
	// UploadsDir is served under /uploads/ when set.
	UploadsDir string
}

// New creates a new HTTP router with all routes and middleware configured.
func New(h Handlers, resolver middleware.TokenResolver, opts Options, logger zerolog.Logger) http.Handler {
	r := chi.NewRouter()

	// Apply middleware in order: Recovery -> RequestID -> Logging -> CORS -> Authenticate
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging(logger))
	r.Use(middleware.CORS)
	r.Use(middleware.Authenticate(resolver, logger))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy"}`))
	})

	if opts.UploadsDir != "" {
		r.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(http.Dir(opts.UploadsDir))))
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", h.Auth.Register)
			r.Post("/login", h.Auth.Login)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(model.RoleClient, model.RoleVendor, model.RoleAdmin))
				r.Post("/logout", h.Auth.Logout)
				r.Get("/me", h.Auth.Me)
			})
		})

		r.Route("/public", func(r chi.Router) {
			r.Get("/categories", h.Product.ListCategories)
			r.Get("/products", h.Product.ListPublic)
			r.Get("/products/{id}", h.Product.GetPublic)
			r.Post("/checkout/quote", h.Checkout.Quote)
			r.Post("/checkout/simulate", h.Checkout.Simulate)
		})

		r.Route("/client", func(r chi.Router) {
			r.Use(middleware.RequireRole(model.RoleClient))
			r.Get("/orders", h.Order.ListForClient)
			r.Get("/orders/{id}", h.Order.GetForClient)
		})

		r.Route("/vendor", func(r chi.Router) {
			r.Use(middleware.RequireRole(model.RoleVendor))
			r.Get("/products", h.Product.ListOwn)
			r.Post("/products", h.Product.Create)
			r.Put("/products/{id}", h.Product.Update)
			r.Post("/products/{id}/images", h.Product.UploadImage)
			r.Get("/orders", h.Order.ListForVendor)
			r.Patch("/orders/{id}/status", h.Order.UpdateStatus)
		})
	})

	return r
}
