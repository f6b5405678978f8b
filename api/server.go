/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for frontend
  5. RequireOwner: Bearer-token auth on everything except token issuance

ROUTE GROUPS:
  /api/tokens/*         Token issuance (public, dev convenience)
  /api/animals/*        Animal reads, purchases, care actions, sales
  /api/inventory/*      Inventory stacks, purchases, sell-back
  /api/catalog/*        Purchasable kinds and prices
  /api/wallet           Coin balance
  /api/transactions     Ledger history

SEE ALSO:
  - handlers.go: Handler implementations
  - middleware.go: Auth middleware
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/warp/farm-engine/auth"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, tokens *auth.TokenService, allowedOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		// Token issuance stays public; everything else requires a token.
		r.Post("/tokens/dev", h.IssueDevToken)

		r.Group(func(r chi.Router) {
			r.Use(RequireOwner(tokens))

			// Animal routes
			r.Route("/animals", func(r chi.Router) {
				r.Get("/", h.ListAnimals)
				r.Post("/", h.BuyAnimal)
				r.Get("/{id}", h.GetAnimal)
				r.Post("/{id}/feed", h.UseItem)
				r.Post("/{id}/water", h.Water)
				r.Post("/{id}/vet", h.CallVet)
				r.Post("/{id}/sell", h.SellAnimal)
			})

			// Inventory routes
			r.Route("/inventory", func(r chi.Router) {
				r.Get("/", h.ListItems)
				r.Post("/", h.BuyItem)
				r.Post("/{id}/sell", h.SellItem)
			})

			// Catalog routes
			r.Route("/catalog", func(r chi.Router) {
				r.Get("/animals", h.CatalogAnimals)
				r.Get("/items", h.CatalogItems)
			})

			// Wallet and ledger routes
			r.Get("/wallet", h.GetWallet)
			r.Get("/transactions", h.ListTransactions)
		})
	})

	return r
}
