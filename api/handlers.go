/*
handlers.go - HTTP API handlers for the farm engine

PURPOSE:
  Exposes the animal care and market engine via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to the farm
  processor.

ENDPOINTS:
  Tokens:
    POST   /api/tokens/dev                Issue a dev token (public)

  Animals:
    GET    /api/animals                   List animals (decay settled)
    POST   /api/animals                   Buy an animal
    GET    /api/animals/{id}              Get one animal with history
    POST   /api/animals/{id}/feed         Use an inventory item on it
    POST   /api/animals/{id}/water        Use the water stack on it
    POST   /api/animals/{id}/vet          Pay for a full-restore vet visit
    POST   /api/animals/{id}/sell         Sell at current market value

  Inventory:
    GET    /api/inventory                 List stacks
    POST   /api/inventory                 Buy items
    POST   /api/inventory/{id}/sell       Sell items back at 80%

  Catalog:
    GET    /api/catalog/animals           Purchasable animal kinds
    GET    /api/catalog/items             Purchasable item kinds

  Wallet and ledger:
    GET    /api/wallet                    Coin balance
    GET    /api/transactions              Ledger history, newest first

REQUEST FLOW:
  1. Parse HTTP request
  2. Read the owner from the auth context
  3. Call the farm processor
  4. Serialize response
  5. Map domain errors to status codes (see dto.go)

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"net/http"
	"sort"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/warp/farm-engine/auth"
	"github.com/warp/farm-engine/engine"
	"github.com/warp/farm-engine/farm"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Processor *farm.Processor
	Catalog   *engine.Catalog
	Tokens    *auth.TokenService
}

// NewHandler creates a new handler around the given processor.
func NewHandler(p *farm.Processor, tokens *auth.TokenService) *Handler {
	return &Handler{Processor: p, Catalog: p.Catalog, Tokens: tokens}
}

// =============================================================================
// TOKEN HANDLERS
// =============================================================================

// IssueDevToken mints a token for any owner ID. Development convenience;
// a production deployment fronts this with a real identity provider.
func (h *Handler) IssueDevToken(w http.ResponseWriter, r *http.Request) {
	var req DevTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.OwnerID == "" {
		writeBadRequest(w, "owner_id is required")
		return
	}

	token, err := h.Tokens.Generate(req.OwnerID)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, TokenDTO{Token: token, OwnerID: req.OwnerID})
}

// =============================================================================
// ANIMAL HANDLERS
// =============================================================================

// ListAnimals returns the owner's animals with decay settled up to now.
func (h *Handler) ListAnimals(w http.ResponseWriter, r *http.Request) {
	owner := OwnerFromContext(r.Context())

	views, err := h.Processor.ListAnimals(r.Context(), owner)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	dtos := make([]AnimalDTO, len(views))
	for i, v := range views {
		dtos[i] = toAnimalDTO(v, false)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetAnimal returns one animal with its full health history.
func (h *Handler) GetAnimal(w http.ResponseWriter, r *http.Request) {
	owner := OwnerFromContext(r.Context())
	id := engine.AnimalID(chi.URLParam(r, "id"))

	view, err := h.Processor.GetAnimal(r.Context(), owner, id)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAnimalDTO(view, true))
}

// BuyAnimal purchases an animal at its catalog base price.
func (h *Handler) BuyAnimal(w http.ResponseWriter, r *http.Request) {
	owner := OwnerFromContext(r.Context())

	var req BuyAnimalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	result, err := h.Processor.BuyAnimal(r.Context(), owner, farm.BuyAnimalInput{
		Kind:     engine.AnimalKind(req.Kind),
		Name:     req.Name,
		Category: engine.Category(req.Category),
		Quantity: req.Quantity,
	})
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, BuyAnimalResultDTO{
		Animal:  toAnimalDTO(result.Animal, false),
		Cost:    result.Cost.IntPart(),
		Balance: result.Balance.IntPart(),
	})
}

// UseItem applies one unit of an inventory stack to the animal.
func (h *Handler) UseItem(w http.ResponseWriter, r *http.Request) {
	owner := OwnerFromContext(r.Context())
	animalID := engine.AnimalID(chi.URLParam(r, "id"))

	var req UseItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ItemID == "" {
		writeBadRequest(w, "item_id is required")
		return
	}

	result, err := h.Processor.UseItem(r.Context(), owner, animalID, engine.ItemID(req.ItemID))
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, CareResultDTO{
		Animal: toAnimalDTO(result.Animal, false),
		Item:   toItemDTO(result.Item),
		Boost:  result.Boost,
	})
}

// Water applies one unit of the owner's water stack to the animal.
func (h *Handler) Water(w http.ResponseWriter, r *http.Request) {
	owner := OwnerFromContext(r.Context())
	animalID := engine.AnimalID(chi.URLParam(r, "id"))

	result, err := h.Processor.Water(r.Context(), owner, animalID)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, CareResultDTO{
		Animal: toAnimalDTO(result.Animal, false),
		Item:   toItemDTO(result.Item),
		Boost:  result.Boost,
	})
}

// CallVet pays the per-kind vet cost for a full health restore.
func (h *Handler) CallVet(w http.ResponseWriter, r *http.Request) {
	owner := OwnerFromContext(r.Context())
	animalID := engine.AnimalID(chi.URLParam(r, "id"))

	result, err := h.Processor.CallVet(r.Context(), owner, animalID)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, VetResultDTO{
		Animal:  toAnimalDTO(result.Animal, false),
		Cost:    result.Cost.IntPart(),
		Balance: result.Balance.IntPart(),
	})
}

// SellAnimal sells at current market value. The body is optional; clients
// that retry supply their own idempotency key.
func (h *Handler) SellAnimal(w http.ResponseWriter, r *http.Request) {
	owner := OwnerFromContext(r.Context())
	animalID := engine.AnimalID(chi.URLParam(r, "id"))

	var req SellAnimalRequest
	if r.Body != nil {
		// Decode errors on an empty body are fine; the key just defaults.
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	result, err := h.Processor.SellAnimal(r.Context(), owner, animalID, req.IdempotencyKey)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, SellAnimalResultDTO{
		Price:   result.Price.IntPart(),
		Balance: result.Balance.IntPart(),
	})
}

// =============================================================================
// INVENTORY HANDLERS
// =============================================================================

// ListItems returns the owner's inventory stacks.
func (h *Handler) ListItems(w http.ResponseWriter, r *http.Request) {
	owner := OwnerFromContext(r.Context())

	items, err := h.Processor.ListItems(r.Context(), owner)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	dtos := make([]ItemDTO, len(items))
	for i, item := range items {
		dtos[i] = *toItemDTO(item)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// BuyItem purchases inventory at catalog unit price.
func (h *Handler) BuyItem(w http.ResponseWriter, r *http.Request) {
	owner := OwnerFromContext(r.Context())

	var req BuyItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Kind == "" {
		writeBadRequest(w, "kind is required")
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	result, err := h.Processor.BuyItem(r.Context(), owner, engine.ItemKind(req.Kind), req.Quantity)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, ItemTradeResultDTO{
		Item:    toItemDTO(result.Item),
		Amount:  result.Amount.IntPart(),
		Balance: result.Balance.IntPart(),
	})
}

// SellItem sells part of a stack back at 80% of unit price.
func (h *Handler) SellItem(w http.ResponseWriter, r *http.Request) {
	owner := OwnerFromContext(r.Context())
	itemID := engine.ItemID(chi.URLParam(r, "id"))

	var req SellItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	result, err := h.Processor.SellItem(r.Context(), owner, itemID, req.Quantity)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ItemTradeResultDTO{
		Item:    toItemDTO(result.Item),
		Amount:  result.Amount.IntPart(),
		Balance: result.Balance.IntPart(),
	})
}

// =============================================================================
// CATALOG HANDLERS
// =============================================================================

// CatalogAnimals lists the purchasable animal kinds with their prices.
func (h *Handler) CatalogAnimals(w http.ResponseWriter, _ *http.Request) {
	dtos := make([]CatalogAnimalDTO, 0, len(engine.AnimalKinds))
	for _, k := range engine.AnimalKinds {
		dtos = append(dtos, CatalogAnimalDTO{
			Kind:      string(k),
			Category:  string(engine.DefaultCategory(k)),
			BasePrice: h.Catalog.BasePrice(k).IntPart(),
			VetCost:   h.Catalog.VetCost(k).IntPart(),
		})
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CatalogItems lists the purchasable item kinds with their effects.
func (h *Handler) CatalogItems(w http.ResponseWriter, _ *http.Request) {
	dtos := make([]CatalogItemDTO, 0, len(h.Catalog.Items))
	for kind, spec := range h.Catalog.Items {
		targets := make([]string, len(spec.Targets))
		for i, t := range spec.Targets {
			targets[i] = string(t)
		}
		dtos = append(dtos, CatalogItemDTO{
			Kind:        string(kind),
			Name:        spec.Name,
			Unit:        spec.Unit,
			UnitPrice:   spec.UnitPrice.IntPart(),
			HealthBoost: spec.HealthBoost,
			Targets:     targets,
		})
	}
	sort.Slice(dtos, func(i, j int) bool { return dtos[i].Kind < dtos[j].Kind })
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// WALLET AND LEDGER HANDLERS
// =============================================================================

// GetWallet returns the owner's coin balance.
func (h *Handler) GetWallet(w http.ResponseWriter, r *http.Request) {
	owner := OwnerFromContext(r.Context())

	balance, err := h.Processor.Balance(r.Context(), owner)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, WalletDTO{Balance: balance.IntPart()})
}

// ListTransactions lists the owner's ledger entries, newest first.
// Supports ?action=, ?subject=, and ?limit= filters.
func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	owner := OwnerFromContext(r.Context())

	filter := engine.Filter{
		Action:  engine.LedgerAction(r.URL.Query().Get("action")),
		Subject: engine.SubjectType(r.URL.Query().Get("subject")),
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			writeBadRequest(w, "limit must be a positive integer")
			return
		}
		filter.Limit = limit
	}

	entries, err := h.Processor.Transactions(r.Context(), owner, filter)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	dtos := make([]TransactionDTO, len(entries))
	for i, e := range entries {
		dtos[i] = toTransactionDTO(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}
