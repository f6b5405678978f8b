/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

ERROR RESPONSES:
  Every error is a JSON body {"error": "...", "details": [...]} with the
  status derived from the engine's error classifiers:
  - 400: validation, incompatible item, empty stack, empty wallet
  - 401: missing or invalid token
  - 404: animal/item absent or foreign-owned
  - 409: duplicate idempotency key (retried sell)
  - 500: everything else

SEE ALSO:
  - handlers.go: Uses these types
  - engine/errors.go: The error taxonomy these statuses map from
*/
package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/warp/farm-engine/engine"
	"github.com/warp/farm-engine/farm"
)

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// AnimalDTO represents an animal in API responses, with decay settled and
// the derived read-path values attached.
type AnimalDTO struct {
	ID          string           `json:"id"`
	Name        string           `json:"name,omitempty"`
	Kind        string           `json:"kind"`
	Category    string           `json:"category"`
	Quantity    int              `json:"quantity"`
	Health      int              `json:"health"`
	BasePrice   int64            `json:"base_price"`
	AgeDays     int              `json:"age_days"`
	MarketValue int64            `json:"market_value"`
	CreatedAt   string           `json:"created_at"`
	LastFed     string           `json:"last_fed"`
	LastWatered string           `json:"last_watered"`
	LastCaredAt string           `json:"last_cared_at"`
	History     []HealthEventDTO `json:"history,omitempty"`
}

// HealthEventDTO is one entry of an animal's health log.
type HealthEventDTO struct {
	Kind   string `json:"kind"`
	Delta  int    `json:"delta"`
	At     string `json:"at"`
	Reason string `json:"reason,omitempty"`
}

// ItemDTO represents an inventory stack.
type ItemDTO struct {
	ID          string   `json:"id"`
	Kind        string   `json:"kind"`
	Name        string   `json:"name"`
	Quantity    int      `json:"quantity"`
	Unit        string   `json:"unit"`
	UnitPrice   int64    `json:"unit_price"`
	HealthBoost int      `json:"health_boost"`
	Targets     []string `json:"targets"`
}

// TransactionDTO is one ledger entry.
type TransactionDTO struct {
	ID          string `json:"id"`
	Action      string `json:"action"`
	Subject     string `json:"subject"`
	SubjectID   string `json:"subject_id,omitempty"`
	SubjectName string `json:"subject_name,omitempty"`
	Amount      int64  `json:"amount"`
	Quantity    int    `json:"quantity"`
	Description string `json:"description,omitempty"`
	CreatedAt   string `json:"created_at"`
}

// WalletDTO is the owner's balance.
type WalletDTO struct {
	Balance int64 `json:"balance"`
}

// CareResultDTO is the outcome of a care action.
type CareResultDTO struct {
	Animal AnimalDTO `json:"animal"`
	Item   *ItemDTO  `json:"item"`
	Boost  int       `json:"boost"`
}

// VetResultDTO is the outcome of a vet visit.
type VetResultDTO struct {
	Animal  AnimalDTO `json:"animal"`
	Cost    int64     `json:"cost"`
	Balance int64     `json:"balance"`
}

// BuyAnimalResultDTO is the outcome of an animal purchase.
type BuyAnimalResultDTO struct {
	Animal  AnimalDTO `json:"animal"`
	Cost    int64     `json:"cost"`
	Balance int64     `json:"balance"`
}

// SellAnimalResultDTO is the outcome of an animal sale.
type SellAnimalResultDTO struct {
	Price   int64 `json:"price"`
	Balance int64 `json:"balance"`
}

// ItemTradeResultDTO is the outcome of an inventory purchase or sale.
type ItemTradeResultDTO struct {
	Item    *ItemDTO `json:"item"`
	Amount  int64    `json:"amount"`
	Balance int64    `json:"balance"`
}

// TokenDTO carries a freshly issued bearer token.
type TokenDTO struct {
	Token   string `json:"token"`
	OwnerID string `json:"owner_id"`
}

// CatalogItemDTO is one purchasable item kind.
type CatalogItemDTO struct {
	Kind        string   `json:"kind"`
	Name        string   `json:"name"`
	Unit        string   `json:"unit"`
	UnitPrice   int64    `json:"unit_price"`
	HealthBoost int      `json:"health_boost"`
	Targets     []string `json:"targets"`
}

// CatalogAnimalDTO is one purchasable animal kind.
type CatalogAnimalDTO struct {
	Kind      string `json:"kind"`
	Category  string `json:"category"`
	BasePrice int64  `json:"base_price"`
	VetCost   int64  `json:"vet_cost"`
}

// =============================================================================
// REQUEST TYPES
// =============================================================================

// DevTokenRequest asks for a development token for an owner.
type DevTokenRequest struct {
	OwnerID string `json:"owner_id"`
}

// BuyAnimalRequest is the request to purchase an animal.
type BuyAnimalRequest struct {
	Kind     string `json:"kind"`
	Name     string `json:"name,omitempty"`
	Category string `json:"category,omitempty"`
	Quantity int    `json:"quantity,omitempty"`
}

// SellAnimalRequest carries an optional client-chosen idempotency key.
type SellAnimalRequest struct {
	IdempotencyKey string `json:"idempotency_key,omitempty"`
}

// UseItemRequest names the inventory stack to consume.
type UseItemRequest struct {
	ItemID string `json:"item_id"`
}

// BuyItemRequest is the request to purchase inventory.
type BuyItemRequest struct {
	Kind     string `json:"kind"`
	Quantity int    `json:"quantity,omitempty"`
}

// SellItemRequest is the request to sell inventory back.
type SellItemRequest struct {
	Quantity int `json:"quantity,omitempty"`
}

// =============================================================================
// DTO CONVERSION
// =============================================================================

func toAnimalDTO(v farm.AnimalView, includeHistory bool) AnimalDTO {
	a := v.Animal
	dto := AnimalDTO{
		ID:          string(a.ID),
		Name:        a.Name,
		Kind:        string(a.Kind),
		Category:    string(a.Category),
		Quantity:    a.Quantity,
		Health:      a.Health,
		BasePrice:   a.BasePrice.IntPart(),
		AgeDays:     v.AgeDays,
		MarketValue: v.MarketValue.IntPart(),
		CreatedAt:   a.CreatedAt.Format(time.RFC3339),
		LastFed:     a.LastFed.Format(time.RFC3339),
		LastWatered: a.LastWatered.Format(time.RFC3339),
		LastCaredAt: a.LastCaredAt.Format(time.RFC3339),
	}
	if includeHistory {
		dto.History = make([]HealthEventDTO, len(a.History))
		for i, e := range a.History {
			dto.History[i] = HealthEventDTO{
				Kind:   string(e.Kind),
				Delta:  e.Delta,
				At:     e.At.Format(time.RFC3339),
				Reason: e.Reason,
			}
		}
	}
	return dto
}

func toItemDTO(i *engine.Item) *ItemDTO {
	if i == nil {
		return nil
	}
	targets := make([]string, len(i.Targets))
	for j, t := range i.Targets {
		targets[j] = string(t)
	}
	return &ItemDTO{
		ID:          string(i.ID),
		Kind:        string(i.Kind),
		Name:        i.Name,
		Quantity:    i.Quantity,
		Unit:        i.Unit,
		UnitPrice:   i.UnitPrice.IntPart(),
		HealthBoost: i.HealthBoost,
		Targets:     targets,
	}
}

func toTransactionDTO(e engine.LedgerEntry) TransactionDTO {
	return TransactionDTO{
		ID:          string(e.ID),
		Action:      string(e.Action),
		Subject:     string(e.Subject),
		SubjectID:   e.SubjectID,
		SubjectName: e.SubjectName,
		Amount:      e.Amount.IntPart(),
		Quantity:    e.Quantity,
		Description: e.Description,
		CreatedAt:   e.CreatedAt.Format(time.RFC3339),
	}
}

// =============================================================================
// JSON AND ERROR WRITING
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

type errorBody struct {
	Error   string   `json:"error"`
	Details []string `json:"details,omitempty"`
}

// writeEngineError maps a domain error onto the right status code.
func writeEngineError(w http.ResponseWriter, err error) {
	var ve *engine.ValidationError
	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "validation failed", Details: ve.Messages})
	case engine.IsNotFound(err):
		writeJSON(w, http.StatusNotFound, errorBody{Error: err.Error()})
	case engine.IsClientError(err):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
	case engine.IsConflict(err):
		writeJSON(w, http.StatusConflict, errorBody{Error: err.Error()})
	default:
		log.Printf("internal error: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
	}
}

func writeBadRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorBody{Error: msg})
}
