/*
Package sqlite provides a SQLite-backed implementation of the storage
interfaces.

PURPOSE:
  Implements engine.AnimalStore, engine.ItemStore, engine.Wallet, and
  engine.Ledger on a single SQLite file. In production the same patterns
  apply to PostgreSQL - only minor SQL dialect differences.

KEY TABLES:
  owners:         One row per owner, holding the coin balance
  animals:        Current animal snapshots (health history as JSON)
  items:          Current inventory stacks
  ledger_entries: Immutable log of every economic action

APPEND-ONLY ENFORCEMENT:
  ledger_entries has no UPDATE or DELETE path in this package, and a
  UNIQUE index on idempotency_key rejects duplicate sells at the storage
  layer.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety on top of the engine's per-animal
  locks. SQLite is opened in WAL mode: readers don't block, single writer
  at a time, better crash recovery.

WALLET PROVISIONING:
  Owners are created lazily with the configured starting balance the
  first time their wallet is touched.

USAGE:
  store, err := sqlite.New("./data/farm.db", engine.NewCoins(1000))
  ...
  defer store.Close()

SEE ALSO:
  - engine/store.go: The interfaces implemented here
  - engine/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/warp/farm-engine/engine"
)

// Store implements all storage interfaces using SQLite.
type Store struct {
	db            *sql.DB
	mu            sync.RWMutex
	startingCoins engine.Coins
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string, startingCoins engine.Coins) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db, startingCoins: startingCoins}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Owners (wallets)
	CREATE TABLE IF NOT EXISTS owners (
		id TEXT PRIMARY KEY,
		currency TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	-- Animals (current snapshots; health history serialized as JSON)
	CREATE TABLE IF NOT EXISTS animals (
		id TEXT PRIMARY KEY,
		owner_id TEXT NOT NULL,
		name TEXT,
		kind TEXT NOT NULL,
		category TEXT NOT NULL,
		quantity INTEGER NOT NULL DEFAULT 1,
		health INTEGER NOT NULL,
		base_price TEXT NOT NULL,
		created_at TEXT NOT NULL,
		last_fed TEXT NOT NULL,
		last_watered TEXT NOT NULL,
		last_cared_at TEXT NOT NULL,
		last_health_update TEXT NOT NULL,
		history_json TEXT NOT NULL DEFAULT '[]'
	);

	CREATE INDEX IF NOT EXISTS idx_animals_owner
		ON animals(owner_id, created_at);

	-- Inventory stacks
	CREATE TABLE IF NOT EXISTS items (
		id TEXT PRIMARY KEY,
		owner_id TEXT NOT NULL,
		kind TEXT NOT NULL,
		name TEXT NOT NULL,
		quantity INTEGER NOT NULL DEFAULT 0,
		unit TEXT NOT NULL,
		unit_price TEXT NOT NULL,
		health_boost INTEGER NOT NULL DEFAULT 0,
		targets_json TEXT NOT NULL DEFAULT '[]',
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_items_owner
		ON items(owner_id, created_at);

	-- One stack per kind per owner
	CREATE UNIQUE INDEX IF NOT EXISTS idx_items_owner_kind
		ON items(owner_id, kind);

	-- Ledger (append-only)
	CREATE TABLE IF NOT EXISTS ledger_entries (
		id TEXT PRIMARY KEY,
		owner_id TEXT NOT NULL,
		action TEXT NOT NULL,
		subject_type TEXT NOT NULL,
		subject_id TEXT,
		subject_name TEXT,
		amount TEXT NOT NULL,
		quantity INTEGER NOT NULL DEFAULT 1,
		description TEXT,
		idempotency_key TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_ledger_owner_created
		ON ledger_entries(owner_id, created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_ledger_action
		ON ledger_entries(action);

	-- CRITICAL: reject duplicate monetary actions at the storage layer
	CREATE UNIQUE INDEX IF NOT EXISTS idx_ledger_idempotency
		ON ledger_entries(idempotency_key) WHERE idempotency_key IS NOT NULL;
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// ANIMAL STORE (engine.AnimalStore interface)
// =============================================================================

const animalColumns = `id, owner_id, name, kind, category, quantity, health, base_price,
	created_at, last_fed, last_watered, last_cared_at, last_health_update, history_json`

func (s *Store) GetAnimal(ctx context.Context, owner engine.OwnerID, id engine.AnimalID) (*engine.Animal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		`SELECT `+animalColumns+` FROM animals WHERE id = ? AND owner_id = ?`,
		string(id), string(owner))

	a, err := scanAnimal(row)
	if err == sql.ErrNoRows {
		return nil, &engine.NotFoundError{Subject: "animal", ID: string(id)}
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Store) ListAnimals(ctx context.Context, owner engine.OwnerID) ([]*engine.Animal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+animalColumns+` FROM animals WHERE owner_id = ? ORDER BY created_at, id`,
		string(owner))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var animals []*engine.Animal
	for rows.Next() {
		a, err := scanAnimal(rows)
		if err != nil {
			return nil, err
		}
		animals = append(animals, a)
	}
	return animals, rows.Err()
}

func (s *Store) SaveAnimal(ctx context.Context, a *engine.Animal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	historyJSON, err := json.Marshal(historyToJSON(a.History))
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO animals (`+animalColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			quantity = excluded.quantity,
			health = excluded.health,
			last_fed = excluded.last_fed,
			last_watered = excluded.last_watered,
			last_cared_at = excluded.last_cared_at,
			last_health_update = excluded.last_health_update,
			history_json = excluded.history_json`,
		string(a.ID), string(a.OwnerID), a.Name, string(a.Kind), string(a.Category),
		a.Quantity, a.Health, a.BasePrice.Value.String(),
		formatTime(a.CreatedAt), formatTime(a.LastFed), formatTime(a.LastWatered),
		formatTime(a.LastCaredAt), formatTime(a.LastHealthUpdate), string(historyJSON),
	)
	return err
}

func (s *Store) DeleteAnimal(ctx context.Context, owner engine.OwnerID, id engine.AnimalID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		`DELETE FROM animals WHERE id = ? AND owner_id = ?`, string(id), string(owner))
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &engine.NotFoundError{Subject: "animal", ID: string(id)}
	}
	return nil
}

// =============================================================================
// ITEM STORE (engine.ItemStore interface)
// =============================================================================

const itemColumns = `id, owner_id, kind, name, quantity, unit, unit_price, health_boost,
	targets_json, created_at`

func (s *Store) GetItem(ctx context.Context, owner engine.OwnerID, id engine.ItemID) (*engine.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM items WHERE id = ? AND owner_id = ?`,
		string(id), string(owner))

	i, err := scanItem(row)
	if err == sql.ErrNoRows {
		return nil, &engine.NotFoundError{Subject: "item", ID: string(id)}
	}
	if err != nil {
		return nil, err
	}
	return i, nil
}

func (s *Store) GetItemByKind(ctx context.Context, owner engine.OwnerID, kind engine.ItemKind) (*engine.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM items WHERE owner_id = ? AND kind = ?`,
		string(owner), string(kind))

	i, err := scanItem(row)
	if err == sql.ErrNoRows {
		return nil, &engine.NotFoundError{Subject: "item", ID: string(kind)}
	}
	if err != nil {
		return nil, err
	}
	return i, nil
}

func (s *Store) ListItems(ctx context.Context, owner engine.OwnerID) ([]*engine.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+itemColumns+` FROM items WHERE owner_id = ? ORDER BY created_at, id`,
		string(owner))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*engine.Item
	for rows.Next() {
		i, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

func (s *Store) SaveItem(ctx context.Context, i *engine.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	targetsJSON, err := json.Marshal(i.Targets)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO items (`+itemColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			quantity = excluded.quantity,
			unit_price = excluded.unit_price,
			health_boost = excluded.health_boost,
			targets_json = excluded.targets_json`,
		string(i.ID), string(i.OwnerID), string(i.Kind), i.Name, i.Quantity,
		i.Unit, i.UnitPrice.Value.String(), i.HealthBoost, string(targetsJSON),
		formatTime(i.CreatedAt),
	)
	return err
}

func (s *Store) DeleteItem(ctx context.Context, owner engine.OwnerID, id engine.ItemID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		`DELETE FROM items WHERE id = ? AND owner_id = ?`, string(id), string(owner))
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &engine.NotFoundError{Subject: "item", ID: string(id)}
	}
	return nil
}

// =============================================================================
// LEDGER (engine.Ledger interface)
// =============================================================================

func (s *Store) Append(ctx context.Context, e engine.LedgerEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e.IdempotencyKey != "" {
		var exists bool
		err := s.db.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM ledger_entries WHERE idempotency_key = ?)`,
			e.IdempotencyKey).Scan(&exists)
		if err != nil {
			return err
		}
		if exists {
			return engine.ErrDuplicateIdempotencyKey
		}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO ledger_entries
		(id, owner_id, action, subject_type, subject_id, subject_name, amount,
		 quantity, description, idempotency_key, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(e.ID), string(e.OwnerID), string(e.Action), string(e.Subject),
		e.SubjectID, e.SubjectName, e.Amount.Value.String(), e.Quantity,
		e.Description, nullString(e.IdempotencyKey), formatTime(e.CreatedAt),
	)
	// The unique index is the real guard; the EXISTS pre-check above just
	// catches the common case cheaply. SQLite reports the violation either
	// by column or by index name depending on the index shape.
	if err != nil && strings.Contains(err.Error(), "idempotency") {
		return engine.ErrDuplicateIdempotencyKey
	}
	return err
}

func (s *Store) List(ctx context.Context, owner engine.OwnerID, f engine.Filter) ([]engine.LedgerEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT id, owner_id, action, subject_type, subject_id, subject_name,
		amount, quantity, description, idempotency_key, created_at
		FROM ledger_entries WHERE owner_id = ?`
	args := []any{string(owner)}

	if f.Action != "" {
		query += ` AND action = ?`
		args = append(args, string(f.Action))
	}
	if f.Subject != "" {
		query += ` AND subject_type = ?`
		args = append(args, string(f.Subject))
	}
	query += ` ORDER BY created_at DESC, id DESC`
	if f.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []engine.LedgerEntry
	for rows.Next() {
		var e engine.LedgerEntry
		var id, ownerID, action, subject, amount, createdAt string
		var subjectID, subjectName, description, idemKey sql.NullString
		if err := rows.Scan(&id, &ownerID, &action, &subject, &subjectID, &subjectName,
			&amount, &e.Quantity, &description, &idemKey, &createdAt); err != nil {
			return nil, err
		}
		e.ID = engine.EntryID(id)
		e.OwnerID = engine.OwnerID(ownerID)
		e.Action = engine.LedgerAction(action)
		e.Subject = engine.SubjectType(subject)
		e.SubjectID = subjectID.String
		e.SubjectName = subjectName.String
		e.Description = description.String
		e.IdempotencyKey = idemKey.String
		if e.Amount, err = parseCoins(amount); err != nil {
			return nil, err
		}
		if e.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// =============================================================================
// WALLET (engine.Wallet interface)
// =============================================================================

func (s *Store) Balance(ctx context.Context, owner engine.OwnerID) (engine.Coins, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.balanceLocked(ctx, owner)
}

func (s *Store) Credit(ctx context.Context, owner engine.OwnerID, amount engine.Coins) (engine.Coins, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	balance, err := s.balanceLocked(ctx, owner)
	if err != nil {
		return engine.Coins{}, err
	}
	balance = balance.Add(amount)
	return balance, s.setBalanceLocked(ctx, owner, balance)
}

func (s *Store) Debit(ctx context.Context, owner engine.OwnerID, amount engine.Coins) (engine.Coins, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	balance, err := s.balanceLocked(ctx, owner)
	if err != nil {
		return engine.Coins{}, err
	}
	if balance.LessThan(amount) {
		return balance, &engine.InsufficientFundsError{Needed: amount, Available: balance}
	}
	balance = balance.Sub(amount)
	return balance, s.setBalanceLocked(ctx, owner, balance)
}

// balanceLocked reads the owner's balance, provisioning an unseen owner
// with the starting coins.
func (s *Store) balanceLocked(ctx context.Context, owner engine.OwnerID) (engine.Coins, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT currency FROM owners WHERE id = ?`, string(owner)).Scan(&raw)
	if err == sql.ErrNoRows {
		_, err = s.db.ExecContext(ctx,
			`INSERT INTO owners (id, currency, created_at) VALUES (?, ?, ?)`,
			string(owner), s.startingCoins.Value.String(), formatTime(time.Now().UTC()))
		if err != nil {
			return engine.Coins{}, err
		}
		return s.startingCoins, nil
	}
	if err != nil {
		return engine.Coins{}, err
	}
	return parseCoins(raw)
}

func (s *Store) setBalanceLocked(ctx context.Context, owner engine.OwnerID, balance engine.Coins) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE owners SET currency = ? WHERE id = ?`,
		balance.Value.String(), string(owner))
	return err
}

// =============================================================================
// ROW SCANNING AND SERIALIZATION HELPERS
// =============================================================================

type scannable interface {
	Scan(dest ...any) error
}

func scanAnimal(row scannable) (*engine.Animal, error) {
	var a engine.Animal
	var id, ownerID, kind, category, basePrice string
	var name sql.NullString
	var createdAt, lastFed, lastWatered, lastCaredAt, lastHealthUpdate, historyJSON string

	err := row.Scan(&id, &ownerID, &name, &kind, &category, &a.Quantity, &a.Health,
		&basePrice, &createdAt, &lastFed, &lastWatered, &lastCaredAt,
		&lastHealthUpdate, &historyJSON)
	if err != nil {
		return nil, err
	}

	a.ID = engine.AnimalID(id)
	a.OwnerID = engine.OwnerID(ownerID)
	a.Name = name.String
	a.Kind = engine.AnimalKind(kind)
	a.Category = engine.Category(category)
	if a.BasePrice, err = parseCoins(basePrice); err != nil {
		return nil, err
	}
	if a.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if a.LastFed, err = parseTime(lastFed); err != nil {
		return nil, err
	}
	if a.LastWatered, err = parseTime(lastWatered); err != nil {
		return nil, err
	}
	if a.LastCaredAt, err = parseTime(lastCaredAt); err != nil {
		return nil, err
	}
	if a.LastHealthUpdate, err = parseTime(lastHealthUpdate); err != nil {
		return nil, err
	}

	var history []healthEventJSON
	if err := json.Unmarshal([]byte(historyJSON), &history); err != nil {
		return nil, err
	}
	a.History = historyFromJSON(history)
	return &a, nil
}

func scanItem(row scannable) (*engine.Item, error) {
	var i engine.Item
	var id, ownerID, kind, unitPrice, targetsJSON, createdAt string

	err := row.Scan(&id, &ownerID, &kind, &i.Name, &i.Quantity, &i.Unit,
		&unitPrice, &i.HealthBoost, &targetsJSON, &createdAt)
	if err != nil {
		return nil, err
	}

	i.ID = engine.ItemID(id)
	i.OwnerID = engine.OwnerID(ownerID)
	i.Kind = engine.ItemKind(kind)
	if i.UnitPrice, err = parseCoins(unitPrice); err != nil {
		return nil, err
	}
	if i.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(targetsJSON), &i.Targets); err != nil {
		return nil, err
	}
	return &i, nil
}

// healthEventJSON is the storage shape of one history entry.
type healthEventJSON struct {
	Kind   string    `json:"kind"`
	Delta  int       `json:"delta"`
	At     time.Time `json:"at"`
	Reason string    `json:"reason,omitempty"`
}

func historyToJSON(events []engine.HealthEvent) []healthEventJSON {
	out := make([]healthEventJSON, len(events))
	for i, e := range events {
		out[i] = healthEventJSON{Kind: string(e.Kind), Delta: e.Delta, At: e.At, Reason: e.Reason}
	}
	return out
}

func historyFromJSON(events []healthEventJSON) []engine.HealthEvent {
	out := make([]engine.HealthEvent, len(events))
	for i, e := range events {
		out[i] = engine.HealthEvent{Kind: engine.EventKind(e.Kind), Delta: e.Delta, At: e.At, Reason: e.Reason}
	}
	return out
}

func parseCoins(raw string) (engine.Coins, error) {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return engine.Coins{}, fmt.Errorf("bad currency value %q: %w", raw, err)
	}
	return engine.Coins{Value: d}, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(raw string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, raw)
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// Compile-time check that Store implements the full store surface.
var _ engine.Store = (*Store)(nil)
