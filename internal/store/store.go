package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"ospanel/internal/models"
)

var (
	// ErrNotFound is returned when an order id does not exist.
	ErrNotFound = errors.New("order not found")
	// ErrConstraint is returned when a record violates a schema constraint
	// (missing required field, bad enumerated value).
	ErrConstraint = errors.New("constraint violation")
)

// Store owns the sqlite database holding service orders. All mutations are
// serialized through a single mutex; reads go through a version-counter
// cache that every write invalidates.
type Store struct {
	db *sql.DB

	writeMu sync.Mutex

	cacheMu  sync.Mutex
	version  int64
	cachedAt int64
	cached   []models.Order
}

// Open opens (or creates) the database at path with the WAL and busy-timeout
// settings the rest of the code assumes. Use ":memory:" for tests.
func Open(path string) (*Store, error) {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	db, err := sql.Open("sqlite", path+sep+"_journal_mode=WAL&_busy_timeout=10000")
	if err != nil {
		return nil, err
	}

	// One writer at a time; WAL lets readers proceed alongside it.
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=10000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set busy_timeout: %w", err)
	}

	return &Store{db: db, cachedAt: -1}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Migrate creates the service_orders table and its indexes if absent.
// Safe to call any number of times.
func (s *Store) Migrate() error {
	table := `CREATE TABLE IF NOT EXISTS service_orders (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		operation TEXT NOT NULL,
		opportunity_number TEXT DEFAULT '',
		vta_number TEXT DEFAULT '',
		quote_number TEXT DEFAULT '',
		circuit_number TEXT DEFAULT '',
		quote_status TEXT DEFAULT '',
		product TEXT NOT NULL,
		quantity INTEGER DEFAULT 0,
		status TEXT DEFAULT 'Pendente',
		gross_value REAL DEFAULT 0,
		created_on DATE,
		order_issuer TEXT DEFAULT '',
		issuer_name TEXT DEFAULT '',
		account_manager TEXT DEFAULT '',
		sales_org TEXT DEFAULT '',
		distribution_channel TEXT DEFAULT '',
		activity_sector TEXT DEFAULT '',
		sd_item TEXT DEFAULT '',
		product_id TEXT DEFAULT '',
		contract_duration TEXT DEFAULT '',
		imported_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`
	if _, err := s.db.Exec(table); err != nil {
		return fmt.Errorf("service_orders migration: %w", err)
	}

	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_service_orders_status ON service_orders(status)",
		"CREATE INDEX IF NOT EXISTS idx_service_orders_quote_status ON service_orders(quote_status)",
		"CREATE INDEX IF NOT EXISTS idx_service_orders_created_on ON service_orders(created_on)",
		"CREATE INDEX IF NOT EXISTS idx_service_orders_product ON service_orders(product)",
		"CREATE INDEX IF NOT EXISTS idx_service_orders_operation_product ON service_orders(operation, product)",
	}
	for _, idx := range indexes {
		if _, err := s.db.Exec(idx); err != nil {
			return fmt.Errorf("index creation: %w\nSQL: %s", err, idx)
		}
	}
	return nil
}

// Version returns the current table version counter. It increments on every
// successful mutation.
func (s *Store) Version() int64 {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	return s.version
}

func (s *Store) invalidate() {
	s.cacheMu.Lock()
	s.version++
	s.cached = nil
	s.cacheMu.Unlock()
}

type execer interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
}

func validateRequired(o *models.Order) error {
	if strings.TrimSpace(o.Operation) == "" {
		return fmt.Errorf("%w: operation is required", ErrConstraint)
	}
	if strings.TrimSpace(o.Product) == "" {
		return fmt.Errorf("%w: product is required", ErrConstraint)
	}
	return nil
}

func insertOrder(e execer, o *models.Order) (int64, error) {
	if err := validateRequired(o); err != nil {
		return 0, err
	}
	now := time.Now().Format("2006-01-02 15:04:05")
	res, err := e.Exec(`INSERT INTO service_orders
		(operation, opportunity_number, vta_number, quote_number, circuit_number,
		 quote_status, product, quantity, status, gross_value, created_on,
		 order_issuer, issuer_name, account_manager, sales_org,
		 distribution_channel, activity_sector, sd_item, product_id,
		 contract_duration, imported_at, updated_at)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		o.Operation, o.OpportunityNumber, o.VTANumber, o.QuoteNumber, o.CircuitNumber,
		o.QuoteStatus, o.Product, o.Quantity, o.Status, o.GrossValue, ns(o.CreatedOn),
		o.OrderIssuer, o.IssuerName, o.AccountManager, o.SalesOrg,
		o.DistributionChannel, o.ActivitySector, o.SDItem, o.ProductID,
		o.ContractDuration, now, now)
	if err != nil {
		if strings.Contains(err.Error(), "constraint") {
			return 0, fmt.Errorf("%w: %v", ErrConstraint, err)
		}
		return 0, err
	}
	return res.LastInsertId()
}

// Insert appends one order, assigns its id and stamps the import timestamp.
func (s *Store) Insert(o *models.Order) (int64, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	id, err := insertOrder(s.db, o)
	if err != nil {
		return 0, err
	}
	s.invalidate()
	return id, nil
}

// Update replaces the mutable fields of an existing order. The import
// timestamp is preserved.
func (s *Store) Update(id int64, o *models.Order) error {
	if err := validateRequired(o); err != nil {
		return err
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	now := time.Now().Format("2006-01-02 15:04:05")
	res, err := s.db.Exec(`UPDATE service_orders SET
		operation=?, opportunity_number=?, vta_number=?, quote_number=?,
		circuit_number=?, quote_status=?, product=?, quantity=?, status=?,
		gross_value=?, created_on=?, order_issuer=?, issuer_name=?,
		account_manager=?, sales_org=?, distribution_channel=?,
		activity_sector=?, sd_item=?, product_id=?, contract_duration=?,
		updated_at=? WHERE id=?`,
		o.Operation, o.OpportunityNumber, o.VTANumber, o.QuoteNumber,
		o.CircuitNumber, o.QuoteStatus, o.Product, o.Quantity, o.Status,
		o.GrossValue, ns(o.CreatedOn), o.OrderIssuer, o.IssuerName,
		o.AccountManager, o.SalesOrg, o.DistributionChannel,
		o.ActivitySector, o.SDItem, o.ProductID, o.ContractDuration,
		now, id)
	if err != nil {
		if strings.Contains(err.Error(), "constraint") {
			return fmt.Errorf("%w: %v", ErrConstraint, err)
		}
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	s.invalidate()
	return nil
}

// Delete removes an order. Deleting an absent id is deliberately not an
// error: the row is gone either way.
func (s *Store) Delete(id int64) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if _, err := s.db.Exec("DELETE FROM service_orders WHERE id=?", id); err != nil {
		return err
	}
	s.invalidate()
	return nil
}

// Clear removes every order and reports how many rows went away.
// Irreversible; callers gate this behind an explicit confirmation.
func (s *Store) Clear() (int64, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	res, err := s.db.Exec("DELETE FROM service_orders")
	if err != nil {
		return 0, err
	}
	removed, _ := res.RowsAffected()
	s.invalidate()
	return removed, nil
}

const selectColumns = `id, operation, COALESCE(opportunity_number,''),
	COALESCE(vta_number,''), COALESCE(quote_number,''), COALESCE(circuit_number,''),
	COALESCE(quote_status,''), product, COALESCE(quantity,0), COALESCE(status,''),
	COALESCE(gross_value,0), created_on, COALESCE(order_issuer,''),
	COALESCE(issuer_name,''), COALESCE(account_manager,''), COALESCE(sales_org,''),
	COALESCE(distribution_channel,''), COALESCE(activity_sector,''),
	COALESCE(sd_item,''), COALESCE(product_id,''), COALESCE(contract_duration,''),
	COALESCE(imported_at,''), COALESCE(updated_at,'')`

func scanOrder(scan func(dest ...interface{}) error) (models.Order, error) {
	var o models.Order
	var createdOn sql.NullString
	err := scan(&o.ID, &o.Operation, &o.OpportunityNumber, &o.VTANumber,
		&o.QuoteNumber, &o.CircuitNumber, &o.QuoteStatus, &o.Product,
		&o.Quantity, &o.Status, &o.GrossValue, &createdOn, &o.OrderIssuer,
		&o.IssuerName, &o.AccountManager, &o.SalesOrg, &o.DistributionChannel,
		&o.ActivitySector, &o.SDItem, &o.ProductID, &o.ContractDuration,
		&o.ImportedAt, &o.UpdatedAt)
	if err != nil {
		return o, err
	}
	o.CreatedOn = sp(createdOn)
	return o, nil
}

func (s *Store) scanAll() ([]models.Order, error) {
	rows, err := s.db.Query("SELECT " + selectColumns + " FROM service_orders ORDER BY id DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := []models.Order{}
	for rows.Next() {
		o, err := scanOrder(rows.Scan)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

// All returns every order, most recent id first. The result is cached and
// reused until the next mutation bumps the version counter.
func (s *Store) All() ([]models.Order, error) {
	s.cacheMu.Lock()
	if s.cached != nil && s.cachedAt == s.version {
		out := make([]models.Order, len(s.cached))
		copy(out, s.cached)
		s.cacheMu.Unlock()
		return out, nil
	}
	v := s.version
	s.cacheMu.Unlock()

	orders, err := s.scanAll()
	if err != nil {
		return nil, err
	}

	s.cacheMu.Lock()
	// Only publish the snapshot if no write raced the scan.
	if s.version == v {
		s.cached = orders
		s.cachedAt = v
	}
	s.cacheMu.Unlock()

	out := make([]models.Order, len(orders))
	copy(out, orders)
	return out, nil
}

// Get returns one order by id.
func (s *Store) Get(id int64) (*models.Order, error) {
	row := s.db.QueryRow("SELECT "+selectColumns+" FROM service_orders WHERE id=?", id)
	o, err := scanOrder(row.Scan)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// Count returns the number of stored orders.
func (s *Store) Count() (int, error) {
	var n int
	err := s.db.QueryRow("SELECT COUNT(*) FROM service_orders").Scan(&n)
	return n, err
}

// Exists reports whether an order with the given natural key columns exists.
// Column names must come from the schema; values are matched exactly.
func (s *Store) Exists(key map[string]string) (bool, error) {
	return existsIn(s.db, key)
}

type querier interface {
	QueryRow(query string, args ...interface{}) *sql.Row
}

// naturalKeyColumns is the allowlist of columns usable as dedupe keys.
var naturalKeyColumns = map[string]bool{
	"operation": true, "opportunity_number": true, "vta_number": true,
	"quote_number": true, "circuit_number": true, "product": true,
	"order_issuer": true, "issuer_name": true, "product_id": true,
}

func existsIn(q querier, key map[string]string) (bool, error) {
	if len(key) == 0 {
		return false, nil
	}
	var conds []string
	var args []interface{}
	for col, val := range key {
		if !naturalKeyColumns[col] {
			return false, fmt.Errorf("invalid natural key column %q", col)
		}
		conds = append(conds, col+"=?")
		args = append(args, val)
	}
	var n int
	query := "SELECT COUNT(*) FROM service_orders WHERE " + strings.Join(conds, " AND ")
	if err := q.QueryRow(query, args...).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

func ns(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func sp(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}
