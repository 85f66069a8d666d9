package datasource

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.

	"github.com/seenimoa/onepager/internal/search"
	"github.com/seenimoa/onepager/pkg/models"
	"github.com/seenimoa/onepager/pkg/utils"
)

// Compile-time interface checks.
var _ Catalog = (*StaticCatalog)(nil)
var _ Catalog = (*SQLiteCatalog)(nil)

// ---------------------------------------------------------------------------
// StaticCatalog
// ---------------------------------------------------------------------------

// StaticCatalog is an immutable in-memory company list.
type StaticCatalog struct {
	companies []models.Company
	index     map[string]int
}

// NewStaticCatalog copies companies. Duplicate symbols keep their first
// entry for Company; Lookup collapses them the same way.
func NewStaticCatalog(companies []models.Company) *StaticCatalog {
	cs := make([]models.Company, len(companies))
	copy(cs, companies)
	idx := make(map[string]int, len(cs))
	for i, c := range cs {
		if _, ok := idx[c.Symbol]; !ok {
			idx[c.Symbol] = i
		}
	}
	return &StaticCatalog{companies: cs, index: idx}
}

// Lookup matches query against symbols and names in catalog order.
func (s *StaticCatalog) Lookup(ctx context.Context, query string) ([]models.Company, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return search.Match(query, s.companies, 0), nil
}

// Company returns the entry for symbol.
func (s *StaticCatalog) Company(_ context.Context, symbol string) (models.Company, error) {
	i, ok := s.index[utils.NormalizeSymbol(symbol)]
	if !ok {
		return models.Company{}, fmt.Errorf("%w: %s", ErrSymbolNotFound, symbol)
	}
	return s.companies[i], nil
}

// All returns the catalog.
func (s *StaticCatalog) All(_ context.Context) ([]models.Company, error) {
	out := make([]models.Company, len(s.companies))
	copy(out, s.companies)
	return out, nil
}

// ---------------------------------------------------------------------------
// SQLiteCatalog
// ---------------------------------------------------------------------------

const catalogSchema = `
CREATE TABLE IF NOT EXISTS companies (
	seq            INTEGER PRIMARY KEY AUTOINCREMENT,
	symbol         TEXT NOT NULL UNIQUE,
	name           TEXT NOT NULL,
	price          REAL NOT NULL DEFAULT 0,
	change         REAL NOT NULL DEFAULT 0,
	change_percent REAL NOT NULL DEFAULT 0,
	market_cap     TEXT NOT NULL DEFAULT '',
	pe_ratio       REAL NOT NULL DEFAULT 0,
	revenue        TEXT NOT NULL DEFAULT '',
	profit_margin  REAL NOT NULL DEFAULT 0,
	sector         TEXT NOT NULL DEFAULT ''
);`

const companyColumns = `symbol, name, price, change, change_percent, market_cap, pe_ratio, revenue, profit_margin, sector`

// SQLiteCatalog is a catalog backed by a SQLite database. Lookups return
// rows in insertion order.
type SQLiteCatalog struct {
	db *sql.DB
}

// OpenSQLiteCatalog opens (or creates) the database at dbPath and ensures
// the schema exists. ":memory:" gives a private in-memory catalog.
func OpenSQLiteCatalog(ctx context.Context, dbPath string) (*SQLiteCatalog, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open catalog db: %w", err)
	}
	// A single connection keeps ":memory:" databases shared across queries.
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, catalogSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create catalog schema: %w", err)
	}
	return &SQLiteCatalog{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteCatalog) Close() error {
	return s.db.Close()
}

// Seed inserts companies that are not present yet and returns how many
// rows were added.
func (s *SQLiteCatalog) Seed(ctx context.Context, companies []models.Company) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR IGNORE INTO companies (`+companyColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	added := 0
	for _, c := range companies {
		if err := c.Validate(); err != nil {
			return 0, err
		}
		res, err := stmt.ExecContext(ctx, c.Symbol, c.Name, c.Price, c.Change, c.ChangePercent,
			c.MarketCap, c.PERatio, c.Revenue, c.ProfitMargin, c.Sector)
		if err != nil {
			return 0, fmt.Errorf("insert %s: %w", c.Symbol, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			added++
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return added, nil
}

// Lookup matches query as a substring of symbol or name with the same
// matcher as StaticCatalog. SQLite's LIKE only folds ASCII case, so rows
// are filtered in Go.
func (s *SQLiteCatalog) Lookup(ctx context.Context, query string) ([]models.Company, error) {
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}
	all, err := s.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("catalog lookup: %w", err)
	}
	return search.Match(query, all, 0), nil
}

// Company returns the entry for symbol.
func (s *SQLiteCatalog) Company(ctx context.Context, symbol string) (models.Company, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+companyColumns+` FROM companies WHERE symbol = ?`, utils.NormalizeSymbol(symbol))
	c, err := scanCompany(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Company{}, fmt.Errorf("%w: %s", ErrSymbolNotFound, symbol)
	}
	return c, err
}

// All returns the catalog in insertion order.
func (s *SQLiteCatalog) All(ctx context.Context) ([]models.Company, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+companyColumns+` FROM companies ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("catalog list: %w", err)
	}
	return scanCompanies(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCompany(r rowScanner) (models.Company, error) {
	var c models.Company
	err := r.Scan(&c.Symbol, &c.Name, &c.Price, &c.Change, &c.ChangePercent,
		&c.MarketCap, &c.PERatio, &c.Revenue, &c.ProfitMargin, &c.Sector)
	return c, err
}

func scanCompanies(rows *sql.Rows) ([]models.Company, error) {
	defer rows.Close()
	out := make([]models.Company, 0)
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
