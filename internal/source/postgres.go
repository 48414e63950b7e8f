package source

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"github.com/project-tktt/job-dashboard/internal/config"
	"github.com/project-tktt/job-dashboard/internal/domain"
)

// Postgres reads listings from a table written by a crawler
type Postgres struct {
	db          *sql.DB
	tableName   string
	size        int
	popularSize int
}

const selectListings = `
	SELECT id, title, description, category, company, location
	FROM %s
	WHERE %s
	ORDER BY id
	LIMIT $%d
`

// NewPostgres opens and pings the database
func NewPostgres(cfg config.PostgresConfig) (*Postgres, error) {
	db, err := sql.Open("postgres", cfg.ConnectionString)
	if err != nil {
		return nil, fmt.Errorf("open postgres connection: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: ping postgres: %v", domain.ErrSourceUnavailable, err)
	}

	return NewPostgresFromDB(db, cfg.TableName), nil
}

// NewPostgresFromDB wraps an open handle
func NewPostgresFromDB(db *sql.DB, tableName string) *Postgres {
	return &Postgres{
		db:          db,
		tableName:   tableName,
		size:        DefaultResults,
		popularSize: DefaultPopularResults,
	}
}

func (p *Postgres) Name() string {
	return string(domain.SourcePostgres)
}

// Search matches the query anywhere in the title, case-insensitively
func (p *Postgres) Search(ctx context.Context, query string) ([]domain.RawListing, error) {
	stmt := fmt.Sprintf(selectListings, pq.QuoteIdentifier(p.tableName), "title ILIKE $1", 2)
	return p.query(ctx, stmt, contains(query), p.size)
}

// SearchPopular narrows by location when one is given
func (p *Postgres) SearchPopular(ctx context.Context, q PopularQuery) ([]domain.RawListing, error) {
	table := pq.QuoteIdentifier(p.tableName)
	if q.Location == "" {
		stmt := fmt.Sprintf(selectListings, table, "title ILIKE $1", 2)
		return p.query(ctx, stmt, contains(q.Title), p.popularSize)
	}

	stmt := fmt.Sprintf(selectListings, table, "title ILIKE $1 AND location ILIKE $2", 3)
	return p.query(ctx, stmt, contains(q.Title), contains(q.Location), p.popularSize)
}

func (p *Postgres) query(ctx context.Context, q string, args ...any) ([]domain.RawListing, error) {
	rows, err := p.db.QueryContext(ctx, q, args...)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("query listings: %w", ctx.Err())
		}
		return nil, fmt.Errorf("%w: query listings: %v", domain.ErrSourceUnavailable, err)
	}
	defer rows.Close()

	listings := make([]domain.RawListing, 0)
	for rows.Next() {
		var id, title, desc, category, company, location sql.NullString
		if err := rows.Scan(&id, &title, &desc, &category, &company, &location); err != nil {
			return nil, fmt.Errorf("%w: scan listing: %v", domain.ErrSourceUnavailable, err)
		}
		rec := flatRecord{
			ID:          nullText(id),
			Title:       nullText(title),
			Description: nullText(desc),
			Category:    nullText(category),
			Company:     nullText(company),
			Location:    nullText(location),
		}
		listings = append(listings, rec.toRaw())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate listings: %v", domain.ErrSourceUnavailable, err)
	}
	return listings, nil
}

// Close closes the database connection
func (p *Postgres) Close() error {
	return p.db.Close()
}

func nullText(s sql.NullString) domain.Text {
	if !s.Valid {
		return domain.Absent
	}
	return domain.Present(s.String)
}

// contains builds an ILIKE pattern, escaping the wildcard characters in s
func contains(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}
