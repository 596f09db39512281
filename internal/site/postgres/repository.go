// Package postgres implements the site repository on PostgreSQL via pgx.
package postgres

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/siteway/siteway/internal/site"
)

const siteFindQuery = `SELECT id, reference, name, subdomain, custom_domain, status, created_at, updated_at FROM sites`

// Unique index names from schema.sql, used to map constraint violations to
// domain errors.
const (
	subdomainIdxName    = "sites_active_subdomain_idx"
	customDomainIdxName = "sites_active_custom_domain_idx"
)

// Repository is a pgx-backed site.Repository.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// siteRow mirrors one row of the sites table.
type siteRow struct {
	ID           string
	Reference    int64
	Name         string
	Subdomain    string
	CustomDomain sql.NullString
	Status       int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*site.Site, error) {
	return r.querySite(ctx, siteFindQuery+" WHERE id = $1", id.String())
}

// GetBySubdomain resolves the single active site for a subdomain token.
// Inactive sites are filtered in SQL so they behave exactly as absent.
func (r *Repository) GetBySubdomain(ctx context.Context, subdomain string) (*site.Site, error) {
	return r.querySite(ctx, siteFindQuery+" WHERE subdomain = $1 AND status = $2", subdomain, int(site.StatusActive))
}

// GetByCustomDomain resolves the single active site for a custom domain.
func (r *Repository) GetByCustomDomain(ctx context.Context, domain string) (*site.Site, error) {
	return r.querySite(ctx, siteFindQuery+" WHERE custom_domain = $1 AND status = $2", domain, int(site.StatusActive))
}

func (r *Repository) Create(ctx context.Context, s *site.Site) (*site.Site, error) {
	query := `
		INSERT INTO sites (id, name, subdomain, custom_domain, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, now(), now())
		RETURNING id
	`
	id := s.ID
	if id == uuid.Nil {
		id = uuid.New()
	}

	var idStr string
	err := r.pool.QueryRow(
		ctx,
		query,
		id.String(),
		s.Name,
		strings.ToLower(strings.TrimSpace(s.Subdomain)),
		nullString(s.CustomDomain),
		int(s.Status),
	).Scan(&idStr)
	if err != nil {
		return nil, mapConstraint(err)
	}

	return r.GetByID(ctx, id)
}

func (r *Repository) Update(ctx context.Context, s *site.Site) (*site.Site, error) {
	query := `
		UPDATE sites
		SET name = $1, subdomain = $2, custom_domain = $3, status = $4, updated_at = now()
		WHERE id = $5
		RETURNING id
	`
	var idStr string
	err := r.pool.QueryRow(
		ctx,
		query,
		s.Name,
		strings.ToLower(strings.TrimSpace(s.Subdomain)),
		nullString(s.CustomDomain),
		int(s.Status),
		s.ID.String(),
	).Scan(&idStr)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, site.ErrSiteNotFound
		}
		return nil, mapConstraint(err)
	}

	return r.GetByID(ctx, s.ID)
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	ct, err := r.pool.Exec(ctx, `DELETE FROM sites WHERE id = $1`, id.String())
	if err != nil {
		return errors.Wrap(err, "delete site")
	}
	if ct.RowsAffected() == 0 {
		return site.ErrSiteNotFound
	}
	return nil
}

func (r *Repository) List(ctx context.Context) ([]*site.Site, error) {
	rows, err := r.pool.Query(ctx, siteFindQuery+" ORDER BY reference ASC")
	if err != nil {
		return nil, errors.Wrap(err, "list sites")
	}
	defer rows.Close()

	var sites []*site.Site
	for rows.Next() {
		var row siteRow
		if err := scanSite(rows, &row); err != nil {
			return nil, errors.Wrap(err, "scan site row")
		}
		sites = append(sites, toDomain(&row))
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "site row iteration")
	}
	return sites, nil
}

// querySite runs a one-row lookup. pgx.ErrNoRows maps to ErrSiteNotFound;
// any other failure propagates wrapped so callers can tell an absent site
// from an unreachable store.
func (r *Repository) querySite(ctx context.Context, query string, args ...any) (*site.Site, error) {
	var row siteRow
	err := scanSite(r.pool.QueryRow(ctx, query, args...), &row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, site.ErrSiteNotFound
		}
		return nil, errors.Wrap(err, "query site")
	}
	return toDomain(&row), nil
}

func scanSite(row pgx.Row, dst *siteRow) error {
	return row.Scan(
		&dst.ID,
		&dst.Reference,
		&dst.Name,
		&dst.Subdomain,
		&dst.CustomDomain,
		&dst.Status,
		&dst.CreatedAt,
		&dst.UpdatedAt,
	)
}

func toDomain(row *siteRow) *site.Site {
	id, err := uuid.Parse(row.ID)
	if err != nil {
		id = uuid.Nil
	}
	return &site.Site{
		ID:           id,
		Reference:    row.Reference,
		Name:         row.Name,
		Subdomain:    row.Subdomain,
		CustomDomain: row.CustomDomain.String,
		Status:       site.Status(row.Status),
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}
}

// mapConstraint translates unique-violation errors from the active-site
// partial indexes into domain errors.
func mapConstraint(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		switch pgErr.ConstraintName {
		case subdomainIdxName:
			return site.ErrSubdomainTaken
		case customDomainIdxName:
			return site.ErrCustomDomainTaken
		}
	}
	return errors.Wrap(err, "write site")
}

func nullString(s string) sql.NullString {
	s = strings.TrimSpace(s)
	return sql.NullString{String: s, Valid: s != ""}
}
