// Package postgres implements the durable URL record store. Insert-if-absent
// rides on the unique index over codes, and the hit counter is maintained by
// a single gated UPDATE so concurrent resolutions never lose updates.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"

	"github.com/ajkumarray/margdarshak/internal/entity"
)

const uniqueViolationErrCode = "23505"

func isUniqueViolationError(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.SQLState() == uniqueViolationErrCode
}

type urlRow struct {
	ID             int64      `db:"id"`
	Code           string     `db:"code"`
	OriginalURL    string     `db:"original_url"`
	ShortURL       string     `db:"short_url"`
	Owner          string     `db:"owner"`
	Status         string     `db:"status"`
	ClickCount     int64      `db:"click_count"`
	LastAccessedAt *time.Time `db:"last_accessed_at"`
	ExpiresAt      time.Time  `db:"expires_at"`
	CreatedAt      time.Time  `db:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at"`
	Deleted        bool       `db:"deleted"`
	DeletedAt      *time.Time `db:"deleted_at"`
}

func (r *urlRow) toEntity() *entity.URL {
	return &entity.URL{
		ID:             r.ID,
		Code:           r.Code,
		OriginalURL:    r.OriginalURL,
		ShortURL:       r.ShortURL,
		Owner:          r.Owner,
		Status:         entity.Status(r.Status),
		ClickCount:     r.ClickCount,
		LastAccessedAt: r.LastAccessedAt,
		ExpiresAt:      r.ExpiresAt,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
		Deleted:        r.Deleted,
		DeletedAt:      r.DeletedAt,
	}
}

// URLRepository persists URL records in PostgreSQL.
type URLRepository struct {
	db *sqlx.DB
}

// NewURLRepository returns a repository backed by the given connection pool.
func NewURLRepository(db *sqlx.DB) *URLRepository {
	return &URLRepository{db: db}
}

// Create inserts a new record. The unique index over codes covers deleted
// rows too, so a soft-deleted code can never be reassigned.
func (r *URLRepository) Create(ctx context.Context, url *entity.URL) (*entity.URL, error) {
	const op = "database.postgres.URLRepository.Create"
	const query = `INSERT INTO urls (code, original_url, short_url, owner, status, click_count, expires_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING *`

	var row urlRow

	err := r.db.GetContext(ctx, &row, query,
		url.Code, url.OriginalURL, url.ShortURL, url.Owner, string(url.Status),
		url.ClickCount, url.ExpiresAt, url.CreatedAt, url.UpdatedAt)
	if err != nil {
		if isUniqueViolationError(err) {
			return nil, fmt.Errorf("%s: %w", op, entity.ErrCodeExists)
		}

		return nil, fmt.Errorf("%s: %w: failed to insert into urls table: %v", op, entity.ErrStorage, err)
	}

	return row.toEntity(), nil
}

// GetByCode retrieves a non-deleted record by its short code.
func (r *URLRepository) GetByCode(ctx context.Context, code string) (*entity.URL, error) {
	const op = "database.postgres.URLRepository.GetByCode"
	const query = `SELECT * FROM urls WHERE code = $1 AND deleted = FALSE`

	var row urlRow

	if err := r.db.GetContext(ctx, &row, query, code); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, entity.ErrURLNotFound)
		}

		return nil, fmt.Errorf("%s: %w: failed to get row from urls table: %v", op, entity.ErrStorage, err)
	}

	return row.toEntity(), nil
}

// RegisterHit increments the click count and stamps the access time in one
// statement. The WHERE clause repeats the resolvability gate so the counter
// only moves for records that may satisfy a redirect at now; there is no
// read-then-write window for concurrent resolutions to race through.
func (r *URLRepository) RegisterHit(ctx context.Context, code string, now time.Time) (*entity.URL, error) {
	const op = "database.postgres.URLRepository.RegisterHit"
	const query = `UPDATE urls
		SET click_count = click_count + 1, last_accessed_at = $2, updated_at = $2
		WHERE code = $1 AND deleted = FALSE AND status = 'active' AND expires_at > $2
		RETURNING *`

	var row urlRow

	if err := r.db.GetContext(ctx, &row, query, code, now); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, entity.ErrURLNotFound)
		}

		return nil, fmt.Errorf("%s: %w: failed to register hit on urls table row: %v", op, entity.ErrStorage, err)
	}

	return row.toEntity(), nil
}

// UpdateContent rewrites the target URL and expiry of a non-deleted record.
func (r *URLRepository) UpdateContent(ctx context.Context, code, originalURL string, expiresAt, now time.Time) (*entity.URL, error) {
	const op = "database.postgres.URLRepository.UpdateContent"
	const query = `UPDATE urls
		SET original_url = $2, expires_at = $3, updated_at = $4
		WHERE code = $1 AND deleted = FALSE
		RETURNING *`

	var row urlRow

	if err := r.db.GetContext(ctx, &row, query, code, originalURL, expiresAt, now); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, entity.ErrURLNotFound)
		}

		return nil, fmt.Errorf("%s: %w: failed to update urls table row: %v", op, entity.ErrStorage, err)
	}

	return row.toEntity(), nil
}

// SetStatus sets the record status. Writing the current value again is a
// no-op success.
func (r *URLRepository) SetStatus(ctx context.Context, code string, status entity.Status, now time.Time) (*entity.URL, error) {
	const op = "database.postgres.URLRepository.SetStatus"
	const query = `UPDATE urls
		SET status = $2, updated_at = $3
		WHERE code = $1 AND deleted = FALSE
		RETURNING *`

	var row urlRow

	if err := r.db.GetContext(ctx, &row, query, code, string(status), now); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, entity.ErrURLNotFound)
		}

		return nil, fmt.Errorf("%s: %w: failed to update urls table row: %v", op, entity.ErrStorage, err)
	}

	return row.toEntity(), nil
}

// SetExpiry replaces the expiry timestamp of a non-deleted record.
func (r *URLRepository) SetExpiry(ctx context.Context, code string, expiresAt, now time.Time) (*entity.URL, error) {
	const op = "database.postgres.URLRepository.SetExpiry"
	const query = `UPDATE urls
		SET expires_at = $2, updated_at = $3
		WHERE code = $1 AND deleted = FALSE
		RETURNING *`

	var row urlRow

	if err := r.db.GetContext(ctx, &row, query, code, expiresAt, now); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, entity.ErrURLNotFound)
		}

		return nil, fmt.Errorf("%s: %w: failed to update urls table row: %v", op, entity.ErrStorage, err)
	}

	return row.toEntity(), nil
}

// SoftDelete marks the record deleted. The row and its code stay behind.
func (r *URLRepository) SoftDelete(ctx context.Context, code string, now time.Time) error {
	const op = "database.postgres.URLRepository.SoftDelete"
	const query = `UPDATE urls
		SET deleted = TRUE, deleted_at = $2, updated_at = $2
		WHERE code = $1 AND deleted = FALSE`

	res, err := r.db.ExecContext(ctx, query, code, now)
	if err != nil {
		return fmt.Errorf("%s: %w: failed to soft-delete urls table row: %v", op, entity.ErrStorage, err)
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w: failed to get number of affected rows: %v", op, entity.ErrStorage, err)
	}

	if rowsAffected != 1 {
		return fmt.Errorf("%s: %w", op, entity.ErrURLNotFound)
	}

	return nil
}

// ListByOwner returns the owner's active, non-deleted records in creation
// order.
func (r *URLRepository) ListByOwner(ctx context.Context, owner string) ([]*entity.URL, error) {
	const op = "database.postgres.URLRepository.ListByOwner"
	const query = `SELECT * FROM urls
		WHERE owner = $1 AND status = 'active' AND deleted = FALSE
		ORDER BY id`

	var rows []urlRow

	if err := r.db.SelectContext(ctx, &rows, query, owner); err != nil {
		return nil, fmt.Errorf("%s: %w: failed to select from urls table: %v", op, entity.ErrStorage, err)
	}

	urls := make([]*entity.URL, 0, len(rows))
	for i := range rows {
		urls = append(urls, rows[i].toEntity())
	}

	return urls, nil
}
