package quotes

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Fields is a partial update keyed by quotes table column.
type Fields map[string]any

// Repository is the persistence boundary for quotes.
type Repository interface {
	Insert(ctx context.Context, q Quote) error
	Get(ctx context.Context, id string) (*Quote, error)
	List(ctx context.Context, filter ListFilter) ([]Quote, error)
	Update(ctx context.Context, id string, fields Fields) error
}

// updatableColumns are the columns a lifecycle operation may change after creation.
var updatableColumns = map[string]bool{
	colStatus:      true,
	colPaymentDate: true,
	colVoucherURL:  true,
	colInvoiceURL:  true,
}

type dbtx interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

type repository struct {
	db dbtx
}

// NewRepository returns a Postgres backed Repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool}
}

// likeEscaper makes LIKE wildcards in a search term match literally.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

var selectQuotes = "SELECT " + strings.Join(selectExprs(), ", ") + " FROM quotes"

func selectExprs() []string {
	exprs := make([]string, 0, len(quoteColumns))
	for _, col := range quoteColumns {
		if col == colTotal {
			exprs = append(exprs, "total::text")
			continue
		}
		exprs = append(exprs, col)
	}
	return exprs
}

func (r *repository) Insert(ctx context.Context, q Quote) error {
	rec, err := toRecord(q)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	placeholders := make([]string, len(quoteColumns))
	for i, col := range quoteColumns {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		if col == colTotal {
			placeholders[i] += "::numeric"
		}
	}
	query := fmt.Sprintf("INSERT INTO quotes (%s) VALUES (%s)",
		strings.Join(quoteColumns, ", "), strings.Join(placeholders, ", "))
	_, err = r.db.Exec(ctx, query,
		rec.ID, rec.Client, rec.ClientType, rec.Location, rec.EventName, rec.EventNotes,
		rec.EventDate, rec.ExpirationDate, rec.PaymentDate, rec.Timing, rec.Total, rec.Status,
		rec.Items, rec.VoucherURL, rec.InvoiceURL, rec.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("%w: %s", ErrDuplicateID, rec.ID)
		}
		return fmt.Errorf("%w: insert quote %s: %v", ErrPersistence, rec.ID, err)
	}
	return nil
}

func (r *repository) Get(ctx context.Context, id string) (*Quote, error) {
	row := r.db.QueryRow(ctx, selectQuotes+" WHERE id = $1", id)
	q, err := scanQuote(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFound(id)
		}
		return nil, fmt.Errorf("%w: get quote %s: %v", ErrPersistence, id, err)
	}
	return &q, nil
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]Quote, error) {
	var conditions []string
	var args []interface{}
	argPos := 1

	if search := strings.TrimSpace(filter.Search); search != "" {
		conditions = append(conditions, fmt.Sprintf(
			`(client ILIKE $%d ESCAPE '\' OR id ILIKE $%d ESCAPE '\' OR event_name ILIKE $%d ESCAPE '\')`, argPos, argPos, argPos))
		args = append(args, "%"+likeEscaper.Replace(search)+"%")
		argPos++
	}
	if filter.ExpiringOnOrBefore != nil {
		conditions = append(conditions, fmt.Sprintf(
			"expiration_date IS NOT NULL AND expiration_date <= $%d", argPos))
		args = append(args, DateOnly(*filter.ExpiringOnOrBefore))
		argPos++
	}

	query := selectQuotes
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC, id"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: list quotes: %v", ErrPersistence, err)
	}
	defer rows.Close()

	var out []Quote
	for rows.Next() {
		q, err := scanQuote(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scan quote: %v", ErrPersistence, err)
		}
		out = append(out, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list quotes: %v", ErrPersistence, err)
	}
	return out, nil
}

func (r *repository) Update(ctx context.Context, id string, fields Fields) error {
	if len(fields) == 0 {
		return nil
	}
	cols := make([]string, 0, len(fields))
	for col := range fields {
		if !updatableColumns[col] {
			return fmt.Errorf("%w: column %s is not updatable", ErrPersistence, col)
		}
		cols = append(cols, col)
	}
	sort.Strings(cols)

	sets := make([]string, len(cols))
	args := make([]interface{}, 0, len(cols)+1)
	for i, col := range cols {
		sets[i] = fmt.Sprintf("%s = $%d", col, i+1)
		args = append(args, fields[col])
	}
	args = append(args, id)
	query := fmt.Sprintf("UPDATE quotes SET %s WHERE id = $%d", strings.Join(sets, ", "), len(args))

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: update quote %s: %v", ErrPersistence, id, err)
	}
	if tag.RowsAffected() == 0 {
		return notFound(id)
	}
	return nil
}

func scanQuote(row pgx.Row) (Quote, error) {
	var rec record
	var clientType, location, eventName, eventNotes *string
	var timing, items []byte
	err := row.Scan(
		&rec.ID, &rec.Client, &clientType, &location, &eventName, &eventNotes,
		&rec.EventDate, &rec.ExpirationDate, &rec.PaymentDate, &timing, &rec.Total, &rec.Status,
		&items, &rec.VoucherURL, &rec.InvoiceURL, &rec.CreatedAt,
	)
	if err != nil {
		return Quote{}, err
	}
	rec.ClientType = deref(clientType)
	rec.Location = deref(location)
	rec.EventName = deref(eventName)
	rec.EventNotes = deref(eventNotes)
	rec.Timing = timing
	rec.Items = items
	return fromRecord(rec)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
