package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"cargodesk/internal/core/apperror"
	"cargodesk/internal/store"
)

// uniqueViolation is the PostgreSQL error code for unique constraint violations.
const uniqueViolation = "23505"

// Collection stores one entity type as JSONB documents.
// The document is authoritative; the created_at column exists only for
// stable iteration order and ad-hoc inspection.
type Collection[T store.Keyed] struct {
	pool  *pgxpool.Pool
	name  string
	table string
}

// NewCollection creates a collection bound to its table.
// The table must exist (see EnsureSchema).
func NewCollection[T store.Keyed](pool *pgxpool.Pool, name string) *Collection[T] {
	return &Collection[T]{
		pool:  pool,
		name:  name,
		table: TableName(name),
	}
}

// TableName maps a collection name to its table ("salesOrders" → "cd_sales_orders").
func TableName(collection string) string {
	var b strings.Builder
	b.WriteString("cd_")
	for _, r := range collection {
		if unicode.IsUpper(r) {
			b.WriteByte('_')
			b.WriteRune(unicode.ToLower(r))
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func (c *Collection[T]) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

type docRow struct {
	Doc []byte `db:"doc"`
}

func (c *Collection[T]) decode(raw []byte) (T, error) {
	var item T
	if err := json.Unmarshal(raw, &item); err != nil {
		var zero T
		return zero, apperror.NewStore("decode "+c.name, err)
	}
	return item, nil
}

// GetAll returns every document in insertion order.
func (c *Collection[T]) GetAll(ctx context.Context) ([]T, error) {
	sql, args, err := c.builder().
		Select("doc").
		From(c.table).
		OrderBy("created_at", "id").
		ToSql()
	if err != nil {
		return nil, apperror.NewStore("build select "+c.name, err)
	}

	var rows []docRow
	if err := pgxscan.Select(ctx, c.pool, &rows, sql, args...); err != nil {
		return nil, apperror.NewStore("select "+c.name, err)
	}

	result := make([]T, 0, len(rows))
	for _, row := range rows {
		item, err := c.decode(row.Doc)
		if err != nil {
			return nil, err
		}
		result = append(result, item)
	}
	return result, nil
}

// GetByID returns the document with the given id.
func (c *Collection[T]) GetByID(ctx context.Context, id string) (T, error) {
	var zero T

	sql, args, err := c.builder().
		Select("doc").
		From(c.table).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return zero, apperror.NewStore("build select "+c.name, err)
	}

	var row docRow
	if err := pgxscan.Get(ctx, c.pool, &row, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return zero, apperror.NewNotFound(c.name, id)
		}
		return zero, apperror.NewStore("select "+c.name, err)
	}
	return c.decode(row.Doc)
}

// Create inserts a new document. The id must already be assigned.
func (c *Collection[T]) Create(ctx context.Context, item T) error {
	id := item.Key()
	if id == "" {
		return apperror.NewValidation("cannot store " + c.name + " record without id")
	}

	doc, err := json.Marshal(item)
	if err != nil {
		return apperror.NewStore("encode "+c.name, err)
	}

	now := time.Now().UTC()
	sql, args, err := c.builder().
		Insert(c.table).
		Columns("id", "doc", "created_at", "updated_at").
		Values(id, doc, now, now).
		ToSql()
	if err != nil {
		return apperror.NewStore("build insert "+c.name, err)
	}

	if _, err := c.pool.Exec(ctx, sql, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return apperror.NewDuplicate(c.name, "id", id)
		}
		return apperror.NewStore("insert "+c.name, err)
	}
	return nil
}

// Update replaces an existing document.
func (c *Collection[T]) Update(ctx context.Context, item T) error {
	id := item.Key()

	doc, err := json.Marshal(item)
	if err != nil {
		return apperror.NewStore("encode "+c.name, err)
	}

	sql, args, err := c.builder().
		Update(c.table).
		Set("doc", doc).
		Set("updated_at", time.Now().UTC()).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return apperror.NewStore("build update "+c.name, err)
	}

	tag, err := c.pool.Exec(ctx, sql, args...)
	if err != nil {
		return apperror.NewStore("update "+c.name, err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound(c.name, id)
	}
	return nil
}

// Delete removes the document with the given id. Returns false when absent.
func (c *Collection[T]) Delete(ctx context.Context, id string) (bool, error) {
	sql, args, err := c.builder().
		Delete(c.table).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return false, apperror.NewStore("build delete "+c.name, err)
	}

	tag, err := c.pool.Exec(ctx, sql, args...)
	if err != nil {
		return false, apperror.NewStore("delete "+c.name, err)
	}
	return tag.RowsAffected() > 0, nil
}

// String identifies the collection in logs.
func (c *Collection[T]) String() string {
	return fmt.Sprintf("postgres collection %s (%s)", c.name, c.table)
}
