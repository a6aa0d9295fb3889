// Package repository provides data access layer implementations for the blog.
package repository

import (
	"context"
	"errors"
	"sort"
	"strings"

	"lukeblog/internal/models"

	"gorm.io/gorm"
)

// Scope narrows a query, e.g. to the rows an admin actor owns.
type Scope = func(*gorm.DB) *gorm.DB

// Query describes a filtered, paginated listing.
type Query struct {
	Scopes []Scope
	// Search matches any of the table's search columns, case-insensitively.
	Search string
	// Prefix matches the table's prefix column from the start, case-insensitively.
	Prefix string
	// Filters are column equality constraints; keys must be trusted column names.
	Filters map[string]interface{}
	Limit   int
	Offset  int
}

// TableOptions configures a Table.
type TableOptions struct {
	// Name is used in not-found errors.
	Name          string
	Order         string
	SearchColumns []string
	PrefixColumn  string
	Preloads      []string
}

// Table is a generic gorm repository for the simple admin-managed entities.
type Table[T any] struct {
	db   *gorm.DB
	opts TableOptions
}

// NewTable creates a Table for T.
func NewTable[T any](db *gorm.DB, opts TableOptions) *Table[T] {
	if opts.Order == "" {
		opts.Order = "id DESC"
	}
	return &Table[T]{db: db, opts: opts}
}

func (t *Table[T]) base(ctx context.Context, q Query) *gorm.DB {
	tx := t.db.WithContext(ctx).Model(new(T)).Scopes(q.Scopes...)
	cols := make([]string, 0, len(q.Filters))
	for col := range q.Filters {
		cols = append(cols, col)
	}
	sort.Strings(cols)
	for _, col := range cols {
		tx = tx.Where(col+" = ?", q.Filters[col])
	}
	if s := strings.TrimSpace(q.Search); s != "" && len(t.opts.SearchColumns) > 0 {
		clauses := make([]string, 0, len(t.opts.SearchColumns))
		args := make([]interface{}, 0, len(t.opts.SearchColumns))
		for _, col := range t.opts.SearchColumns {
			clauses = append(clauses, "LOWER("+col+") LIKE ? ESCAPE '\\'")
			args = append(args, containsPattern(s))
		}
		tx = tx.Where(strings.Join(clauses, " OR "), args...)
	}
	if p := strings.TrimSpace(q.Prefix); p != "" && t.opts.PrefixColumn != "" {
		tx = tx.Where("LOWER("+t.opts.PrefixColumn+") LIKE ? ESCAPE '\\'", prefixPattern(p))
	}
	return tx
}

// List returns one page of rows plus the total matching count.
func (t *Table[T]) List(ctx context.Context, q Query) ([]*T, int64, error) {
	var total int64
	if err := t.base(ctx, q).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	rows := make([]*T, 0)
	tx := t.base(ctx, q).Order(t.opts.Order)
	for _, p := range t.opts.Preloads {
		tx = tx.Preload(p)
	}
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit).Offset(q.Offset)
	}
	if err := tx.Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// Get loads the row with id inside the given scopes.
func (t *Table[T]) Get(ctx context.Context, id uint, scopes ...Scope) (*T, error) {
	row := new(T)
	tx := t.db.WithContext(ctx).Scopes(scopes...)
	for _, p := range t.opts.Preloads {
		tx = tx.Preload(p)
	}
	if err := tx.First(row, id).Error; err != nil {
		return nil, lookupError(err, t.opts.Name, id)
	}
	return row, nil
}

// Create inserts row.
func (t *Table[T]) Create(ctx context.Context, row *T) error {
	return t.db.WithContext(ctx).Create(row).Error
}

// Save writes every column of row.
func (t *Table[T]) Save(ctx context.Context, row *T) error {
	return t.db.WithContext(ctx).Save(row).Error
}

// Delete removes row.
func (t *Table[T]) Delete(ctx context.Context, row *T) error {
	return t.db.WithContext(ctx).Delete(row).Error
}

// escapeLike escapes LIKE wildcards in user input.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(strings.ToLower(s))
}

func containsPattern(s string) string {
	return "%" + escapeLike(s) + "%"
}

func prefixPattern(s string) string {
	return escapeLike(s) + "%"
}

// lookupError maps a gorm lookup failure to an AppError.
func lookupError(err error, resource string, id interface{}) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.NewNotFoundError(resource, id)
	}
	return models.NewInternalError(err)
}
