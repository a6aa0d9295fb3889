package admin

import (
	"context"

	"lukeblog/internal/models"
	"lukeblog/internal/repository"

	"github.com/goccy/go-json"
)

// Access describes who may use a resource and how.
type Access struct {
	SuperuserOnly bool
	ReadOnly      bool
	NoCreate      bool
}

// ListParams is a parsed admin list request.
type ListParams struct {
	Page    int
	Size    int
	Search  string
	Filters map[string]uint
}

// Record is a single object returned by a resource, with the id and label
// used for the change log.
type Record struct {
	ID    uint
	Repr  string
	Value any
}

// Resource is one model exposed on the admin sites.
type Resource interface {
	Name() string
	Access() Access
	// FilterParams lists the query parameters accepted by List.
	FilterParams() []string
	List(ctx context.Context, actor *models.User, p ListParams) (any, int64, error)
	Get(ctx context.Context, actor *models.User, id uint) (Record, error)
	Create(ctx context.Context, actor *models.User, body []byte) (Record, error)
	Update(ctx context.Context, actor *models.User, id uint, body []byte) (Record, error)
	Delete(ctx context.Context, actor *models.User, id uint) (Record, error)
}

// store is the persistence a resource needs; repository.Table satisfies it.
type store[T any] interface {
	List(ctx context.Context, q repository.Query) ([]*T, int64, error)
	Get(ctx context.Context, id uint, scopes ...repository.Scope) (*T, error)
	Create(ctx context.Context, row *T) error
	Save(ctx context.Context, row *T) error
	Delete(ctx context.Context, row *T) error
}

// resource adapts a store to Resource. The hooks carry the per-model rules.
type resource[T any] struct {
	name    string
	access  Access
	store   store[T]
	filters map[string]string // query param -> column

	scope func(actor *models.User) []repository.Scope
	id    func(*T) uint
	repr  func(*T) string
	// apply decodes body onto row, validating it; creating is true for new rows.
	apply func(ctx context.Context, actor *models.User, body []byte, row *T, creating bool) error

	decorate   func(ctx context.Context, rows []*T) error
	afterWrite func(ctx context.Context)
}

func (r *resource[T]) Name() string   { return r.name }
func (r *resource[T]) Access() Access { return r.access }

func (r *resource[T]) FilterParams() []string {
	out := make([]string, 0, len(r.filters))
	for p := range r.filters {
		out = append(out, p)
	}
	return out
}

func (r *resource[T]) scopes(actor *models.User) []repository.Scope {
	if r.scope == nil {
		return nil
	}
	return r.scope(actor)
}

func (r *resource[T]) List(ctx context.Context, actor *models.User, p ListParams) (any, int64, error) {
	q := repository.Query{
		Scopes: r.scopes(actor),
		Search: p.Search,
		Limit:  p.Size,
		Offset: (p.Page - 1) * p.Size,
	}
	for param, value := range p.Filters {
		if col, ok := r.filters[param]; ok {
			if q.Filters == nil {
				q.Filters = map[string]interface{}{}
			}
			q.Filters[col] = value
		}
	}
	rows, total, err := r.store.List(ctx, q)
	if err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	if r.decorate != nil {
		if err := r.decorate(ctx, rows); err != nil {
			return nil, 0, models.NewInternalError(err)
		}
	}
	return rows, total, nil
}

func (r *resource[T]) record(row *T) Record {
	return Record{ID: r.id(row), Repr: r.repr(row), Value: row}
}

func (r *resource[T]) Get(ctx context.Context, actor *models.User, id uint) (Record, error) {
	row, err := r.store.Get(ctx, id, r.scopes(actor)...)
	if err != nil {
		return Record{}, err
	}
	if r.decorate != nil {
		if err := r.decorate(ctx, []*T{row}); err != nil {
			return Record{}, models.NewInternalError(err)
		}
	}
	return r.record(row), nil
}

func (r *resource[T]) Create(ctx context.Context, actor *models.User, body []byte) (Record, error) {
	if r.apply == nil || r.access.ReadOnly || r.access.NoCreate {
		return Record{}, models.NewForbiddenError("Adding " + r.name + " is not allowed")
	}
	row := new(T)
	if err := r.apply(ctx, actor, body, row, true); err != nil {
		return Record{}, err
	}
	if err := r.store.Create(ctx, row); err != nil {
		return Record{}, models.NewInternalError(err)
	}
	r.written(ctx)
	return r.record(row), nil
}

func (r *resource[T]) Update(ctx context.Context, actor *models.User, id uint, body []byte) (Record, error) {
	if r.apply == nil || r.access.ReadOnly {
		return Record{}, models.NewForbiddenError("Changing " + r.name + " is not allowed")
	}
	row, err := r.store.Get(ctx, id, r.scopes(actor)...)
	if err != nil {
		return Record{}, err
	}
	if err := r.apply(ctx, actor, body, row, false); err != nil {
		return Record{}, err
	}
	if err := r.store.Save(ctx, row); err != nil {
		return Record{}, models.NewInternalError(err)
	}
	r.written(ctx)
	return r.record(row), nil
}

func (r *resource[T]) Delete(ctx context.Context, actor *models.User, id uint) (Record, error) {
	if r.access.ReadOnly {
		return Record{}, models.NewForbiddenError("Deleting " + r.name + " is not allowed")
	}
	row, err := r.store.Get(ctx, id, r.scopes(actor)...)
	if err != nil {
		return Record{}, err
	}
	if err := r.store.Delete(ctx, row); err != nil {
		return Record{}, models.NewInternalError(err)
	}
	r.written(ctx)
	return r.record(row), nil
}

func (r *resource[T]) written(ctx context.Context) {
	if r.afterWrite != nil {
		r.afterWrite(ctx)
	}
}

// decodeBody unmarshals a JSON request body into dst.
func decodeBody(body []byte, dst any) error {
	if err := json.Unmarshal(body, dst); err != nil {
		return models.NewValidationError("Invalid request body")
	}
	return nil
}

func statusOr(status *int, fallback int) int {
	if status == nil {
		return fallback
	}
	return *status
}
