package admin

import (
	"context"
	"fmt"

	"lukeblog/internal/middleware"
	"lukeblog/internal/models"
	"lukeblog/internal/repository"

	"gorm.io/gorm"
)

// Sites lists the prefixes the admin is mounted under.
var Sites = []string{"super_admin", "admin", "mgadmin"}

const (
	defaultPageSize  = 20
	maxPageSize      = 100
	autocompleteSize = 10
)

// Deps wires the admin to its storage.
type Deps struct {
	DB    *gorm.DB
	Posts repository.PostRepository
	Logs  repository.AdminLogRepository
	// OnSideBarChange runs after every sidebar mutation, typically to drop
	// the cached sidebar rows.
	OnSideBarChange func(ctx context.Context) error
	PageSize        int
}

// Admin holds the resource set shared by every site.
type Admin struct {
	db           *gorm.DB
	policy       OwnerPolicy
	posts        repository.PostRepository
	logs         repository.AdminLogRepository
	categories   *repository.Table[models.Category]
	categoryRepo repository.CategoryRepository
	tags         *repository.Table[models.Tag]
	tagRepo      repository.TagRepository
	onSideBar    func(ctx context.Context) error
	pageSize     int

	resources map[string]Resource
	order     []string
}

// New builds the admin resource set.
func New(deps Deps) *Admin {
	a := &Admin{
		db:    deps.DB,
		posts: deps.Posts,
		logs:  deps.Logs,
		categories: repository.NewTable[models.Category](deps.DB, repository.TableOptions{
			Name:          "Category",
			SearchColumns: []string{"name"},
			PrefixColumn:  "name",
		}),
		tags: repository.NewTable[models.Tag](deps.DB, repository.TableOptions{
			Name:          "Tag",
			SearchColumns: []string{"name"},
			PrefixColumn:  "name",
		}),
		categoryRepo: repository.NewCategoryRepository(deps.DB),
		tagRepo:      repository.NewTagRepository(deps.DB),
		onSideBar:    deps.OnSideBarChange,
		pageSize:     deps.PageSize,
		resources:    map[string]Resource{},
	}
	if a.posts == nil {
		a.posts = repository.NewPostRepository(deps.DB)
	}
	if a.logs == nil {
		a.logs = repository.NewAdminLogRepository(deps.DB)
	}
	if a.pageSize <= 0 {
		a.pageSize = defaultPageSize
	}
	for _, r := range []Resource{
		a.categoryResource(),
		a.tagResource(),
		a.postResource(),
		a.linkResource(),
		a.sideBarResource(),
		a.commentResource(),
		a.logEntryResource(),
	} {
		a.resources[r.Name()] = r
		a.order = append(a.order, r.Name())
	}
	return a
}

// Resource returns the named resource if actor may use it.
func (a *Admin) Resource(name string, actor *models.User) (Resource, error) {
	r, ok := a.resources[name]
	if !ok {
		return nil, models.NewNotFoundError("Resource", name)
	}
	if r.Access().SuperuserOnly && (actor == nil || !actor.IsSuperuser) {
		return nil, models.NewForbiddenError("Superuser access required")
	}
	return r, nil
}

// Visible lists the resource names actor may use, in display order.
func (a *Admin) Visible(actor *models.User) []string {
	out := make([]string, 0, len(a.order))
	for _, name := range a.order {
		if _, err := a.Resource(name, actor); err == nil {
			out = append(out, name)
		}
	}
	return out
}

func (a *Admin) sideBarsChanged(ctx context.Context) {
	if a.onSideBar == nil {
		return
	}
	if err := a.onSideBar(ctx); err != nil {
		middleware.Logger.WarnContext(ctx, "Failed to invalidate sidebars", "error", err)
	}
}

// record writes the change log entry for a mutation. Failures are logged only.
func (a *Admin) record(ctx context.Context, site, resource, action string, actor *models.User, rec Record) {
	entry := &models.AdminLogEntry{
		UserID:     actor.ID,
		Site:       site,
		Resource:   resource,
		ObjectID:   rec.ID,
		ObjectRepr: truncate(rec.Repr, 190),
		Action:     action,
		Message:    fmt.Sprintf("%s %s %q on %s", action, resource, rec.Repr, site),
	}
	if err := a.logs.Create(ctx, entry); err != nil {
		middleware.Logger.ErrorContext(ctx, "Failed to write admin log",
			"error", err, "resource", resource, "object_id", rec.ID)
	}
}
