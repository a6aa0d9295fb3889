package admin

import (
	"context"
	"fmt"
	"strings"

	"lukeblog/internal/models"
	"lukeblog/internal/repository"
	"lukeblog/internal/service"

	"gorm.io/gorm"
)

type categoryInput struct {
	Name   string `json:"name" validate:"required,max=50"`
	Status *int   `json:"status" validate:"omitempty,oneof=0 1"`
	IsNav  bool   `json:"is_nav"`
}

type tagInput struct {
	Name   string `json:"name" validate:"required,max=10"`
	Status *int   `json:"status" validate:"omitempty,oneof=0 1"`
}

type postInput struct {
	Title      string `json:"title" validate:"required,max=255"`
	Desc       string `json:"desc" validate:"max=1024"`
	Content    string `json:"content" validate:"required"`
	IsMD       bool   `json:"is_md"`
	Status     *int   `json:"status" validate:"omitempty,oneof=0 1 2"`
	CategoryID uint   `json:"category_id" validate:"required"`
	TagIDs     []uint `json:"tag"`
}

type linkInput struct {
	Title  string `json:"title" validate:"required,max=50"`
	Href   string `json:"href" validate:"required,url,max=200"`
	Status *int   `json:"status" validate:"omitempty,oneof=0 1"`
	Weight *int   `json:"weight" validate:"omitempty,min=1,max=6"`
}

type sideBarInput struct {
	Title       string `json:"title" validate:"required,max=50"`
	DisplayType int    `json:"display_type" validate:"required,oneof=1 2 3 4"`
	Content     string `json:"content" validate:"max=500"`
	Status      *int   `json:"status" validate:"omitempty,oneof=0 1"`
}

type commentInput struct {
	Status *int `json:"status" validate:"required,oneof=0 1"`
}

// bind decodes and validates a request body.
func bind(ctx context.Context, body []byte, in any) error {
	if err := decodeBody(body, in); err != nil {
		return err
	}
	if errs := service.ValidateStruct(ctx, in); len(errs) > 0 {
		return errs
	}
	return nil
}

func (a *Admin) ownerScope(actor *models.User) []repository.Scope {
	return []repository.Scope{a.policy.Scope(actor)}
}

func (a *Admin) categoryResource() Resource {
	return &resource[models.Category]{
		name:    "category",
		store:   deletingStore[models.Category]{Table: a.categories, remove: a.categoryRepo.DeleteCascade},
		filters: map[string]string{"status": "status"},
		scope:   a.ownerScope,
		id:      func(c *models.Category) uint { return c.ID },
		repr:    func(c *models.Category) string { return c.Name },
		apply: func(ctx context.Context, actor *models.User, body []byte, c *models.Category, _ bool) error {
			var in categoryInput
			if err := bind(ctx, body, &in); err != nil {
				return err
			}
			c.Name = strings.TrimSpace(in.Name)
			c.Status = statusOr(in.Status, models.StatusNormal)
			c.IsNav = in.IsNav
			a.policy.Stamp(c, actor)
			return nil
		},
		decorate: func(ctx context.Context, rows []*models.Category) error {
			ids := make([]uint, 0, len(rows))
			for _, c := range rows {
				ids = append(ids, c.ID)
			}
			counts, err := a.posts.CountByCategory(ctx, ids)
			if err != nil {
				return err
			}
			for _, c := range rows {
				c.PostCount = counts[c.ID]
			}
			return nil
		},
	}
}

func (a *Admin) tagResource() Resource {
	return &resource[models.Tag]{
		name:    "tag",
		store:   deletingStore[models.Tag]{Table: a.tags, remove: a.tagRepo.Delete},
		filters: map[string]string{"status": "status"},
		scope:   a.ownerScope,
		id:      func(t *models.Tag) uint { return t.ID },
		repr:    func(t *models.Tag) string { return t.Name },
		apply: func(ctx context.Context, actor *models.User, body []byte, t *models.Tag, _ bool) error {
			var in tagInput
			if err := bind(ctx, body, &in); err != nil {
				return err
			}
			t.Name = strings.TrimSpace(in.Name)
			t.Status = statusOr(in.Status, models.StatusNormal)
			a.policy.Stamp(t, actor)
			return nil
		},
	}
}

// deletingStore deletes through a repository that also removes the
// dependent rows in the same transaction.
type deletingStore[T any] struct {
	*repository.Table[T]
	remove func(ctx context.Context, row *T) error
}

func (s deletingStore[T]) Delete(ctx context.Context, row *T) error {
	return s.remove(ctx, row)
}

// postStore adapts PostRepository to the admin store contract.
type postStore struct {
	repo repository.PostRepository
}

func (s postStore) List(ctx context.Context, q repository.Query) ([]*models.Post, int64, error) {
	f := repository.PostFilter{AnyStatus: true, Query: q.Search, Scopes: q.Scopes}
	if v, ok := q.Filters["category_id"].(uint); ok {
		f.CategoryID = v
	}
	if v, ok := q.Filters["status"].(uint); ok {
		f.AnyStatus = false
		f.Statuses = []int{int(v)}
	}
	return s.repo.List(ctx, f, q.Limit, q.Offset)
}

func (s postStore) Get(ctx context.Context, id uint, scopes ...repository.Scope) (*models.Post, error) {
	return s.repo.GetByID(ctx, id, scopes...)
}

func (s postStore) Create(ctx context.Context, p *models.Post) error { return s.repo.Create(ctx, p) }
func (s postStore) Save(ctx context.Context, p *models.Post) error   { return s.repo.Update(ctx, p) }
func (s postStore) Delete(ctx context.Context, p *models.Post) error { return s.repo.Delete(ctx, p) }

func (a *Admin) postResource() Resource {
	return &resource[models.Post]{
		name:  "post",
		store: postStore{repo: a.posts},
		filters: map[string]string{
			"owner_category": "category_id",
			"status":         "status",
		},
		scope: a.ownerScope,
		id:    func(p *models.Post) uint { return p.ID },
		repr:  func(p *models.Post) string { return p.Title },
		apply: func(ctx context.Context, actor *models.User, body []byte, p *models.Post, _ bool) error {
			var in postInput
			if err := bind(ctx, body, &in); err != nil {
				return err
			}
			// category and tags must be ones the actor could pick
			category, err := a.categories.Get(ctx, in.CategoryID, a.ownerScope(actor)...)
			if err != nil {
				if models.ErrorCode(err) == models.CodeNotFound {
					return models.FieldErrors{"category_id": {"Select a valid choice."}}
				}
				return err
			}
			tags, err := a.tagRepo.FindByIDs(ctx, dedupe(in.TagIDs), a.ownerScope(actor)...)
			if err != nil {
				return models.NewInternalError(err)
			}
			if len(tags) != len(dedupe(in.TagIDs)) {
				return models.FieldErrors{"tag": {"Select a valid choice."}}
			}

			p.Title = strings.TrimSpace(in.Title)
			p.Desc = in.Desc
			p.Content = in.Content
			p.IsMD = in.IsMD
			p.Status = statusOr(in.Status, models.StatusNormal)
			p.CategoryID = category.ID
			p.Category = category
			p.Tags = tags
			a.policy.Stamp(p, actor)
			p.Owner = actor
			return nil
		},
	}
}

func (a *Admin) linkResource() Resource {
	return &resource[models.Link]{
		name:    "link",
		store:   repository.NewTable[models.Link](a.db, repository.TableOptions{Name: "Link", SearchColumns: []string{"title", "href"}}),
		filters: map[string]string{"status": "status"},
		scope:   a.ownerScope,
		id:      func(l *models.Link) uint { return l.ID },
		repr:    func(l *models.Link) string { return l.Title },
		apply: func(ctx context.Context, actor *models.User, body []byte, l *models.Link, _ bool) error {
			var in linkInput
			if err := bind(ctx, body, &in); err != nil {
				return err
			}
			l.Title = strings.TrimSpace(in.Title)
			l.Href = in.Href
			l.Status = statusOr(in.Status, models.StatusNormal)
			l.Weight = statusOr(in.Weight, 1)
			a.policy.Stamp(l, actor)
			return nil
		},
	}
}

func (a *Admin) sideBarResource() Resource {
	return &resource[models.SideBar]{
		name:    "sidebar",
		store:   repository.NewTable[models.SideBar](a.db, repository.TableOptions{Name: "SideBar", SearchColumns: []string{"title"}}),
		filters: map[string]string{"status": "status", "display_type": "display_type"},
		scope:   a.ownerScope,
		id:      func(s *models.SideBar) uint { return s.ID },
		repr:    func(s *models.SideBar) string { return s.Title },
		apply: func(ctx context.Context, actor *models.User, body []byte, s *models.SideBar, _ bool) error {
			var in sideBarInput
			if err := bind(ctx, body, &in); err != nil {
				return err
			}
			s.Title = strings.TrimSpace(in.Title)
			s.DisplayType = in.DisplayType
			s.Content = in.Content
			s.Status = statusOr(in.Status, models.SideBarShow)
			a.policy.Stamp(s, actor)
			return nil
		},
		afterWrite: a.sideBarsChanged,
	}
}

func (a *Admin) commentResource() Resource {
	return &resource[models.Comment]{
		name:    "comment",
		access:  Access{SuperuserOnly: true, NoCreate: true},
		store:   repository.NewTable[models.Comment](a.db, repository.TableOptions{Name: "Comment", SearchColumns: []string{"nickname", "content", "target"}}),
		filters: map[string]string{"status": "status"},
		id:      func(c *models.Comment) uint { return c.ID },
		repr:    func(c *models.Comment) string { return truncate(c.Content, 50) },
		apply: func(ctx context.Context, _ *models.User, body []byte, c *models.Comment, _ bool) error {
			var in commentInput
			if err := bind(ctx, body, &in); err != nil {
				return err
			}
			c.Status = *in.Status
			return nil
		},
	}
}

func (a *Admin) logEntryResource() Resource {
	return &resource[models.AdminLogEntry]{
		name:    "logentry",
		access:  Access{ReadOnly: true},
		store:   repository.NewTable[models.AdminLogEntry](a.db, repository.TableOptions{Name: "LogEntry", SearchColumns: []string{"object_repr", "message"}}),
		filters: map[string]string{"object_id": "object_id", "user_id": "user_id"},
		scope: func(actor *models.User) []repository.Scope {
			if actor.IsSuperuser {
				return nil
			}
			return []repository.Scope{func(tx *gorm.DB) *gorm.DB {
				return tx.Where("user_id = ?", actor.ID)
			}}
		},
		id:   func(e *models.AdminLogEntry) uint { return e.ID },
		repr: func(e *models.AdminLogEntry) string { return fmt.Sprintf("%s %s %q", e.Action, e.Resource, e.ObjectRepr) },
	}
}

func dedupe(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok || id == 0 {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
