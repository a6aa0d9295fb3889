package admin

import (
	"strconv"
	"strings"

	"lukeblog/internal/middleware"
	"lukeblog/internal/models"
	"lukeblog/internal/repository"
	"lukeblog/internal/service"

	"github.com/gofiber/fiber/v2"
)

// Choice is one autocomplete suggestion.
type Choice struct {
	ID   uint   `json:"id"`
	Text string `json:"text"`
}

// Mount registers the admin routes for site under router. handlers run
// before every route of the site.
func (a *Admin) Mount(router fiber.Router, site string, handlers ...fiber.Handler) {
	g := router.Group("/"+site, handlers...)
	g.Get("/", a.Index(site))
	g.Get("/autocomplete/:kind", a.Autocomplete)
	g.Get("/:resource/", a.List)
	g.Post("/:resource/", a.Create(site))
	g.Get("/:resource/:id", a.Get)
	g.Put("/:resource/:id", a.Update(site))
	g.Delete("/:resource/:id", a.Delete(site))
}

func respondError(c *fiber.Ctx, err error) error {
	return models.RespondWithError(c, models.StatusFor(err), err)
}

// resolve looks up the :resource route parameter for the current user.
func (a *Admin) resolve(c *fiber.Ctx) (Resource, *models.User, error) {
	actor := middleware.CurrentUser(c)
	if actor == nil {
		return nil, nil, models.NewUnauthorizedError("Authentication required")
	}
	r, err := a.Resource(c.Params("resource"), actor)
	return r, actor, err
}

func parseID(c *fiber.Ctx) (uint, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil || id == 0 {
		// ids outside the url space are simply missing rows
		return 0, models.NewNotFoundError(c.Params("resource"), c.Params("id"))
	}
	return uint(id), nil
}

// Index handles GET /<site>/
func (a *Admin) Index(site string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor := middleware.CurrentUser(c)
		if actor == nil {
			return respondError(c, models.NewUnauthorizedError("Authentication required"))
		}
		return c.JSON(fiber.Map{
			"site":      site,
			"user":      actor,
			"resources": a.Visible(actor),
		})
	}
}

// List handles GET /<site>/<resource>/
func (a *Admin) List(c *fiber.Ctx) error {
	r, actor, err := a.resolve(c)
	if err != nil {
		return respondError(c, err)
	}

	size := c.QueryInt("size", a.pageSize)
	if size > maxPageSize {
		size = maxPageSize
	}
	p := service.NewPagination(c.QueryInt("page", 1), size)
	params := ListParams{
		Page:    p.Page,
		Size:    p.Size,
		Search:  c.Query("q"),
		Filters: map[string]uint{},
	}
	for _, name := range r.FilterParams() {
		raw := c.Query(name)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return respondError(c, models.FieldErrors{name: {"Select a valid choice."}})
		}
		params.Filters[name] = uint(v)
	}

	rows, total, err := r.List(c.UserContext(), actor, params)
	if err != nil {
		return respondError(c, err)
	}
	p.Total = total
	if err := p.Check(); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"count":     total,
		"page":      p.Page,
		"num_pages": p.NumPages(),
		"results":   rows,
	})
}

// Get handles GET /<site>/<resource>/:id
func (a *Admin) Get(c *fiber.Ctx) error {
	r, actor, err := a.resolve(c)
	if err != nil {
		return respondError(c, err)
	}
	id, err := parseID(c)
	if err != nil {
		return respondError(c, err)
	}
	rec, err := r.Get(c.UserContext(), actor, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(rec.Value)
}

// Create handles POST /<site>/<resource>/
func (a *Admin) Create(site string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		r, actor, err := a.resolve(c)
		if err != nil {
			return respondError(c, err)
		}
		rec, err := r.Create(c.UserContext(), actor, c.Body())
		if err != nil {
			return respondError(c, err)
		}
		a.record(c.UserContext(), site, r.Name(), models.ActionCreate, actor, rec)
		return c.Status(fiber.StatusCreated).JSON(rec.Value)
	}
}

// Update handles PUT /<site>/<resource>/:id
func (a *Admin) Update(site string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		r, actor, err := a.resolve(c)
		if err != nil {
			return respondError(c, err)
		}
		id, err := parseID(c)
		if err != nil {
			return respondError(c, err)
		}
		rec, err := r.Update(c.UserContext(), actor, id, c.Body())
		if err != nil {
			return respondError(c, err)
		}
		a.record(c.UserContext(), site, r.Name(), models.ActionUpdate, actor, rec)
		return c.JSON(rec.Value)
	}
}

// Delete handles DELETE /<site>/<resource>/:id
func (a *Admin) Delete(site string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		r, actor, err := a.resolve(c)
		if err != nil {
			return respondError(c, err)
		}
		id, err := parseID(c)
		if err != nil {
			return respondError(c, err)
		}
		rec, err := r.Delete(c.UserContext(), actor, id)
		if err != nil {
			return respondError(c, err)
		}
		a.record(c.UserContext(), site, r.Name(), models.ActionDelete, actor, rec)
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// Autocomplete handles GET /<site>/autocomplete/:kind?q=
func (a *Admin) Autocomplete(c *fiber.Ctx) error {
	actor := middleware.CurrentUser(c)
	if actor == nil {
		return respondError(c, models.NewUnauthorizedError("Authentication required"))
	}
	ctx := c.UserContext()
	q := strings.TrimSpace(c.Query("q"))
	query := repository.Query{Scopes: a.ownerScope(actor), Prefix: q, Limit: autocompleteSize}

	results := make([]Choice, 0, autocompleteSize)
	switch c.Params("kind") {
	case "category":
		rows, _, err := a.categories.List(ctx, query)
		if err != nil {
			return respondError(c, models.NewInternalError(err))
		}
		for _, row := range rows {
			results = append(results, Choice{ID: row.ID, Text: row.Name})
		}
	case "tag":
		rows, _, err := a.tags.List(ctx, query)
		if err != nil {
			return respondError(c, models.NewInternalError(err))
		}
		for _, row := range rows {
			results = append(results, Choice{ID: row.ID, Text: row.Name})
		}
	default:
		return respondError(c, models.NewNotFoundError("Autocomplete", c.Params("kind")))
	}
	return c.JSON(fiber.Map{"results": results})
}
