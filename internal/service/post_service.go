package service

import (
	"context"

	"lukeblog/internal/cache"
	"lukeblog/internal/models"
	"lukeblog/internal/repository"
)

const (
	// HotPostsLimit is the size of the cached hot posts list.
	HotPostsLimit = 10
	// SideBarPostsLimit bounds the latest-posts and recent-comments sidebars.
	SideBarPostsLimit = 5
	// FeedLimit is the number of posts in the RSS feed.
	FeedLimit = 5
)

// PostList is one page of posts.
type PostList struct {
	Posts []*models.Post
	Pagination
}

// SideBarBlock is a sidebar row with the data its display type needs.
type SideBarBlock struct {
	*models.SideBar
	Posts    []*models.Post
	Comments []*models.Comment
}

// PostService serves the public listings, detail pages and sidebars.
type PostService struct {
	posts      repository.PostRepository
	categories repository.CategoryRepository
	tags       repository.TagRepository
	users      repository.UserRepository
	comments   repository.CommentRepository
	links      repository.LinkRepository
	sidebars   repository.SideBarRepository
	store      cache.Store
}

// PostServiceDeps bundles the repositories PostService reads from.
type PostServiceDeps struct {
	Posts      repository.PostRepository
	Categories repository.CategoryRepository
	Tags       repository.TagRepository
	Users      repository.UserRepository
	Comments   repository.CommentRepository
	Links      repository.LinkRepository
	SideBars   repository.SideBarRepository
	Store      cache.Store
}

func NewPostService(deps PostServiceDeps) *PostService {
	return &PostService{
		posts:      deps.Posts,
		categories: deps.Categories,
		tags:       deps.Tags,
		users:      deps.Users,
		comments:   deps.Comments,
		links:      deps.Links,
		sidebars:   deps.SideBars,
		store:      deps.Store,
	}
}

// List returns a page of posts matching filter. Pages past the end are not found.
func (s *PostService) List(ctx context.Context, filter repository.PostFilter, page, size int) (*PostList, error) {
	p := NewPagination(page, size)
	posts, total, err := s.posts.List(ctx, filter, p.Size, p.Offset())
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	p.Total = total
	if err := p.Check(); err != nil {
		return nil, err
	}
	return &PostList{Posts: posts, Pagination: p}, nil
}

// Detail returns a published post and the comments on its page.
func (s *PostService) Detail(ctx context.Context, id uint, target string) (*models.Post, []*models.Comment, error) {
	post, err := s.posts.GetPublished(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	comments, err := s.comments.ListByTarget(ctx, target)
	if err != nil {
		return nil, nil, models.NewInternalError(err)
	}
	return post, comments, nil
}

// HotPosts returns the most viewed posts. The list is cached for ten
// minutes and not invalidated on writes.
func (s *PostService) HotPosts(ctx context.Context) ([]*models.Post, error) {
	var posts []*models.Post
	err := cache.Aside(ctx, s.store, cache.HotPostsKey, &posts, cache.HotPostsTTL, func() error {
		var err error
		posts, err = s.posts.Hot(ctx, HotPostsLimit)
		return err
	})
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

func (s *PostService) Category(ctx context.Context, id uint) (*models.Category, error) {
	return s.categories.GetByID(ctx, id)
}

func (s *PostService) Tag(ctx context.Context, id uint) (*models.Tag, error) {
	return s.tags.GetByID(ctx, id)
}

func (s *PostService) Author(ctx context.Context, id uint) (*models.User, error) {
	return s.users.GetByID(ctx, id)
}

func (s *PostService) Navs(ctx context.Context) (models.Navs, error) {
	navs, err := s.categories.Navs(ctx)
	if err != nil {
		return models.Navs{}, models.NewInternalError(err)
	}
	return navs, nil
}

func (s *PostService) Links(ctx context.Context) ([]*models.Link, error) {
	links, err := s.links.ListNormal(ctx)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return links, nil
}

// SideBars loads the visible sidebars and fills each with its data.
func (s *PostService) SideBars(ctx context.Context) ([]SideBarBlock, error) {
	var rows []*models.SideBar
	err := cache.Aside(ctx, s.store, cache.SideBarKey, &rows, cache.SideBarTTL, func() error {
		var err error
		rows, err = s.sidebars.ListVisible(ctx)
		return err
	})
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	blocks := make([]SideBarBlock, 0, len(rows))
	for _, row := range rows {
		block := SideBarBlock{SideBar: row}
		switch row.DisplayType {
		case models.SideBarLatest:
			block.Posts, err = s.posts.Latest(ctx, SideBarPostsLimit)
		case models.SideBarHot:
			block.Posts, err = s.HotPosts(ctx)
		case models.SideBarComments:
			block.Comments, err = s.comments.Recent(ctx, SideBarPostsLimit)
		}
		if err != nil {
			return nil, models.NewInternalError(err)
		}
		blocks = append(blocks, block)
	}
	return blocks, nil
}

// InvalidateSideBars drops the cached sidebar rows after an admin edit.
func (s *PostService) InvalidateSideBars(ctx context.Context) error {
	if s.store == nil {
		return nil
	}
	return s.store.Delete(ctx, cache.SideBarKey)
}
