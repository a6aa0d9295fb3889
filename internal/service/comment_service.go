package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"lukeblog/internal/featureflags"
	"lukeblog/internal/middleware"
	"lukeblog/internal/models"
	"lukeblog/internal/observability"
	"lukeblog/internal/repository"
)

const (
	// EventCommentCreated is published to the admin live feed for every stored comment.
	EventCommentCreated = "comment.created"

	commentMinRunes = 5
	// LinksTarget is the comment target of the friend links page.
	LinksTarget = "/links/"
)

var postTargetPattern = regexp.MustCompile(`^/post/(\d+)\.html$`)

// EventPublisher delivers events to connected admin clients.
type EventPublisher interface {
	Publish(ctx context.Context, eventType string, payload any) error
}

// CommentInput is the comment form.
type CommentInput struct {
	Target   string `form:"target" json:"target" validate:"required,max=100"`
	Nickname string `form:"nickname" json:"nickname" validate:"required,max=50"`
	Email    string `form:"email" json:"email" validate:"required,max=50,email"`
	Website  string `form:"website" json:"website" validate:"required,max=100,url"`
	Content  string `form:"content" json:"content" validate:"required,max=500"`
}

func (in *CommentInput) trim() {
	in.Target = strings.TrimSpace(in.Target)
	in.Nickname = strings.TrimSpace(in.Nickname)
	in.Email = strings.TrimSpace(in.Email)
	in.Website = strings.TrimSpace(in.Website)
	in.Content = strings.TrimSpace(in.Content)
}

// CommentService validates and stores visitor comments.
type CommentService struct {
	comments  repository.CommentRepository
	posts     repository.PostRepository
	flags     *featureflags.Manager
	publisher EventPublisher
}

func NewCommentService(
	comments repository.CommentRepository,
	posts repository.PostRepository,
	flags *featureflags.Manager,
	publisher EventPublisher,
) *CommentService {
	return &CommentService{
		comments:  comments,
		posts:     posts,
		flags:     flags,
		publisher: publisher,
	}
}

// Create validates in and stores the comment. Invalid input returns
// models.FieldErrors and stores nothing.
func (s *CommentService) Create(ctx context.Context, in CommentInput) (*models.Comment, error) {
	in.trim()
	errs, err := s.check(ctx, in)
	if err != nil {
		observability.CommentsSubmitted.WithLabelValues("error").Inc()
		return nil, models.NewInternalError(err)
	}
	if len(errs) > 0 {
		observability.CommentsSubmitted.WithLabelValues("invalid").Inc()
		return nil, errs
	}

	comment := &models.Comment{
		Target:   in.Target,
		Nickname: in.Nickname,
		Email:    in.Email,
		Website:  in.Website,
		Content:  in.Content,
		Status:   models.StatusNormal,
	}
	if s.flags.Enabled(featureflags.CommentModeration, 0) {
		comment.Status = models.StatusDelete
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		observability.CommentsSubmitted.WithLabelValues("error").Inc()
		return nil, models.NewInternalError(err)
	}
	observability.CommentsSubmitted.WithLabelValues("stored").Inc()

	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, EventCommentCreated, comment); err != nil {
			middleware.Logger.WarnContext(ctx, "failed to publish comment event",
				slog.Uint64("comment_id", uint64(comment.ID)),
				slog.String("error", err.Error()),
			)
		}
	}
	return comment, nil
}

// check returns the input problems per field. A non-nil error means the
// input could not be checked at all.
func (s *CommentService) check(ctx context.Context, in CommentInput) (models.FieldErrors, error) {
	errs := ValidateStruct(ctx, in)
	if errs.Get("content") == "" && utf8.RuneCountInString(in.Content) < commentMinRunes {
		errs.Add("content", "content is too short")
	}
	if errs.Get("target") == "" {
		problem, err := s.checkTarget(ctx, in.Target)
		if err != nil {
			return nil, err
		}
		if problem != "" {
			errs.Add("target", problem)
		}
	}
	return errs, nil
}

// checkTarget accepts site-relative paths of pages that take comments. It
// returns the reason a target is refused, or an error when the lookup fails.
func (s *CommentService) checkTarget(ctx context.Context, target string) (string, error) {
	u, err := url.Parse(target)
	if err != nil || u.Scheme != "" || u.Host != "" || !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") {
		return "target must be a path on this site", nil
	}
	if target == LinksTarget {
		return "", nil
	}
	m := postTargetPattern.FindStringSubmatch(target)
	if m == nil {
		return "comments are not accepted on this page", nil
	}
	id, err := strconv.ParseUint(m[1], 10, 64)
	if err != nil || id == 0 {
		return "unknown post", nil
	}
	if _, err := s.posts.GetPublished(ctx, uint(id)); err != nil {
		if models.ErrorCode(err) == models.CodeNotFound {
			return "unknown post", nil
		}
		return "", err
	}
	return "", nil
}

// PostTarget is the comment target of a post's detail page.
func PostTarget(id uint) string {
	return fmt.Sprintf("/post/%d.html", id)
}
