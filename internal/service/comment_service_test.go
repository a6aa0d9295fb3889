package service

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"lukeblog/internal/featureflags"
	"lukeblog/internal/models"
	"lukeblog/internal/repository"
	"lukeblog/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type commentFixture struct {
	db        *gorm.DB
	svc       *CommentService
	publisher *recordingPublisher
	post      *models.Post
	draft     *models.Post
}

func newCommentFixture(t *testing.T, flags string) *commentFixture {
	t.Helper()
	db := testutil.NewTestDB(t)
	fx := testutil.NewFixtures(t, db)
	owner := fx.User("alice", false)
	cat := fx.Category(owner, "go", false)
	f := &commentFixture{
		db:        db,
		publisher: &recordingPublisher{},
		post:      fx.Post(owner, cat, "live", models.StatusNormal),
		draft:     fx.Post(owner, cat, "draft", models.StatusDraft),
	}
	f.svc = NewCommentService(
		repository.NewCommentRepository(db),
		repository.NewPostRepository(db),
		featureflags.NewManager(flags),
		f.publisher,
	)
	return f
}

func (f *commentFixture) count(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(&models.Comment{}).Count(&n).Error)
	return n
}

func validComment(target string) CommentInput {
	return CommentInput{
		Target:   target,
		Nickname: "reader",
		Email:    "reader@example.com",
		Website:  "https://reader.example.com",
		Content:  "Great write-up, thanks!",
	}
}

func TestCommentService_Create(t *testing.T) {
	f := newCommentFixture(t, "")
	ctx := context.Background()

	in := validComment(PostTarget(f.post.ID))
	in.Content = "  padded content  "
	comment, err := f.svc.Create(ctx, in)
	require.NoError(t, err)
	assert.NotZero(t, comment.ID)
	assert.Equal(t, models.StatusNormal, comment.Status)
	assert.Equal(t, "padded content", comment.Content)
	assert.Equal(t, []string{EventCommentCreated}, f.publisher.events)

	_, err = f.svc.Create(ctx, validComment(LinksTarget))
	require.NoError(t, err)
	assert.Equal(t, int64(2), f.count(t))
}

func TestCommentService_ShortContentRejected(t *testing.T) {
	f := newCommentFixture(t, "")

	in := validComment(PostTarget(f.post.ID))
	in.Content = "ok"
	_, err := f.svc.Create(context.Background(), in)

	var fieldErrs models.FieldErrors
	require.True(t, errors.As(err, &fieldErrs), "expected field errors, got %v", err)
	assert.Equal(t, "content is too short", fieldErrs.Get("content"))
	assert.Len(t, fieldErrs, 1)
	assert.Equal(t, int64(0), f.count(t))
	assert.Empty(t, f.publisher.events)
}

func TestCommentService_FieldValidation(t *testing.T) {
	f := newCommentFixture(t, "")

	tests := []struct {
		name   string
		mutate func(*CommentInput)
		field  string
	}{
		{"missing nickname", func(in *CommentInput) { in.Nickname = " " }, "nickname"},
		{"bad email", func(in *CommentInput) { in.Email = "not-an-email" }, "email"},
		{"bad website", func(in *CommentInput) { in.Website = "reader" }, "website"},
		{"content too long", func(in *CommentInput) { in.Content = strings.Repeat("a", 501) }, "content"},
		{"five multibyte runes are enough", func(in *CommentInput) { in.Content = "写得很好啊" }, ""},
		{"absolute url target", func(in *CommentInput) { in.Target = "https://evil.example/post/1.html" }, "target"},
		{"protocol relative target", func(in *CommentInput) { in.Target = "//evil.example/links/" }, "target"},
		{"unknown page", func(in *CommentInput) { in.Target = "/about/" }, "target"},
		{"missing post", func(in *CommentInput) { in.Target = "/post/999.html" }, "target"},
		{"draft post", func(in *CommentInput) { in.Target = PostTarget(f.draft.ID) }, "target"},
		{"empty target", func(in *CommentInput) { in.Target = "" }, "target"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validComment(PostTarget(f.post.ID))
			tt.mutate(&in)
			_, err := f.svc.Create(context.Background(), in)
			if tt.field == "" {
				require.NoError(t, err)
				return
			}
			var fieldErrs models.FieldErrors
			require.True(t, errors.As(err, &fieldErrs), "expected field errors, got %v", err)
			assert.NotEmpty(t, fieldErrs.Get(tt.field), "errors: %v", fieldErrs)
		})
	}
}

func TestCommentService_Moderation(t *testing.T) {
	f := newCommentFixture(t, "comment_moderation=on")

	comment, err := f.svc.Create(context.Background(), validComment(LinksTarget))
	require.NoError(t, err)
	assert.Equal(t, models.StatusDelete, comment.Status)

	visible, err := repository.NewCommentRepository(f.db).ListByTarget(context.Background(), LinksTarget)
	require.NoError(t, err)
	assert.Empty(t, visible)
}

func TestCommentService_PublishFailureKeepsComment(t *testing.T) {
	f := newCommentFixture(t, "")
	f.publisher.err = errors.New("redis down")

	_, err := f.svc.Create(context.Background(), validComment(LinksTarget))
	require.NoError(t, err)
	assert.Equal(t, int64(1), f.count(t))
}

func TestCommentService_TargetLookupFailureIsInternal(t *testing.T) {
	f := newCommentFixture(t, "")
	posts := &postRepoStub{
		PostRepository: repository.NewPostRepository(f.db),
		publishedFn: func(context.Context, uint) (*models.Post, error) {
			return nil, errors.New("pq: relation \"posts\" does not exist")
		},
	}
	svc := NewCommentService(repository.NewCommentRepository(f.db), posts, featureflags.NewManager(""), f.publisher)

	_, err := svc.Create(context.Background(), validComment(PostTarget(f.post.ID)))
	require.Error(t, err)

	var fieldErrs models.FieldErrors
	assert.False(t, errors.As(err, &fieldErrs))
	assert.Equal(t, models.CodeInternal, models.ErrorCode(err))
	assert.Equal(t, http.StatusInternalServerError, models.StatusFor(err))
	assert.Equal(t, int64(0), f.count(t))
	assert.Empty(t, f.publisher.events)
}
