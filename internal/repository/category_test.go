package repository

import (
	"context"
	"errors"
	"testing"

	"lukeblog/internal/models"
	"lukeblog/internal/testutil"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategoryRepository_DeleteCascade(t *testing.T) {
	db := testutil.NewTestDB(t)
	fx := testutil.NewFixtures(t, db)
	owner := fx.User("alice", false)
	doomed := fx.Category(owner, "doomed", false)
	kept := fx.Category(owner, "kept", false)
	tag := fx.Tag(owner, "t")
	fx.Post(owner, doomed, "a", models.StatusNormal, tag)
	fx.Post(owner, doomed, "b", models.StatusDraft)
	survivor := fx.Post(owner, kept, "c", models.StatusNormal, tag)
	ctx := context.Background()

	require.NoError(t, NewCategoryRepository(db).DeleteCascade(ctx, doomed))

	posts, total, err := NewPostRepository(db).List(ctx, PostFilter{AnyStatus: true}, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, survivor.ID, posts[0].ID)

	var links int64
	require.NoError(t, db.Table("post_tags").Count(&links).Error)
	assert.Equal(t, int64(1), links)

	_, err = NewCategoryRepository(db).GetByID(ctx, doomed.ID)
	assert.Equal(t, models.CodeNotFound, models.ErrorCode(err))
}

func TestCategoryRepository_DeleteCascade_RollsBack(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewCategoryRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM post_tags`).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(`DELETE FROM "posts"`).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(`DELETE FROM "categories"`).WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	err := repo.DeleteCascade(context.Background(), &models.Category{ID: 3})
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTagRepository_Delete(t *testing.T) {
	db := testutil.NewTestDB(t)
	fx := testutil.NewFixtures(t, db)
	owner := fx.User("alice", false)
	cat := fx.Category(owner, "go", false)
	doomed := fx.Tag(owner, "doomed")
	kept := fx.Tag(owner, "kept")
	post := fx.Post(owner, cat, "a", models.StatusNormal, doomed, kept)
	ctx := context.Background()
	repo := NewTagRepository(db)

	require.NoError(t, repo.Delete(ctx, doomed))

	_, err := repo.GetByID(ctx, doomed.ID)
	assert.Equal(t, models.CodeNotFound, models.ErrorCode(err))

	got, err := NewPostRepository(db).GetByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"kept"}, got.TagNames())
}
