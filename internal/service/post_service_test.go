package service

import (
	"context"
	"strings"
	"testing"

	"micropost/internal/models"
	"micropost/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupServiceTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Post{},
		&models.Relationship{},
		&models.Favourite{},
	); err != nil {
		t.Fatalf("migrate sqlite: %v", err)
	}

	return db
}

func newPostServiceForTest(t *testing.T) (*PostService, *gorm.DB) {
	t.Helper()
	db := setupServiceTestDB(t)
	return NewPostService(repository.NewPostRepository(db), repository.NewUserRepository(db)), db
}

func createTestUser(t *testing.T, db *gorm.DB, username string, staff bool) *models.User {
	t.Helper()
	user := &models.User{
		Username: username,
		Email:    username + "@example.com",
		Password: "hash",
		IsActive: true,
		IsStaff:  staff,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func TestPostService_CreatePost(t *testing.T) {
	svc, db := newPostServiceForTest(t)
	ctx := context.Background()
	alice := createTestUser(t, db, "alice", false)

	t.Run("Success", func(t *testing.T) {
		post, err := svc.CreatePost(ctx, CreatePostInput{UserID: alice.ID, Content: "hello"})
		require.NoError(t, err)
		assert.Equal(t, "hello", post.Content)
		assert.Equal(t, alice.ID, post.UserID)
		assert.Equal(t, "alice", post.User.Username)
	})

	t.Run("Empty content rejected", func(t *testing.T) {
		_, err := svc.CreatePost(ctx, CreatePostInput{UserID: alice.ID, Content: "   "})
		require.Error(t, err)
		assert.Equal(t, models.CodeValidation, models.CodeOf(err))
	})

	t.Run("Content over limit rejected", func(t *testing.T) {
		_, err := svc.CreatePost(ctx, CreatePostInput{
			UserID:  alice.ID,
			Content: strings.Repeat("x", models.MaxPostContentLen+1),
		})
		require.Error(t, err)
		assert.Equal(t, models.CodeValidation, models.CodeOf(err))
	})
}

func TestPostService_UpdatePost_OwnerOnly(t *testing.T) {
	svc, db := newPostServiceForTest(t)
	ctx := context.Background()
	alice := createTestUser(t, db, "alice", false)
	bob := createTestUser(t, db, "bob", false)

	post, err := svc.CreatePost(ctx, CreatePostInput{UserID: alice.ID, Content: "original"})
	require.NoError(t, err)

	_, err = svc.UpdatePost(ctx, UpdatePostInput{UserID: bob.ID, PostID: post.ID, Content: "hijacked"})
	require.Error(t, err)
	assert.Equal(t, models.CodeUnauthorized, models.CodeOf(err))

	updated, err := svc.UpdatePost(ctx, UpdatePostInput{UserID: alice.ID, PostID: post.ID, Content: "edited"})
	require.NoError(t, err)
	assert.Equal(t, "edited", updated.Content)
}

func TestPostService_DeletePost(t *testing.T) {
	svc, db := newPostServiceForTest(t)
	ctx := context.Background()
	alice := createTestUser(t, db, "alice", false)
	bob := createTestUser(t, db, "bob", false)
	mod := createTestUser(t, db, "mod", true)

	t.Run("Stranger cannot delete", func(t *testing.T) {
		post, err := svc.CreatePost(ctx, CreatePostInput{UserID: alice.ID, Content: "keep me"})
		require.NoError(t, err)

		err = svc.DeletePost(ctx, bob.ID, post.ID)
		require.Error(t, err)
		assert.Equal(t, models.CodeUnauthorized, models.CodeOf(err))
	})

	t.Run("Owner deletes, favourites go with the post", func(t *testing.T) {
		post, err := svc.CreatePost(ctx, CreatePostInput{UserID: alice.ID, Content: "short lived"})
		require.NoError(t, err)
		require.NoError(t, svc.AddFavourite(ctx, bob.ID, post.ID))

		require.NoError(t, svc.DeletePost(ctx, alice.ID, post.ID))

		favs, err := svc.ListFavourites(ctx, bob.ID)
		require.NoError(t, err)
		assert.Empty(t, favs)

		_, err = svc.GetPost(ctx, post.ID, bob.ID)
		assert.Equal(t, models.CodeNotFound, models.CodeOf(err))
	})

	t.Run("Staff deletes anyone's post", func(t *testing.T) {
		post, err := svc.CreatePost(ctx, CreatePostInput{UserID: alice.ID, Content: "moderated"})
		require.NoError(t, err)

		require.NoError(t, svc.DeletePost(ctx, mod.ID, post.ID))
	})
}

func TestPostService_FavouriteIdempotency(t *testing.T) {
	svc, db := newPostServiceForTest(t)
	ctx := context.Background()
	alice := createTestUser(t, db, "alice", false)
	bob := createTestUser(t, db, "bob", false)

	post, err := svc.CreatePost(ctx, CreatePostInput{UserID: alice.ID, Content: "hello"})
	require.NoError(t, err)

	// Favouriting twice leaves exactly one favourite.
	require.NoError(t, svc.AddFavourite(ctx, bob.ID, post.ID))
	require.NoError(t, svc.AddFavourite(ctx, bob.ID, post.ID))

	favs, err := svc.ListFavourites(ctx, bob.ID)
	require.NoError(t, err)
	require.Len(t, favs, 1)
	assert.Equal(t, post.ID, favs[0].ID)
	assert.True(t, favs[0].Favourited)

	// Removing twice is a no-op the second time.
	require.NoError(t, svc.RemoveFavourite(ctx, bob.ID, post.ID))
	require.NoError(t, svc.RemoveFavourite(ctx, bob.ID, post.ID))

	favs, err = svc.ListFavourites(ctx, bob.ID)
	require.NoError(t, err)
	assert.Empty(t, favs)
}

func TestPostService_FavouriteUnknownPost(t *testing.T) {
	svc, db := newPostServiceForTest(t)
	ctx := context.Background()
	bob := createTestUser(t, db, "bob", false)

	err := svc.AddFavourite(ctx, bob.ID, 999)
	require.Error(t, err)
	assert.Equal(t, models.CodeNotFound, models.CodeOf(err))
}

func TestPostService_ListPostsMarksFavourited(t *testing.T) {
	svc, db := newPostServiceForTest(t)
	ctx := context.Background()
	alice := createTestUser(t, db, "alice", false)
	bob := createTestUser(t, db, "bob", false)

	first, err := svc.CreatePost(ctx, CreatePostInput{UserID: alice.ID, Content: "first"})
	require.NoError(t, err)
	_, err = svc.CreatePost(ctx, CreatePostInput{UserID: alice.ID, Content: "second"})
	require.NoError(t, err)

	require.NoError(t, svc.AddFavourite(ctx, bob.ID, first.ID))

	posts, err := svc.ListPosts(ctx, bob.ID, 20, 0)
	require.NoError(t, err)
	require.Len(t, posts, 2)

	// Newest first, favourited flag set per viewer.
	assert.Equal(t, "second", posts[0].Content)
	assert.False(t, posts[0].Favourited)
	assert.Equal(t, "first", posts[1].Content)
	assert.True(t, posts[1].Favourited)

	// A different viewer sees no favourites.
	posts, err = svc.ListPosts(ctx, alice.ID, 20, 0)
	require.NoError(t, err)
	assert.False(t, posts[0].Favourited)
	assert.False(t, posts[1].Favourited)
}

func TestRelationshipService_FollowSemantics(t *testing.T) {
	db := setupServiceTestDB(t)
	ctx := context.Background()
	svc := NewRelationshipService(repository.NewRelationshipRepository(db), repository.NewUserRepository(db))
	alice := createTestUser(t, db, "alice", false)
	bob := createTestUser(t, db, "bob", false)

	t.Run("Follow unknown target is 404", func(t *testing.T) {
		err := svc.Follow(ctx, alice.ID, 999)
		require.Error(t, err)
		assert.Equal(t, models.CodeNotFound, models.CodeOf(err))
	})

	t.Run("Duplicate follow leaves one edge", func(t *testing.T) {
		require.NoError(t, svc.Follow(ctx, alice.ID, bob.ID))
		require.NoError(t, svc.Follow(ctx, alice.ID, bob.ID))

		var count int64
		require.NoError(t, db.Model(&models.Relationship{}).
			Where("follower_id = ? AND following_id = ?", alice.ID, bob.ID).
			Count(&count).Error)
		assert.Equal(t, int64(1), count)

		following, err := svc.ListFollowing(ctx, alice.ID)
		require.NoError(t, err)
		require.Len(t, following, 1)
		assert.Equal(t, "bob", following[0].Username)
	})

	t.Run("Unfollow absent edge is a no-op", func(t *testing.T) {
		require.NoError(t, svc.Unfollow(ctx, bob.ID, alice.ID))
	})

	t.Run("Unfollow removes the edge", func(t *testing.T) {
		require.NoError(t, svc.Unfollow(ctx, alice.ID, bob.ID))
		following, err := svc.ListFollowing(ctx, alice.ID)
		require.NoError(t, err)
		assert.Empty(t, following)
	})

	t.Run("Self-follow is allowed", func(t *testing.T) {
		require.NoError(t, svc.Follow(ctx, alice.ID, alice.ID))
		ids, err := svc.ListFollowingIDs(ctx, alice.ID)
		require.NoError(t, err)
		assert.Equal(t, []uint{alice.ID}, ids)
	})
}
