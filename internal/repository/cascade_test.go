package repository

import (
	"context"
	"testing"

	"micropost/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupSQLiteDB(t *testing.T) *gorm.DB {
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

func mustCreateUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	user := &models.User{
		Username: username,
		Email:    username + "@example.com",
		Password: "hash",
		IsActive: true,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func countRows(t *testing.T, db *gorm.DB, model any, query string, args ...any) int64 {
	t.Helper()
	var count int64
	require.NoError(t, db.Model(model).Where(query, args...).Count(&count).Error)
	return count
}

// Deleting a user must take every row that references it: the user's
// posts, favourite rows on those posts (from other users), the user's own
// favourites, and follow edges in both directions.
func TestUserRepository_DeleteCascades(t *testing.T) {
	db := setupSQLiteDB(t)
	ctx := context.Background()

	userRepo := NewUserRepository(db)
	postRepo := NewPostRepository(db)
	relRepo := NewRelationshipRepository(db)

	alice := mustCreateUser(t, db, "alice")
	bob := mustCreateUser(t, db, "bob")

	alicePost := &models.Post{Content: "alice writes", UserID: alice.ID}
	require.NoError(t, postRepo.Create(ctx, alicePost))
	bobPost := &models.Post{Content: "bob writes", UserID: bob.ID}
	require.NoError(t, postRepo.Create(ctx, bobPost))

	// bob favourites alice's post, alice favourites bob's.
	require.NoError(t, postRepo.AddFavourite(ctx, bob.ID, alicePost.ID))
	require.NoError(t, postRepo.AddFavourite(ctx, alice.ID, bobPost.ID))

	// Edges in both directions.
	require.NoError(t, relRepo.Create(ctx, alice.ID, bob.ID))
	require.NoError(t, relRepo.Create(ctx, bob.ID, alice.ID))

	require.NoError(t, userRepo.Delete(ctx, alice.ID))

	assert.EqualValues(t, 0, countRows(t, db, &models.User{}, "id = ?", alice.ID))
	assert.EqualValues(t, 0, countRows(t, db, &models.Post{}, "user_id = ?", alice.ID))
	assert.EqualValues(t, 0, countRows(t, db, &models.Favourite{}, "user_id = ? OR post_id = ?", alice.ID, alicePost.ID))
	assert.EqualValues(t, 0, countRows(t, db, &models.Relationship{}, "follower_id = ? OR following_id = ?", alice.ID, alice.ID))

	// bob and his post survive untouched.
	assert.EqualValues(t, 1, countRows(t, db, &models.User{}, "id = ?", bob.ID))
	assert.EqualValues(t, 1, countRows(t, db, &models.Post{}, "id = ?", bobPost.ID))
}

func TestPostRepository_ListOrdering(t *testing.T) {
	db := setupSQLiteDB(t)
	ctx := context.Background()

	postRepo := NewPostRepository(db)
	alice := mustCreateUser(t, db, "alice")

	for _, content := range []string{"first", "second", "third"} {
		require.NoError(t, postRepo.Create(ctx, &models.Post{Content: content, UserID: alice.ID}))
	}

	posts, err := postRepo.List(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, posts, 3)
	assert.Equal(t, "third", posts[0].Content)
	assert.Equal(t, "second", posts[1].Content)
	assert.Equal(t, "first", posts[2].Content)

	// Pagination respects limit/offset.
	page, err := postRepo.List(ctx, 2, 1)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "second", page[0].Content)
	assert.Equal(t, "first", page[1].Content)
}

func TestPostRepository_AddFavouriteIdempotentUnderConstraint(t *testing.T) {
	db := setupSQLiteDB(t)
	ctx := context.Background()

	postRepo := NewPostRepository(db)
	alice := mustCreateUser(t, db, "alice")
	bob := mustCreateUser(t, db, "bob")

	post := &models.Post{Content: "hello", UserID: alice.ID}
	require.NoError(t, postRepo.Create(ctx, post))

	// The unique index swallows the duplicate insert, no error surfaces.
	require.NoError(t, postRepo.AddFavourite(ctx, bob.ID, post.ID))
	require.NoError(t, postRepo.AddFavourite(ctx, bob.ID, post.ID))
	assert.EqualValues(t, 1, countRows(t, db, &models.Favourite{}, "user_id = ? AND post_id = ?", bob.ID, post.ID))

	ids, err := postRepo.GetFavouritedPostIDs(ctx, bob.ID, []uint{post.ID})
	require.NoError(t, err)
	assert.Equal(t, []uint{post.ID}, ids)
}

func TestRelationshipRepository_CreateIdempotentUnderConstraint(t *testing.T) {
	db := setupSQLiteDB(t)
	ctx := context.Background()

	relRepo := NewRelationshipRepository(db)
	alice := mustCreateUser(t, db, "alice")
	bob := mustCreateUser(t, db, "bob")

	require.NoError(t, relRepo.Create(ctx, alice.ID, bob.ID))
	require.NoError(t, relRepo.Create(ctx, alice.ID, bob.ID))
	assert.EqualValues(t, 1, countRows(t, db, &models.Relationship{}, "follower_id = ? AND following_id = ?", alice.ID, bob.ID))

	// Delete of an absent edge is a no-op.
	require.NoError(t, relRepo.Delete(ctx, bob.ID, alice.ID))
	require.NoError(t, relRepo.Delete(ctx, alice.ID, bob.ID))
	assert.EqualValues(t, 0, countRows(t, db, &models.Relationship{}, "follower_id = ?", alice.ID))
}

func TestUserRepository_CreateDuplicateOnSQLite(t *testing.T) {
	db := setupSQLiteDB(t)
	ctx := context.Background()
	userRepo := NewUserRepository(db)

	require.NoError(t, userRepo.Create(ctx, &models.User{
		Username: "alice", Email: "alice@example.com", Password: "hash",
	}))

	err := userRepo.Create(ctx, &models.User{
		Username: "alice2", Email: "alice@example.com", Password: "hash",
	})
	require.Error(t, err)
	assert.Equal(t, models.CodeDuplicate, models.CodeOf(err))
}
