// Package seed provides helpers to create demo data for the application
// database. These helpers are intended for development and testing only.
package seed

import (
	"fmt"
	"log"
	"math/rand"
	"time"

	"micropost/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Options configuration for the seeder.
type Options struct {
	NumUsers    int
	NumPosts    int
	ShouldClean bool
}

// Factory builds domain entities and persists them to the database.
type Factory struct {
	db   *gorm.DB
	rand *rand.Rand
}

// NewFactory creates a new Factory bound to the provided Gorm DB.
func NewFactory(db *gorm.DB) *Factory {
	gofakeit.Seed(time.Now().UnixNano())
	//nolint:gosec // Weak random number generator is fine for seeding
	return &Factory{db: db, rand: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// ClearAll removes seeded data. Order matters because the FK constraints
// are enforced on postgres.
func (f *Factory) ClearAll() error {
	log.Println("Clearing existing data...")
	for _, table := range []string{"favourites", "relationships", "posts", "users"} {
		if err := f.db.Exec("DELETE FROM " + table).Error; err != nil {
			return err
		}
	}
	return nil
}

// CreateUser constructs and persists a sample user. All seed users share
// the password "password123". Optional override functions may modify the
// generated user before saving.
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username: gofakeit.Username() + fmt.Sprintf("%d", gofakeit.Number(100, 999)),
		Email:    gofakeit.Email(),
		Password: string(hashed),
		IsActive: true,
		Avatar:   fmt.Sprintf("https://i.pravatar.cc/150?u=%s", gofakeit.UUID()),
	}

	for _, override := range overrides {
		override(user)
	}

	if err := f.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// CreatePost constructs and persists a sample post for the given user,
// with a created_at spread over the last 90 days so feeds look lived-in.
func (f *Factory) CreatePost(user *models.User, overrides ...func(*models.Post)) (*models.Post, error) {
	content := gofakeit.Sentence(f.rand.Intn(12) + 3)
	if len(content) > models.MaxPostContentLen {
		content = content[:models.MaxPostContentLen]
	}

	post := &models.Post{
		Content: content,
		UserID:  user.ID,
		CreatedAt: time.Now().
			Add(-time.Duration(f.rand.Intn(90*24)) * time.Hour).
			Add(-time.Duration(f.rand.Intn(60)) * time.Minute),
	}

	for _, override := range overrides {
		override(post)
	}

	if err := f.db.Create(post).Error; err != nil {
		return nil, err
	}
	return post, nil
}

// Seed populates the database with users, posts, a follow mesh and
// favourites.
func Seed(db *gorm.DB, opts Options) error {
	log.Printf("Seeding %d users and %d posts...", opts.NumUsers, opts.NumPosts)

	f := NewFactory(db)

	if opts.ShouldClean {
		if err := f.ClearAll(); err != nil {
			log.Printf("Warning: could not clear all existing data, continuing anyway: %v", err)
		}
	}

	users := make([]*models.User, 0, opts.NumUsers)
	for i := 0; i < opts.NumUsers; i++ {
		user, err := f.CreateUser()
		if err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}
		users = append(users, user)
	}
	log.Printf("created %d users", len(users))

	posts := make([]*models.Post, 0, opts.NumPosts)
	for i := 0; i < opts.NumPosts; i++ {
		author := users[f.rand.Intn(len(users))]
		post, err := f.CreatePost(author)
		if err != nil {
			return fmt.Errorf("failed to create post: %w", err)
		}
		posts = append(posts, post)
	}
	log.Printf("created %d posts", len(posts))

	follows, err := f.seedFollowMesh(users)
	if err != nil {
		return fmt.Errorf("failed to create follow mesh: %w", err)
	}
	log.Printf("created %d follow edges", follows)

	favourites, err := f.seedFavourites(users, posts)
	if err != nil {
		return fmt.Errorf("failed to create favourites: %w", err)
	}
	log.Printf("created %d favourites", favourites)

	log.Println("Seeding completed")
	return nil
}

// seedFollowMesh gives every user a handful of random follows. Collisions
// with existing edges are absorbed by the unique index.
func (f *Factory) seedFollowMesh(users []*models.User) (int, error) {
	if len(users) < 2 {
		return 0, nil
	}

	count := 0
	for _, u := range users {
		for i := 0; i < f.rand.Intn(5)+1; i++ {
			target := users[f.rand.Intn(len(users))]
			if target.ID == u.ID {
				continue
			}
			rel := models.Relationship{FollowerID: u.ID, FollowingID: target.ID}
			err := f.db.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "follower_id"}, {Name: "following_id"}},
				DoNothing: true,
			}).Create(&rel).Error
			if err != nil {
				return count, err
			}
			count++
		}
	}
	return count, nil
}

// seedFavourites bookmarks random posts for random users.
func (f *Factory) seedFavourites(users []*models.User, posts []*models.Post) (int, error) {
	if len(users) == 0 || len(posts) == 0 {
		return 0, nil
	}

	count := 0
	for _, u := range users {
		for i := 0; i < f.rand.Intn(4); i++ {
			post := posts[f.rand.Intn(len(posts))]
			fav := models.Favourite{UserID: u.ID, PostID: post.ID}
			err := f.db.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "user_id"}, {Name: "post_id"}},
				DoNothing: true,
			}).Create(&fav).Error
			if err != nil {
				return count, err
			}
			count++
		}
	}
	return count, nil
}
