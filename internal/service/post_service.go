package service

import (
	"context"
	"strings"

	"micropost/internal/models"
	"micropost/internal/repository"
)

// PostService implements post publishing, the feed and favourites.
type PostService struct {
	postRepo repository.PostRepository
	userRepo repository.UserRepository
}

// CreatePostInput carries the fields for publishing a post.
type CreatePostInput struct {
	UserID  uint
	Content string
}

// UpdatePostInput carries the fields for editing a post.
type UpdatePostInput struct {
	UserID  uint
	PostID  uint
	Content string
}

// NewPostService returns a new PostService.
func NewPostService(postRepo repository.PostRepository, userRepo repository.UserRepository) *PostService {
	return &PostService{postRepo: postRepo, userRepo: userRepo}
}

func validateContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return models.NewValidationError("Content is required")
	}
	if len(content) > models.MaxPostContentLen {
		return models.NewValidationError("Content must be at most 255 characters")
	}
	return nil
}

// CreatePost validates and persists a new post for the given author.
func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	if err := validateContent(in.Content); err != nil {
		return nil, err
	}

	post := &models.Post{
		Content: in.Content,
		UserID:  in.UserID,
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, err
	}

	return s.postRepo.GetByID(ctx, post.ID)
}

// GetPost returns a single post with its Favourited flag set for the viewer.
func (s *PostService) GetPost(ctx context.Context, postID, viewerID uint) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if err := s.markFavourited(ctx, viewerID, []*models.Post{post}); err != nil {
		return nil, err
	}
	return post, nil
}

// ListPosts returns the global feed, newest first, with each post's
// Favourited flag set for the viewer.
func (s *PostService) ListPosts(ctx context.Context, viewerID uint, limit, offset int) ([]*models.Post, error) {
	posts, err := s.postRepo.List(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	if err := s.markFavourited(ctx, viewerID, posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// GetUserPosts returns one author's posts, newest first. The author must exist.
func (s *PostService) GetUserPosts(ctx context.Context, authorID, viewerID uint, limit, offset int) ([]*models.Post, error) {
	if _, err := s.userRepo.GetByID(ctx, authorID); err != nil {
		return nil, err
	}
	posts, err := s.postRepo.GetByUserID(ctx, authorID, limit, offset)
	if err != nil {
		return nil, err
	}
	if err := s.markFavourited(ctx, viewerID, posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// CountUserPosts returns how many posts the user has published.
func (s *PostService) CountUserPosts(ctx context.Context, userID uint) (int64, error) {
	return s.postRepo.CountByUserID(ctx, userID)
}

// UpdatePost edits a post's content. Only the author may edit.
func (s *PostService) UpdatePost(ctx context.Context, in UpdatePostInput) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, in.PostID)
	if err != nil {
		return nil, err
	}

	if post.UserID != in.UserID {
		return nil, models.NewUnauthorizedError("You can only edit your own posts")
	}

	if err := validateContent(in.Content); err != nil {
		return nil, err
	}

	post.Content = in.Content
	if err := s.postRepo.Update(ctx, post); err != nil {
		return nil, err
	}

	return post, nil
}

// DeletePost removes a post. The author may always delete their own
// posts; staff users may delete anyone's.
func (s *PostService) DeletePost(ctx context.Context, userID, postID uint) error {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return err
	}

	if post.UserID != userID {
		user, err := s.userRepo.GetByID(ctx, userID)
		if err != nil {
			return err
		}
		if !user.IsStaff {
			return models.NewUnauthorizedError("You can only delete your own posts")
		}
	}

	return s.postRepo.Delete(ctx, postID)
}

// AddFavourite bookmarks a post for the user. The post must exist;
// favouriting twice is a no-op.
func (s *PostService) AddFavourite(ctx context.Context, userID, postID uint) error {
	if _, err := s.postRepo.GetByID(ctx, postID); err != nil {
		return err
	}
	return s.postRepo.AddFavourite(ctx, userID, postID)
}

// RemoveFavourite drops the bookmark. The post must exist; removing an
// absent favourite is a no-op.
func (s *PostService) RemoveFavourite(ctx context.Context, userID, postID uint) error {
	if _, err := s.postRepo.GetByID(ctx, postID); err != nil {
		return err
	}
	return s.postRepo.RemoveFavourite(ctx, userID, postID)
}

// ListFavourites returns the user's bookmarked posts, most recently
// favourited first.
func (s *PostService) ListFavourites(ctx context.Context, userID uint) ([]*models.Post, error) {
	posts, err := s.postRepo.ListFavourites(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, p := range posts {
		p.Favourited = true
	}
	return posts, nil
}

// markFavourited sets each post's Favourited flag for the viewer with a
// single lookup instead of one query per post.
func (s *PostService) markFavourited(ctx context.Context, viewerID uint, posts []*models.Post) error {
	if viewerID == 0 || len(posts) == 0 {
		return nil
	}

	ids := make([]uint, 0, len(posts))
	for _, p := range posts {
		ids = append(ids, p.ID)
	}

	favIDs, err := s.postRepo.GetFavouritedPostIDs(ctx, viewerID, ids)
	if err != nil {
		return err
	}

	favSet := make(map[uint]struct{}, len(favIDs))
	for _, id := range favIDs {
		favSet[id] = struct{}{}
	}
	for _, p := range posts {
		_, p.Favourited = favSet[p.ID]
	}
	return nil
}
