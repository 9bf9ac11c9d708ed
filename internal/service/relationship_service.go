package service

import (
	"context"

	"micropost/internal/models"
	"micropost/internal/repository"
)

// RelationshipService implements the follow graph operations.
type RelationshipService struct {
	relationshipRepo repository.RelationshipRepository
	userRepo         repository.UserRepository
}

// NewRelationshipService returns a new RelationshipService.
func NewRelationshipService(relationshipRepo repository.RelationshipRepository, userRepo repository.UserRepository) *RelationshipService {
	return &RelationshipService{relationshipRepo: relationshipRepo, userRepo: userRepo}
}

// Follow records followerID following targetID. The target must exist;
// a repeated follow is a benign no-op. Self-follows are permitted.
func (s *RelationshipService) Follow(ctx context.Context, followerID, targetID uint) error {
	if _, err := s.userRepo.GetByID(ctx, targetID); err != nil {
		return err
	}
	return s.relationshipRepo.Create(ctx, followerID, targetID)
}

// Unfollow removes the edge if present. The target must exist;
// unfollowing someone never followed is a no-op.
func (s *RelationshipService) Unfollow(ctx context.Context, followerID, targetID uint) error {
	if _, err := s.userRepo.GetByID(ctx, targetID); err != nil {
		return err
	}
	return s.relationshipRepo.Delete(ctx, followerID, targetID)
}

// ListFollowing returns the users followerID follows.
func (s *RelationshipService) ListFollowing(ctx context.Context, followerID uint) ([]models.User, error) {
	return s.relationshipRepo.ListFollowing(ctx, followerID)
}

// ListFollowingIDs returns just the ids of the users followerID follows.
func (s *RelationshipService) ListFollowingIDs(ctx context.Context, followerID uint) ([]uint, error) {
	return s.relationshipRepo.ListFollowingIDs(ctx, followerID)
}
