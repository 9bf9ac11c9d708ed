package repository

import (
	"context"

	"micropost/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RelationshipRepository defines persistence operations for follow edges.
type RelationshipRepository interface {
	Create(ctx context.Context, followerID, followingID uint) error
	Delete(ctx context.Context, followerID, followingID uint) error
	ListFollowing(ctx context.Context, followerID uint) ([]models.User, error)
	ListFollowingIDs(ctx context.Context, followerID uint) ([]uint, error)
}

type relationshipRepository struct {
	db *gorm.DB
}

// NewRelationshipRepository returns a new RelationshipRepository implementation.
func NewRelationshipRepository(db *gorm.DB) RelationshipRepository {
	return &relationshipRepository{db: db}
}

// Create inserts a follow edge. Duplicate follows hit the unique index
// and are swallowed by ON CONFLICT DO NOTHING, so repeating a follow is
// a benign no-op rather than a second row or an error. The constraint,
// not a check-then-insert, is what makes concurrent duplicates safe.
func (r *relationshipRepository) Create(ctx context.Context, followerID, followingID uint) error {
	rel := models.Relationship{FollowerID: followerID, FollowingID: followingID}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "follower_id"}, {Name: "following_id"}},
			DoNothing: true,
		}).
		Create(&rel).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// Delete removes the matching edge; deleting an absent edge is a no-op.
func (r *relationshipRepository) Delete(ctx context.Context, followerID, followingID uint) error {
	err := r.db.WithContext(ctx).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Delete(&models.Relationship{}).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *relationshipRepository) ListFollowing(ctx context.Context, followerID uint) ([]models.User, error) {
	var users []models.User
	err := r.db.WithContext(ctx).
		Joins("JOIN relationships ON relationships.following_id = users.id").
		Where("relationships.follower_id = ?", followerID).
		Find(&users).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}

func (r *relationshipRepository) ListFollowingIDs(ctx context.Context, followerID uint) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Model(&models.Relationship{}).
		Where("follower_id = ?", followerID).
		Pluck("following_id", &ids).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return ids, nil
}
