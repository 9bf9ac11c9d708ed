package server

import (
	"github.com/gofiber/fiber/v2"
)

// FollowUser handles POST /api/users/:id/follow. Following someone
// already followed is a no-op and still returns 200.
func (s *Server) FollowUser(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	targetID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.relationshipService.Follow(c.Context(), userID, targetID); err != nil {
		return mapServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Following",
	})
}

// UnfollowUser handles DELETE /api/users/:id/follow. Unfollowing someone
// never followed is a no-op.
func (s *Server) UnfollowUser(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	targetID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.relationshipService.Unfollow(c.Context(), userID, targetID); err != nil {
		return mapServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Unfollowed",
	})
}

// GetFollowing handles GET /api/users/me/following
func (s *Server) GetFollowing(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	users, err := s.relationshipService.ListFollowing(c.Context(), userID)
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.JSON(users)
}
