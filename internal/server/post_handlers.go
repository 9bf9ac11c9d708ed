package server

import (
	"micropost/internal/models"
	"micropost/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreatePost handles POST /api/posts
func (s *Server) CreatePost(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	var req struct {
		Content string `json:"content"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	post, err := s.postService.CreatePost(c.Context(), service.CreatePostInput{
		UserID:  userID,
		Content: req.Content,
	})
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(post)
}

// GetPosts handles GET /api/posts. The feed is public; a valid bearer
// token additionally marks which posts the caller favourited.
func (s *Server) GetPosts(c *fiber.Ctx) error {
	page := parsePagination(c, 20)
	viewerID, _ := s.optionalUserID(c)

	posts, err := s.postService.ListPosts(c.Context(), viewerID, page.Limit, page.Offset)
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.JSON(posts)
}

// GetMyPosts handles GET /api/posts/mine. The total count rides along so
// a client can show "N posts" without fetching every page.
func (s *Server) GetMyPosts(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	page := parsePagination(c, 20)

	posts, err := s.postService.GetUserPosts(c.Context(), userID, userID, page.Limit, page.Offset)
	if err != nil {
		return mapServiceError(c, err)
	}

	count, err := s.postService.CountUserPosts(c.Context(), userID)
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"posts": posts,
		"count": count,
	})
}

// GetUserPosts handles GET /api/users/:id/posts
func (s *Server) GetUserPosts(c *fiber.Ctx) error {
	viewerID := c.Locals("userID").(uint)
	authorID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	page := parsePagination(c, 20)

	posts, err := s.postService.GetUserPosts(c.Context(), authorID, viewerID, page.Limit, page.Offset)
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.JSON(posts)
}

// UpdatePost handles PUT /api/posts/:id
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Content string `json:"content"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	post, err := s.postService.UpdatePost(c.Context(), service.UpdatePostInput{
		UserID:  userID,
		PostID:  postID,
		Content: req.Content,
	})
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.JSON(post)
}

// DeletePost handles DELETE /api/posts/:id
func (s *Server) DeletePost(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.postService.DeletePost(c.Context(), userID, postID); err != nil {
		return mapServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// FavouritePost handles POST /api/posts/:id/favourite. Favouriting the
// same post twice is a no-op and still returns 200.
func (s *Server) FavouritePost(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.postService.AddFavourite(c.Context(), userID, postID); err != nil {
		return mapServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Favourited",
	})
}

// UnfavouritePost handles DELETE /api/posts/:id/favourite
func (s *Server) UnfavouritePost(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.postService.RemoveFavourite(c.Context(), userID, postID); err != nil {
		return mapServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Unfavourited",
	})
}

// GetFavourites handles GET /api/users/me/favourites
func (s *Server) GetFavourites(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	posts, err := s.postService.ListFavourites(c.Context(), userID)
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.JSON(posts)
}
