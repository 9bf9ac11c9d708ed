package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func getJSONList(t *testing.T, app *fiber.App, method, path, token string) []map[string]any {
	t.Helper()

	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var list []map[string]any
	require.NoError(t, json.Unmarshal(raw, &list))
	return list
}

func TestPostLifecycle(t *testing.T) {
	_, app := setupTestServer(t, nil)
	aliceToken, _ := signupUser(t, app, "alice", "alice@x.com", "Secret123")
	bobToken, _ := signupUser(t, app, "bob", "bob@x.com", "Secret123")

	// alice publishes.
	resp, created := doJSON(t, app, http.MethodPost, "/api/posts", aliceToken, map[string]string{
		"content": "hello",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	postID := uint(created["id"].(float64))

	// Visible in the feed and in alice's own posts.
	feed := getJSONList(t, app, http.MethodGet, "/api/posts", "")
	require.Len(t, feed, 1)
	assert.Equal(t, "hello", feed[0]["content"])

	resp, mine := doJSON(t, app, http.MethodGet, "/api/posts/mine", aliceToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, mine["posts"].([]any), 1)
	assert.Equal(t, float64(1), mine["count"])

	resp, bobMine := doJSON(t, app, http.MethodGet, "/api/posts/mine", bobToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, bobMine["posts"])
	assert.Equal(t, float64(0), bobMine["count"])

	// bob cannot edit alice's post.
	resp, _ = doJSON(t, app, http.MethodPut, fmt.Sprintf("/api/posts/%d", postID), bobToken, map[string]string{
		"content": "hijacked",
	})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// alice edits her own.
	resp, updated := doJSON(t, app, http.MethodPut, fmt.Sprintf("/api/posts/%d", postID), aliceToken, map[string]string{
		"content": "hello v2",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "hello v2", updated["content"])

	// bob cannot delete it either.
	resp, _ = doJSON(t, app, http.MethodDelete, fmt.Sprintf("/api/posts/%d", postID), bobToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

// The end-to-end scenario: duplicate email rejected, a post travels
// through the feed, a favourite, and the delete that takes both away.
func TestAliceBobScenario(t *testing.T) {
	_, app := setupTestServer(t, nil)

	aliceToken, _ := signupUser(t, app, "alice", "alice@x.com", "Secret123")

	// bob with alice's email fails.
	resp, _ := doJSON(t, app, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"username": "bob",
		"email":    "alice@x.com",
		"password": "Secret123",
	})
	require.Equal(t, http.StatusConflict, resp.StatusCode)

	bobToken, _ := signupUser(t, app, "bob", "bob@x.com", "Secret123")

	// alice creates the post.
	resp, created := doJSON(t, app, http.MethodPost, "/api/posts", aliceToken, map[string]string{
		"content": "hello",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	postID := uint(created["id"].(float64))

	feed := getJSONList(t, app, http.MethodGet, "/api/posts", "")
	require.Len(t, feed, 1)

	// bob favourites it; repeating changes nothing.
	favPath := fmt.Sprintf("/api/posts/%d/favourite", postID)
	resp, _ = doJSON(t, app, http.MethodPost, favPath, bobToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = doJSON(t, app, http.MethodPost, favPath, bobToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	favs := getJSONList(t, app, http.MethodGet, "/api/users/me/favourites", bobToken)
	require.Len(t, favs, 1)
	assert.Equal(t, float64(postID), favs[0]["id"])
	assert.Equal(t, true, favs[0]["favourited"])

	// The feed marks the favourite for bob but not for alice.
	feed = getJSONList(t, app, http.MethodGet, "/api/posts", bobToken)
	assert.Equal(t, true, feed[0]["favourited"])
	feed = getJSONList(t, app, http.MethodGet, "/api/posts", aliceToken)
	assert.Equal(t, false, feed[0]["favourited"])

	// alice deletes the post; bob's favourites empty out with it.
	resp, _ = doJSON(t, app, http.MethodDelete, fmt.Sprintf("/api/posts/%d", postID), aliceToken, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	favs = getJSONList(t, app, http.MethodGet, "/api/users/me/favourites", bobToken)
	assert.Empty(t, favs)

	feed = getJSONList(t, app, http.MethodGet, "/api/posts", "")
	assert.Empty(t, feed)
}

func TestFavouriteUnknownPostIs404(t *testing.T) {
	_, app := setupTestServer(t, nil)
	token, _ := signupUser(t, app, "alice", "alice@x.com", "Secret123")

	resp, _ := doJSON(t, app, http.MethodPost, "/api/posts/999/favourite", token, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestFollowEndpoints(t *testing.T) {
	_, app := setupTestServer(t, nil)
	aliceToken, aliceID := signupUser(t, app, "alice", "alice@x.com", "Secret123")
	bobToken, _ := signupUser(t, app, "bob", "bob@x.com", "Secret123")

	followPath := fmt.Sprintf("/api/users/%d/follow", aliceID)

	// Following twice is fine.
	resp, _ := doJSON(t, app, http.MethodPost, followPath, bobToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = doJSON(t, app, http.MethodPost, followPath, bobToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Unknown target is 404.
	resp, _ = doJSON(t, app, http.MethodPost, "/api/users/999/follow", bobToken, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// bob's following list holds exactly alice.
	following := getJSONList(t, app, http.MethodGet, "/api/users/me/following", bobToken)
	require.Len(t, following, 1)
	assert.Equal(t, "alice", following[0]["username"])

	// The user listing carries bob's following id set.
	resp, body := doJSON(t, app, http.MethodGet, "/api/users", bobToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	users := body["users"].([]any)
	assert.Len(t, users, 2)
	followingIDs := body["following"].([]any)
	require.Len(t, followingIDs, 1)
	assert.Equal(t, float64(aliceID), followingIDs[0])

	// alice follows nobody.
	resp, body = doJSON(t, app, http.MethodGet, "/api/users", aliceToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, body["following"])

	// Unfollow, then unfollow again: both succeed.
	resp, _ = doJSON(t, app, http.MethodDelete, followPath, bobToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = doJSON(t, app, http.MethodDelete, followPath, bobToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	following = getJSONList(t, app, http.MethodGet, "/api/users/me/following", bobToken)
	assert.Empty(t, following)
}

func TestProfileUpdate(t *testing.T) {
	_, app := setupTestServer(t, nil)
	aliceToken, _ := signupUser(t, app, "alice", "alice@x.com", "Secret123")
	_, _ = signupUser(t, app, "bob", "bob@x.com", "Secret123")

	// Email domain gets lowercased on update.
	resp, body := doJSON(t, app, http.MethodPut, "/api/users/me", aliceToken, map[string]string{
		"email": "alice@NEWDOMAIN.com",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "alice@newdomain.com", body["email"])

	// Taking bob's username is a conflict.
	resp, _ = doJSON(t, app, http.MethodPut, "/api/users/me", aliceToken, map[string]string{
		"username": "bob",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// Invalid username is a validation error.
	resp, _ = doJSON(t, app, http.MethodPut, "/api/users/me", aliceToken, map[string]string{
		"username": "x",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
