package server

import (
	"net/http"
	"testing"
	"time"

	"alliancefeed/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	waitFor = 3 * time.Second
	tick    = 10 * time.Millisecond
)

func TestPublishAndReadFeed(t *testing.T) {
	srv, app := setupTestServer(t)
	token := signupUser(t, app, "ana", "ana@example.com")

	resp, body := doJSON(t, app, http.MethodPost, "/api/feed/comments", token,
		map[string]string{"text": "first comment"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	comment, ok := body["comment"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "first comment", comment["text"])
	assert.Equal(t, "ana", comment["author"])
	assert.Equal(t, false, comment["edited"])

	// The view converges once the change stream delivers the snapshot.
	require.Eventually(t, func() bool {
		return len(srv.feed.View()) == 1
	}, waitFor, tick)

	resp, body = doJSON(t, app, http.MethodGet, "/api/feed/", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	comments, _ := body["comments"].([]any)
	require.Len(t, comments, 1)
	first, _ := comments[0].(map[string]any)
	assert.Equal(t, "first comment", first["text"])
	assert.NotEmpty(t, first["id"])
	assert.NotNil(t, first["timestamp"])
}

func TestPublishEmptyDraftIsNoop(t *testing.T) {
	srv, app := setupTestServer(t)
	token := signupUser(t, app, "ana", "ana@example.com")

	resp, _ := doJSON(t, app, http.MethodPost, "/api/feed/comments", token,
		map[string]string{"text": "   \n\t"})
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	time.Sleep(100 * time.Millisecond)
	assert.Empty(t, srv.feed.View())
}

func TestReplyFlow(t *testing.T) {
	srv, app := setupTestServer(t)
	anaToken := signupUser(t, app, "ana", "ana@example.com")
	brunoToken := signupUser(t, app, "bruno", "bruno@example.com")

	resp, _ := doJSON(t, app, http.MethodPost, "/api/feed/comments", anaToken,
		map[string]string{"text": "original post"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var parentID string
	require.Eventually(t, func() bool {
		view := srv.feed.View()
		if len(view) != 1 {
			return false
		}
		parentID = view[0].ID
		return true
	}, waitFor, tick)

	// Reply mode pre-fills the composer with the parent's author.
	resp, state := doJSON(t, app, http.MethodPost, "/api/feed/comments/"+parentID+"/reply", brunoToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, parentID, state["reply_target_id"])
	assert.Equal(t, "ana ", state["draft_text"])

	resp, body := doJSON(t, app, http.MethodPost, "/api/feed/comments", brunoToken,
		map[string]string{"text": "ana great point!"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	comment, _ := body["comment"].(map[string]any)
	assert.Equal(t, parentID, comment["reply_to"])

	// Rendered feed resolves the parent author.
	require.Eventually(t, func() bool {
		return len(srv.feed.View()) == 2
	}, waitFor, tick)

	resp, body = doJSON(t, app, http.MethodGet, "/api/feed/", brunoToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	comments, _ := body["comments"].([]any)
	require.Len(t, comments, 2)
	reply, _ := comments[1].(map[string]any)
	assert.Equal(t, "ana", reply["reply_to_author"])

	// The composer is reset after a successful publish.
	resp, state = doJSON(t, app, http.MethodGet, "/api/feed/interaction", brunoToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, state["reply_target_id"])
	assert.Empty(t, state["draft_text"])
}

func TestEditFlow(t *testing.T) {
	srv, app := setupTestServer(t)
	token := signupUser(t, app, "ana", "ana@example.com")

	resp, _ := doJSON(t, app, http.MethodPost, "/api/feed/comments", token,
		map[string]string{"text": "tpyo everywhere"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var commentID string
	require.Eventually(t, func() bool {
		view := srv.feed.View()
		if len(view) != 1 {
			return false
		}
		commentID = view[0].ID
		return true
	}, waitFor, tick)

	// Edit mode loads the current text into the draft.
	resp, state := doJSON(t, app, http.MethodPost, "/api/feed/comments/"+commentID+"/edit", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, commentID, state["edit_target_id"])
	assert.Equal(t, "tpyo everywhere", state["draft_text"])

	resp, body := doJSON(t, app, http.MethodPost, "/api/feed/comments", token,
		map[string]string{"text": "typo fixed"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	comment, _ := body["comment"].(map[string]any)
	assert.Equal(t, "typo fixed", comment["text"])
	assert.Equal(t, true, comment["edited"])

	require.Eventually(t, func() bool {
		view := srv.feed.View()
		return len(view) == 1 && view[0].Text == "typo fixed" && view[0].Edited
	}, waitFor, tick)
}

func TestEditForeignCommentForbidden(t *testing.T) {
	srv, app := setupTestServer(t)
	anaToken := signupUser(t, app, "ana", "ana@example.com")
	brunoToken := signupUser(t, app, "bruno", "bruno@example.com")

	resp, _ := doJSON(t, app, http.MethodPost, "/api/feed/comments", anaToken,
		map[string]string{"text": "mine"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var commentID string
	require.Eventually(t, func() bool {
		view := srv.feed.View()
		if len(view) != 1 {
			return false
		}
		commentID = view[0].ID
		return true
	}, waitFor, tick)

	// Entering edit mode is local and allowed; the write is what's gated.
	resp, _ = doJSON(t, app, http.MethodPost, "/api/feed/comments/"+commentID+"/edit", brunoToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := doJSON(t, app, http.MethodPost, "/api/feed/comments", brunoToken,
		map[string]string{"text": "hijacked"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, models.CodePermission, body["code"])

	// The original text is untouched.
	assert.Equal(t, "mine", srv.feed.View()[0].Text)
}

func TestDeleteComment(t *testing.T) {
	srv, app := setupTestServer(t)
	anaToken := signupUser(t, app, "ana", "ana@example.com")
	brunoToken := signupUser(t, app, "bruno", "bruno@example.com")

	resp, _ := doJSON(t, app, http.MethodPost, "/api/feed/comments", anaToken,
		map[string]string{"text": "to be deleted"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var commentID string
	require.Eventually(t, func() bool {
		view := srv.feed.View()
		if len(view) != 1 {
			return false
		}
		commentID = view[0].ID
		return true
	}, waitFor, tick)

	resp, body := doJSON(t, app, http.MethodDelete, "/api/feed/comments/"+commentID, brunoToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, models.CodePermission, body["code"])

	resp, body = doJSON(t, app, http.MethodDelete, "/api/feed/comments/ghost", anaToken, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, models.CodeNotFound, body["code"])

	resp, _ = doJSON(t, app, http.MethodDelete, "/api/feed/comments/"+commentID, anaToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.Eventually(t, func() bool {
		return len(srv.feed.View()) == 0
	}, waitFor, tick)
}

func TestDanglingReplyRendersUnknownAuthor(t *testing.T) {
	srv, app := setupTestServer(t)
	anaToken := signupUser(t, app, "ana", "ana@example.com")
	brunoToken := signupUser(t, app, "bruno", "bruno@example.com")

	resp, _ := doJSON(t, app, http.MethodPost, "/api/feed/comments", anaToken,
		map[string]string{"text": "parent"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var parentID string
	require.Eventually(t, func() bool {
		view := srv.feed.View()
		if len(view) != 1 {
			return false
		}
		parentID = view[0].ID
		return true
	}, waitFor, tick)

	resp, _ = doJSON(t, app, http.MethodPost, "/api/feed/comments/"+parentID+"/reply", brunoToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = doJSON(t, app, http.MethodPost, "/api/feed/comments", brunoToken,
		map[string]string{"text": "ana replying"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	require.Eventually(t, func() bool {
		return len(srv.feed.View()) == 2
	}, waitFor, tick)

	// Deleting the parent leaves the reply dangling, never broken.
	resp, _ = doJSON(t, app, http.MethodDelete, "/api/feed/comments/"+parentID, anaToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	require.Eventually(t, func() bool {
		return len(srv.feed.View()) == 1
	}, waitFor, tick)

	resp, body := doJSON(t, app, http.MethodGet, "/api/feed/", brunoToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	comments, _ := body["comments"].([]any)
	require.Len(t, comments, 1)
	reply, _ := comments[0].(map[string]any)
	assert.Equal(t, "unknown", reply["reply_to_author"])
}

func TestInteractionEndpoints(t *testing.T) {
	srv, app := setupTestServer(t)
	token := signupUser(t, app, "ana", "ana@example.com")

	resp, _ := doJSON(t, app, http.MethodPost, "/api/feed/comments", token,
		map[string]string{"text": "a comment"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var commentID string
	require.Eventually(t, func() bool {
		view := srv.feed.View()
		if len(view) != 1 {
			return false
		}
		commentID = view[0].ID
		return true
	}, waitFor, tick)

	// Toggle the menu open, then closed.
	resp, state := doJSON(t, app, http.MethodPost, "/api/feed/comments/"+commentID+"/menu", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, commentID, state["menu_open_id"])

	resp, state = doJSON(t, app, http.MethodPost, "/api/feed/comments/"+commentID+"/menu", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, state["menu_open_id"])

	// Begin edit on an unknown comment is a 404.
	resp, body := doJSON(t, app, http.MethodPost, "/api/feed/comments/ghost/edit", token, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, models.CodeNotFound, body["code"])
}

func TestDismissPreservesEditButDropsReply(t *testing.T) {
	srv, app := setupTestServer(t)
	token := signupUser(t, app, "ana", "ana@example.com")

	resp, _ := doJSON(t, app, http.MethodPost, "/api/feed/comments", token,
		map[string]string{"text": "a comment"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var commentID string
	require.Eventually(t, func() bool {
		view := srv.feed.View()
		if len(view) != 1 {
			return false
		}
		commentID = view[0].ID
		return true
	}, waitFor, tick)

	// Reply mode plus menu, then dismiss: both are cleared.
	_, _ = doJSON(t, app, http.MethodPost, "/api/feed/comments/"+commentID+"/reply", token, nil)
	_, _ = doJSON(t, app, http.MethodPost, "/api/feed/comments/"+commentID+"/menu", token, nil)

	resp, state := doJSON(t, app, http.MethodPost, "/api/feed/interaction/dismiss", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, state["reply_target_id"])
	assert.Empty(t, state["menu_open_id"])

	// Edit mode plus menu, then dismiss: the edit survives.
	_, _ = doJSON(t, app, http.MethodPost, "/api/feed/comments/"+commentID+"/edit", token, nil)
	_, _ = doJSON(t, app, http.MethodPost, "/api/feed/comments/"+commentID+"/menu", token, nil)

	resp, state = doJSON(t, app, http.MethodPost, "/api/feed/interaction/dismiss", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, commentID, state["edit_target_id"])
	assert.Empty(t, state["menu_open_id"])
}
