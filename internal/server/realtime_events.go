package server

import (
	"encoding/json"

	"alliancefeed/internal/feed"
	"alliancefeed/internal/models"
)

// Websocket event types. Every frame, inbound or outbound, is a JSON object
// with a "type" field and an event-specific "payload".
const (
	// Server -> client
	EventSnapshot         = "feed_snapshot"
	EventInteractionState = "interaction_state"
	EventError            = "error"

	// Client -> server
	EventPublish    = "publish"
	EventDelete     = "delete"
	EventBeginEdit  = "begin_edit"
	EventBeginReply = "begin_reply"
	EventToggleMenu = "toggle_menu"
	EventDismiss    = "dismiss"
)

// wsEvent is the envelope for all websocket frames.
type wsEvent struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// commentView is a comment as rendered for clients: the raw record plus the
// resolved author of the reply parent, so clients never chase references.
type commentView struct {
	ID            string  `json:"id"`
	Text          string  `json:"text"`
	Author        string  `json:"author"`
	Timestamp     *int64  `json:"timestamp"`
	Edited        bool    `json:"edited"`
	ReplyTo       *string `json:"reply_to,omitempty"`
	ReplyToAuthor *string `json:"reply_to_author,omitempty"`
}

// interactionView is the composer state as rendered for one session.
type interactionView struct {
	EditTargetID  string `json:"edit_target_id,omitempty"`
	ReplyTargetID string `json:"reply_target_id,omitempty"`
	MenuOpenID    string `json:"menu_open_id,omitempty"`
	DraftText     string `json:"draft_text"`
}

// renderComments maps an ordered view to its client representation. The
// parent author is resolved against the same snapshot the view came from,
// so a reply and its resolution can never disagree.
func renderComments(view []models.Comment) []commentView {
	index := feed.BuildIndex(view)
	out := make([]commentView, 0, len(view))
	for _, c := range view {
		cv := commentView{
			ID:     c.ID,
			Text:   c.Text,
			Author: c.Author,
			Edited: c.Edited,
		}
		if c.HasTimestamp() {
			millis := c.Timestamp.UnixMilli()
			cv.Timestamp = &millis
		}
		if c.IsReply() {
			cv.ReplyTo = c.ReplyTo
			if author, ok := feed.ResolveParentAuthor(c, index); ok {
				cv.ReplyToAuthor = &author
			}
		}
		out = append(out, cv)
	}
	return out
}

func renderInteraction(st feed.InteractionState) interactionView {
	return interactionView{
		EditTargetID:  st.EditTargetID,
		ReplyTargetID: st.ReplyTargetID,
		MenuOpenID:    st.MenuOpenID,
		DraftText:     st.DraftText,
	}
}

func marshalEvent(eventType string, payload any) (string, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	data, err := json.Marshal(wsEvent{Type: eventType, Payload: raw})
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// renderSnapshotEvent renders the ordered view as a broadcastable
// feed_snapshot frame.
func renderSnapshotEvent(view []models.Comment) (string, error) {
	return marshalEvent(EventSnapshot, struct {
		Comments []commentView `json:"comments"`
	}{Comments: renderComments(view)})
}

// renderInteractionEvent renders a session's composer state frame.
func renderInteractionEvent(st feed.InteractionState) (string, error) {
	return marshalEvent(EventInteractionState, renderInteraction(st))
}

// renderErrorEvent renders an error frame carrying the application error
// code so clients can branch on it.
func renderErrorEvent(err error) string {
	code := models.CodeInternal
	message := err.Error()
	if appErr, ok := err.(*models.AppError); ok {
		code = appErr.Code
		message = appErr.Message
	}
	payload, mErr := marshalEvent(EventError, struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}{Code: code, Message: message})
	if mErr != nil {
		return `{"type":"error","payload":{"code":"INTERNAL_ERROR","message":"render failure"}}`
	}
	return payload
}
