package feed

// InteractionState tracks one session's local composer state: which comment
// is being edited, which is the reply target, and which has its action menu
// open. It is ephemeral and never persisted or transmitted.
//
// Edit and reply modes are mutually exclusive, and at most one menu is open
// at a time. Every transition below is total: any call is legal in any
// state, so illegal combinations are unrepresentable by construction.
type InteractionState struct {
	EditTargetID  string `json:"edit_target_id,omitempty"`
	ReplyTargetID string `json:"reply_target_id,omitempty"`
	MenuOpenID    string `json:"menu_open_id,omitempty"`
	DraftText     string `json:"draft_text,omitempty"`
}

// BeginEdit enters edit mode for the given comment and loads its current
// text into the draft. Any pending reply target or open menu is cleared.
func (s *InteractionState) BeginEdit(id, text string) {
	s.EditTargetID = id
	s.DraftText = text
	s.ReplyTargetID = ""
	s.MenuOpenID = ""
}

// BeginReply enters reply mode targeting the given comment. authorHint
// pre-fills the composer ("author "), matching the reply affordance.
// Any pending edit or open menu is cleared.
func (s *InteractionState) BeginReply(id, authorHint string) {
	s.ReplyTargetID = id
	s.DraftText = authorHint
	s.EditTargetID = ""
	s.MenuOpenID = ""
}

// ToggleMenu closes the menu if it is already open for id, otherwise opens
// it there, implicitly closing any other open menu.
func (s *InteractionState) ToggleMenu(id string) {
	if s.MenuOpenID == id {
		s.MenuOpenID = ""
		return
	}
	s.MenuOpenID = id
}

// DismissAll handles an incidental tap outside any comment: it closes the
// menu and abandons a pending reply target, but leaves an in-progress edit
// alone so edit work is never discarded silently. The asymmetry between
// reply and edit is intentional.
func (s *InteractionState) DismissAll() {
	s.MenuOpenID = ""
	s.ReplyTargetID = ""
}

// Commit resets the composer after a successful publish. The resulting
// state equals the initial (all-empty) state.
func (s *InteractionState) Commit() {
	s.EditTargetID = ""
	s.ReplyTargetID = ""
	s.DraftText = ""
}

// Editing reports whether a comment is currently being edited.
func (s *InteractionState) Editing() bool { return s.EditTargetID != "" }

// Replying reports whether a reply target is set.
func (s *InteractionState) Replying() bool { return s.ReplyTargetID != "" }
