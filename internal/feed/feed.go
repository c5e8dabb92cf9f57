package feed

import (
	"context"

	"alliancefeed/internal/models"
	"alliancefeed/internal/observability"
	"alliancefeed/internal/session"
	"alliancefeed/internal/stream"
)

// Feed owns the live ordered view of the comment collection plus every
// session's interaction state, and serializes all access to both on a
// single dispatch goroutine. Snapshot application and local mutations never
// run concurrently; network-bound work (publishing, deleting) happens on
// the caller's goroutine and only its state commit is marshalled back onto
// the loop.
type Feed struct {
	provider  stream.Provider
	publisher *Publisher
	log       *observability.StreamLogger

	cmds chan func()
	done chan struct{}

	unsubscribe func()

	// Owned by the dispatch goroutine; never touched from outside it.
	ordered  []models.Comment
	index    map[string]models.Comment
	states   map[uint]*InteractionState
	watchers map[int]func([]models.Comment)
	nextID   int
}

// New creates a Feed over the given provider. notify is the fire-and-forget
// new-comment hook passed through to the publish pipeline.
func New(provider stream.Provider, notify func()) *Feed {
	return &Feed{
		provider:  provider,
		publisher: NewPublisher(provider, notify),
		log:       observability.NewStreamLogger("comments"),
		cmds:      make(chan func(), 64),
		done:      make(chan struct{}),
		index:     map[string]models.Comment{},
		states:    map[uint]*InteractionState{},
		watchers:  map[int]func([]models.Comment){},
	}
}

// Start launches the dispatch loop and opens the change stream
// subscription. The initial snapshot is applied before Start returns.
func (f *Feed) Start(ctx context.Context) error {
	go f.run()

	unsubscribe, err := f.provider.Subscribe(ctx,
		func(snapshot []models.Comment) {
			f.enqueue(func() { f.applySnapshot(snapshot) })
		},
		func(err error) {
			observability.StreamErrors.Inc()
			f.log.LogStreamError(ctx, err)
		},
	)
	if err != nil {
		return err
	}
	f.unsubscribe = unsubscribe
	return nil
}

// Close tears the subscription down and stops the dispatch loop. Publishes
// already in flight complete against the store, but their state commits are
// discarded.
func (f *Feed) Close() {
	select {
	case <-f.done:
		return
	default:
	}
	if f.unsubscribe != nil {
		f.unsubscribe()
	}
	close(f.done)
}

func (f *Feed) run() {
	for {
		select {
		case cmd := <-f.cmds:
			cmd()
		case <-f.done:
			return
		}
	}
}

// enqueue schedules fn on the dispatch loop; after Close it is a no-op.
func (f *Feed) enqueue(fn func()) {
	select {
	case f.cmds <- fn:
	case <-f.done:
	}
}

// request runs fn on the dispatch loop and waits for it. Returns false if
// the feed closed before fn could run.
func (f *Feed) request(fn func()) bool {
	ran := make(chan struct{})
	f.enqueue(func() {
		fn()
		close(ran)
	})
	select {
	case <-ran:
		return true
	case <-f.done:
		return false
	}
}

func (f *Feed) applySnapshot(snapshot []models.Comment) {
	f.ordered = Reconcile(snapshot)
	f.index = BuildIndex(f.ordered)

	observability.SnapshotsApplied.Inc()
	observability.SnapshotSize.Observe(float64(len(f.ordered)))
	f.log.LogSnapshot(context.Background(), len(f.ordered))

	for _, watch := range f.watchers {
		watch(f.viewCopy())
	}
}

func (f *Feed) viewCopy() []models.Comment {
	view := make([]models.Comment, len(f.ordered))
	copy(view, f.ordered)
	return view
}

func (f *Feed) stateFor(sessionID uint) *InteractionState {
	st, ok := f.states[sessionID]
	if !ok {
		st = &InteractionState{}
		f.states[sessionID] = st
	}
	return st
}

// View returns the current ordered view. Nil after Close.
func (f *Feed) View() []models.Comment {
	var view []models.Comment
	f.request(func() { view = f.viewCopy() })
	return view
}

// ParentAuthor resolves the reply parent's author for a comment in the
// current view. ok is false for top-level comments; deleted parents
// resolve to UnknownAuthor.
func (f *Feed) ParentAuthor(c models.Comment) (author string, ok bool) {
	f.request(func() { author, ok = ResolveParentAuthor(c, f.index) })
	return author, ok
}

// Watch registers fn to receive the ordered view now and after every
// applied snapshot. fn runs on the dispatch loop and must not block.
// The returned function cancels the registration.
func (f *Feed) Watch(fn func([]models.Comment)) (cancel func()) {
	var id int
	f.request(func() {
		f.nextID++
		id = f.nextID
		f.watchers[id] = fn
		fn(f.viewCopy())
	})
	return func() {
		f.enqueue(func() { delete(f.watchers, id) })
	}
}

// BeginEdit puts the session's composer into edit mode for the given
// comment, pre-loading its current text as the draft.
func (f *Feed) BeginEdit(sessionID uint, commentID string) error {
	var err error
	f.request(func() {
		c, ok := f.index[commentID]
		if !ok {
			err = models.NewNotFoundError("Comment", commentID)
			return
		}
		f.stateFor(sessionID).BeginEdit(commentID, c.Text)
	})
	return err
}

// BeginReply puts the session's composer into reply mode for the given
// comment, pre-filling the draft with the parent's author name.
func (f *Feed) BeginReply(sessionID uint, commentID string) error {
	var err error
	f.request(func() {
		c, ok := f.index[commentID]
		if !ok {
			err = models.NewNotFoundError("Comment", commentID)
			return
		}
		f.stateFor(sessionID).BeginReply(commentID, c.Author+" ")
	})
	return err
}

// ToggleMenu opens or closes the action menu for the given comment.
func (f *Feed) ToggleMenu(sessionID uint, commentID string) {
	f.request(func() { f.stateFor(sessionID).ToggleMenu(commentID) })
}

// DismissAll closes the menu and drops a pending reply target; an
// in-progress edit survives.
func (f *Feed) DismissAll(sessionID uint) {
	f.request(func() { f.stateFor(sessionID).DismissAll() })
}

// StateOf returns a copy of the session's interaction state.
func (f *Feed) StateOf(sessionID uint) InteractionState {
	var st InteractionState
	f.request(func() { st = *f.stateFor(sessionID) })
	return st
}

// ClearSession drops a session's interaction state entirely, e.g. on
// logout or connection teardown.
func (f *Feed) ClearSession(sessionID uint) {
	f.enqueue(func() { delete(f.states, sessionID) })
}

// Publish submits draft as the session's composer content: an update when
// the session is editing, a new comment (optionally a reply) otherwise.
// On success the composer is reset; on failure the draft and interaction
// state are left untouched so no content is lost. A whitespace-only draft
// is a silent no-op returning (nil, nil).
func (f *Feed) Publish(ctx context.Context, sess session.Session, draft string) (*models.Comment, error) {
	var state InteractionState
	if !f.request(func() {
		st := f.stateFor(sess.UserID)
		st.DraftText = draft
		state = *st
	}) {
		return nil, models.NewPublishError("Feed is shutting down", nil)
	}

	comment, err := f.publisher.Publish(ctx, state, sess)
	if err != nil || comment == nil {
		return comment, err
	}

	// If the feed has been torn down meanwhile the commit is discarded.
	f.enqueue(func() { f.stateFor(sess.UserID).Commit() })
	return comment, nil
}

// Delete removes a comment through the publish pipeline's permission gate.
func (f *Feed) Delete(ctx context.Context, sess session.Session, commentID string) error {
	return f.publisher.Delete(ctx, commentID, sess)
}
