package feed

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"alliancefeed/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// snapshotProvider is a stubProvider whose Subscribe hands the test a handle
// to push further snapshots, mimicking the change stream.
type snapshotProvider struct {
	stubProvider

	mu         sync.Mutex
	onSnapshot func([]models.Comment)
	initial    []models.Comment
}

func newSnapshotProvider(initial []models.Comment) *snapshotProvider {
	p := &snapshotProvider{initial: initial}
	p.subscribeFn = func(_ context.Context, onSnapshot func([]models.Comment), _ func(error)) (func(), error) {
		p.mu.Lock()
		p.onSnapshot = onSnapshot
		p.mu.Unlock()
		onSnapshot(p.initial)
		return func() {}, nil
	}
	return p
}

func (p *snapshotProvider) push(snapshot []models.Comment) {
	p.mu.Lock()
	fn := p.onSnapshot
	p.mu.Unlock()
	fn(snapshot)
}

func startFeed(t *testing.T, provider *snapshotProvider, notify func()) *Feed {
	t.Helper()
	f := New(provider, notify)
	require.NoError(t, f.Start(context.Background()))
	t.Cleanup(f.Close)
	return f
}

func TestFeed_InitialSnapshotOrdered(t *testing.T) {
	t.Parallel()

	provider := newSnapshotProvider([]models.Comment{
		{ID: "b", Author: "bruno", Timestamp: ts(10)},
		{ID: "a", Author: "ana", Timestamp: ts(0)},
	})
	f := startFeed(t, provider, nil)

	view := f.View()
	require.Len(t, view, 2)
	assert.Equal(t, "a", view[0].ID)
	assert.Equal(t, "b", view[1].ID)
}

func TestFeed_NewSnapshotReplacesView(t *testing.T) {
	t.Parallel()

	provider := newSnapshotProvider([]models.Comment{
		{ID: "a", Timestamp: ts(0)},
	})
	f := startFeed(t, provider, nil)

	provider.push([]models.Comment{
		{ID: "c", Timestamp: ts(20)},
		{ID: "a", Timestamp: ts(0)},
	})

	view := f.View()
	require.Len(t, view, 2)
	assert.Equal(t, "a", view[0].ID)
	assert.Equal(t, "c", view[1].ID)
}

func TestFeed_ParentAuthorResolution(t *testing.T) {
	t.Parallel()

	parent := "a"
	gone := "deleted"
	reply := models.Comment{ID: "r", Author: "bruno", ReplyTo: &parent, Timestamp: ts(5)}
	dangling := models.Comment{ID: "d", Author: "carla", ReplyTo: &gone, Timestamp: ts(6)}
	provider := newSnapshotProvider([]models.Comment{
		{ID: "a", Author: "ana", Timestamp: ts(0)},
		reply,
		dangling,
	})
	f := startFeed(t, provider, nil)

	author, ok := f.ParentAuthor(reply)
	assert.True(t, ok)
	assert.Equal(t, "ana", author)

	author, ok = f.ParentAuthor(dangling)
	assert.True(t, ok)
	assert.Equal(t, UnknownAuthor, author)

	_, ok = f.ParentAuthor(models.Comment{ID: "a"})
	assert.False(t, ok)
}

func TestFeed_WatchDeliversCurrentAndSubsequentViews(t *testing.T) {
	t.Parallel()

	provider := newSnapshotProvider([]models.Comment{
		{ID: "a", Timestamp: ts(0)},
	})
	f := startFeed(t, provider, nil)

	views := make(chan []models.Comment, 4)
	cancel := f.Watch(func(view []models.Comment) { views <- view })
	defer cancel()

	first := <-views
	require.Len(t, first, 1)

	provider.push([]models.Comment{
		{ID: "a", Timestamp: ts(0)},
		{ID: "b", Timestamp: ts(1)},
	})

	select {
	case second := <-views:
		require.Len(t, second, 2)
	case <-time.After(2 * time.Second):
		t.Fatal("no view delivered after snapshot")
	}
}

func TestFeed_BeginEditLoadsCurrentText(t *testing.T) {
	t.Parallel()

	provider := newSnapshotProvider([]models.Comment{
		{ID: "c1", Author: "ana", Text: "original", Timestamp: ts(0)},
	})
	f := startFeed(t, provider, nil)

	require.NoError(t, f.BeginEdit(1, "c1"))

	st := f.StateOf(1)
	assert.Equal(t, "c1", st.EditTargetID)
	assert.Equal(t, "original", st.DraftText)
}

func TestFeed_BeginEditUnknownComment(t *testing.T) {
	t.Parallel()

	f := startFeed(t, newSnapshotProvider(nil), nil)

	err := f.BeginEdit(1, "ghost")
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, models.CodeNotFound, appErr.Code)
}

func TestFeed_BeginReplyPrefillsAuthorHint(t *testing.T) {
	t.Parallel()

	provider := newSnapshotProvider([]models.Comment{
		{ID: "c1", Author: "ana", Timestamp: ts(0)},
	})
	f := startFeed(t, provider, nil)

	require.NoError(t, f.BeginReply(2, "c1"))

	st := f.StateOf(2)
	assert.Equal(t, "c1", st.ReplyTargetID)
	assert.Equal(t, "ana ", st.DraftText)
}

func TestFeed_StatesArePerSession(t *testing.T) {
	t.Parallel()

	provider := newSnapshotProvider([]models.Comment{
		{ID: "c1", Author: "ana", Text: "hi", Timestamp: ts(0)},
	})
	f := startFeed(t, provider, nil)

	require.NoError(t, f.BeginEdit(1, "c1"))
	f.ToggleMenu(2, "c1")

	assert.Equal(t, "c1", f.StateOf(1).EditTargetID)
	assert.Empty(t, f.StateOf(2).EditTargetID)
	assert.Equal(t, "c1", f.StateOf(2).MenuOpenID)
	assert.Empty(t, f.StateOf(1).MenuOpenID)
}

func TestFeed_PublishCommitsStateOnSuccess(t *testing.T) {
	t.Parallel()

	provider := newSnapshotProvider([]models.Comment{
		{ID: "c1", Author: "ana", Timestamp: ts(0)},
	})
	notified := 0
	f := startFeed(t, provider, func() { notified++ })

	require.NoError(t, f.BeginReply(ana.UserID, "c1"))

	comment, err := f.Publish(context.Background(), ana, "ana hello!")
	require.NoError(t, err)
	require.NotNil(t, comment)
	require.NotNil(t, comment.ReplyTo)
	assert.Equal(t, "c1", *comment.ReplyTo)
	assert.Equal(t, 1, notified)

	// Composer resets after a successful publish.
	st := f.StateOf(ana.UserID)
	assert.Equal(t, InteractionState{}, st)
}

func TestFeed_PublishFailurePreservesState(t *testing.T) {
	t.Parallel()

	provider := newSnapshotProvider([]models.Comment{
		{ID: "c1", Author: "ana", Timestamp: ts(0)},
	})
	provider.createFn = func(_ context.Context, _ *models.Comment) (string, error) {
		return "", errors.New("store down")
	}
	f := startFeed(t, provider, nil)

	require.NoError(t, f.BeginReply(ana.UserID, "c1"))

	_, err := f.Publish(context.Background(), ana, "ana hello!")
	require.Error(t, err)

	// The draft and the reply target both survive the failure.
	st := f.StateOf(ana.UserID)
	assert.Equal(t, "c1", st.ReplyTargetID)
	assert.Equal(t, "ana hello!", st.DraftText)
}

func TestFeed_PublishEmptyDraftKeepsState(t *testing.T) {
	t.Parallel()

	provider := newSnapshotProvider([]models.Comment{
		{ID: "c1", Author: "ana", Timestamp: ts(0)},
	})
	f := startFeed(t, provider, nil)

	require.NoError(t, f.BeginReply(ana.UserID, "c1"))

	comment, err := f.Publish(context.Background(), ana, "   ")
	assert.NoError(t, err)
	assert.Nil(t, comment)

	st := f.StateOf(ana.UserID)
	assert.Equal(t, "c1", st.ReplyTargetID)
}

func TestFeed_ClearSession(t *testing.T) {
	t.Parallel()

	provider := newSnapshotProvider([]models.Comment{
		{ID: "c1", Author: "ana", Text: "hi", Timestamp: ts(0)},
	})
	f := startFeed(t, provider, nil)

	require.NoError(t, f.BeginEdit(1, "c1"))
	f.ClearSession(1)

	assert.Equal(t, InteractionState{}, f.StateOf(1))
}

func TestFeed_DismissAllKeepsEditAcrossSnapshots(t *testing.T) {
	t.Parallel()

	provider := newSnapshotProvider([]models.Comment{
		{ID: "c1", Author: "ana", Text: "hi", Timestamp: ts(0)},
	})
	f := startFeed(t, provider, nil)

	require.NoError(t, f.BeginEdit(1, "c1"))
	f.ToggleMenu(1, "c1")
	f.DismissAll(1)

	// A snapshot arriving mid-interaction leaves composer state alone.
	provider.push([]models.Comment{
		{ID: "c1", Author: "ana", Text: "hi", Timestamp: ts(0)},
		{ID: "c2", Author: "bruno", Timestamp: ts(1)},
	})

	st := f.StateOf(1)
	assert.Equal(t, "c1", st.EditTargetID)
	assert.Empty(t, st.MenuOpenID)
}
