package feed

import (
	"context"
	"strings"
	"time"

	"alliancefeed/internal/models"
	"alliancefeed/internal/observability"
	"alliancefeed/internal/session"
	"alliancefeed/internal/stream"
)

// Publisher validates and submits comment intents to the store, and fires
// the new-comment notification hook on successful creation. It mutates no
// local state; on failure the caller keeps the user's draft untouched.
type Publisher struct {
	provider stream.Provider
	notify   func() // fire-and-forget new-comment hook, may be nil
	now      func() time.Time
}

// NewPublisher creates a Publisher. notify is invoked exactly once per
// successfully created comment, never for edits; its delivery failures are
// its own problem and must not leak back into publish results.
func NewPublisher(provider stream.Provider, notify func()) *Publisher {
	return &Publisher{
		provider: provider,
		notify:   notify,
		now:      time.Now,
	}
}

// Publish submits the draft held in state. An empty draft (after trimming)
// is a deliberate silent no-op: it returns (nil, nil) without contacting
// the store. With an edit target set the comment's text is updated and
// Edited forced true; otherwise a new comment is created, replying to the
// state's reply target if any.
func (p *Publisher) Publish(ctx context.Context, state InteractionState, sess session.Session) (*models.Comment, error) {
	if strings.TrimSpace(state.DraftText) == "" {
		observability.PublishOutcomes.WithLabelValues("noop", "ok").Inc()
		return nil, nil
	}

	if state.Editing() {
		return p.publishEdit(ctx, state, sess)
	}
	return p.publishCreate(ctx, state, sess)
}

func (p *Publisher) publishEdit(ctx context.Context, state InteractionState, sess session.Session) (*models.Comment, error) {
	existing, err := p.provider.GetByID(ctx, state.EditTargetID)
	if err != nil {
		observability.PublishOutcomes.WithLabelValues("edit", "error").Inc()
		return nil, models.NewPublishError("Could not load comment for editing", err)
	}
	if existing == nil {
		observability.PublishOutcomes.WithLabelValues("edit", "error").Inc()
		return nil, models.NewNotFoundError("Comment", state.EditTargetID)
	}
	if existing.Author != sess.DisplayName {
		observability.PublishOutcomes.WithLabelValues("edit", "denied").Inc()
		return nil, models.NewPermissionError("You can only edit your own comments")
	}

	// Edited is set even when the text is identical; the flag never reverts.
	patch := stream.Patch{Text: state.DraftText, Edited: true}
	if err := p.provider.Update(ctx, state.EditTargetID, patch); err != nil {
		observability.PublishOutcomes.WithLabelValues("edit", "error").Inc()
		return nil, models.NewPublishError("Could not update comment", err)
	}

	existing.Text = state.DraftText
	existing.Edited = true
	observability.PublishOutcomes.WithLabelValues("edit", "ok").Inc()
	return existing, nil
}

func (p *Publisher) publishCreate(ctx context.Context, state InteractionState, sess session.Session) (*models.Comment, error) {
	comment := &models.Comment{
		Text:      state.DraftText,
		Author:    sess.DisplayName,
		Timestamp: p.now(),
		Edited:    false,
	}
	if state.Replying() {
		replyTo := state.ReplyTargetID
		comment.ReplyTo = &replyTo
	}

	if _, err := p.provider.Create(ctx, comment); err != nil {
		observability.PublishOutcomes.WithLabelValues("create", "error").Inc()
		return nil, models.NewPublishError("Could not publish comment", err)
	}

	// Only net-new comments notify; the edit branch never reaches here.
	if p.notify != nil {
		p.notify()
	}
	observability.PublishOutcomes.WithLabelValues("create", "ok").Inc()
	return comment, nil
}

// Delete removes a comment. Only the comment's own author may delete it;
// the permission check happens before any store mutation.
func (p *Publisher) Delete(ctx context.Context, id string, sess session.Session) error {
	existing, err := p.provider.GetByID(ctx, id)
	if err != nil {
		return models.NewPublishError("Could not load comment", err)
	}
	if existing == nil {
		return models.NewNotFoundError("Comment", id)
	}
	if existing.Author != sess.DisplayName {
		return models.NewPermissionError("You can only delete your own comments")
	}

	if err := p.provider.Delete(ctx, id); err != nil {
		return models.NewPublishError("Could not delete comment", err)
	}
	return nil
}
