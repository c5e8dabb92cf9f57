// Package stream connects the feed engine to the durable comment store and
// its change notifications. The store delivers full-collection snapshots on
// every change rather than diffs, so consumers reconcile against
// authoritative state and can never drift.
package stream

import (
	"context"
	"fmt"
	"sync"

	"alliancefeed/internal/models"
	"alliancefeed/internal/repository"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// changedChannel is the Redis pub/sub channel carrying collection
// invalidation events. The payload is the kind of change; subscribers
// reload the full collection regardless.
const changedChannel = "feed:comments:changed"

// Patch is the partial record applied by Update. Edited is written
// unconditionally so the flag stays monotonic once set.
type Patch struct {
	Text   string
	Edited bool
}

// Provider is the remote comment store consumed by the feed engine.
// All methods may fail with transport errors from the backing store;
// GetByID returns (nil, nil) when the record does not exist.
type Provider interface {
	Create(ctx context.Context, c *models.Comment) (string, error)
	Update(ctx context.Context, id string, patch Patch) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*models.Comment, error)
	List(ctx context.Context) ([]models.Comment, error)

	// Subscribe opens exactly one standing subscription. onSnapshot receives
	// the complete current set of comments once immediately and then after
	// every change; an empty collection is a valid snapshot. Transport
	// problems are reported through onError without terminating the
	// subscription. The returned function tears the subscription down, after
	// which no further callbacks fire.
	Subscribe(ctx context.Context, onSnapshot func([]models.Comment), onError func(error)) (func(), error)
}

// CommentProvider implements Provider on the comment repository, with
// change fan-out over Redis pub/sub. When Redis is unavailable it falls
// back to in-process fan-out, which keeps single-instance deployments and
// tests fully live.
type CommentProvider struct {
	repo repository.CommentRepository
	rdb  *redis.Client

	mu     sync.Mutex
	nextID int
	local  map[int]chan struct{}
}

// NewCommentProvider returns a Provider backed by the given repository.
// rdb may be nil.
func NewCommentProvider(repo repository.CommentRepository, rdb *redis.Client) *CommentProvider {
	return &CommentProvider{
		repo:  repo,
		rdb:   rdb,
		local: make(map[int]chan struct{}),
	}
}

// Create stores a new comment, assigning it an opaque unique ID. The caller
// supplies text, author, timestamp and reply target; Edited starts false.
func (p *CommentProvider) Create(ctx context.Context, c *models.Comment) (string, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if err := p.repo.Create(ctx, c); err != nil {
		return "", fmt.Errorf("create comment: %w", err)
	}
	p.publishChanged(ctx, "create")
	return c.ID, nil
}

// Update applies the patch to an existing comment. Only Text and Edited are
// mutable; ID, Author, Timestamp and ReplyTo never change after creation.
func (p *CommentProvider) Update(ctx context.Context, id string, patch Patch) error {
	if err := p.repo.UpdateText(ctx, id, patch.Text, patch.Edited); err != nil {
		return fmt.Errorf("update comment %s: %w", id, err)
	}
	p.publishChanged(ctx, "update")
	return nil
}

// Delete removes the comment entirely. There is no tombstone and no
// cascade; replies keep pointing at the vanished ID and render a
// placeholder author.
func (p *CommentProvider) Delete(ctx context.Context, id string) error {
	if err := p.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete comment %s: %w", id, err)
	}
	p.publishChanged(ctx, "delete")
	return nil
}

// GetByID fetches a single comment, or (nil, nil) if it does not exist.
func (p *CommentProvider) GetByID(ctx context.Context, id string) (*models.Comment, error) {
	c, err := p.repo.GetByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get comment %s: %w", id, err)
	}
	return c, nil
}

// List returns the complete current collection in storage order.
func (p *CommentProvider) List(ctx context.Context) ([]models.Comment, error) {
	comments, err := p.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return comments, nil
}

// publishChanged fans a change event out to every subscriber. Redis when
// available, in-process channels otherwise. Best effort: a lost event only
// delays the next snapshot until the following change.
func (p *CommentProvider) publishChanged(ctx context.Context, kind string) {
	if p.rdb != nil {
		_ = p.rdb.Publish(ctx, changedChannel, kind).Err()
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	for _, ch := range p.local {
		select {
		case ch <- struct{}{}:
		default:
			// A pending signal is already queued; one reload covers both.
		}
	}
}

func (p *CommentProvider) registerLocal() (int, chan struct{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.nextID++
	ch := make(chan struct{}, 1)
	p.local[p.nextID] = ch
	return p.nextID, ch
}

func (p *CommentProvider) unregisterLocal(id int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.local, id)
}
