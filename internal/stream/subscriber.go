package stream

import (
	"context"
	"log"
	"runtime/debug"

	"alliancefeed/internal/models"
	"alliancefeed/internal/observability"

	"go.opentelemetry.io/otel/attribute"
)

// Subscribe implements the standing snapshot subscription for CommentProvider.
//
// The initial snapshot is delivered synchronously before Subscribe returns,
// so a caller always starts from authoritative state. After that a single
// goroutine waits for change events and reloads the full collection,
// guaranteeing snapshots are delivered one at a time, in order.
func (p *CommentProvider) Subscribe(
	ctx context.Context, onSnapshot func([]models.Comment), onError func(error),
) (func(), error) {
	initial, err := p.List(ctx)
	if err != nil {
		return nil, models.NewStreamError(err)
	}
	onSnapshot(initial)

	subCtx, cancel := context.WithCancel(ctx)

	// Event source: Redis pub/sub when available, in-process otherwise.
	var events <-chan struct{}
	var cleanup func()
	if p.rdb != nil {
		sub := p.rdb.Subscribe(subCtx, changedChannel)
		redisCh := sub.Channel()
		ch := make(chan struct{}, 1)
		go func() {
			for range redisCh {
				select {
				case ch <- struct{}{}:
				default:
				}
			}
			close(ch)
		}()
		events = ch
		cleanup = func() { _ = sub.Close() }
	} else {
		id, ch := p.registerLocal()
		events = ch
		cleanup = func() { p.unregisterLocal(id) }
	}

	go func() {
		defer cleanup()
		defer func() {
			if r := recover(); r != nil {
				log.Printf("PANIC in stream subscriber: %v\n%s", r, debug.Stack())
			}
		}()

		for {
			select {
			case <-subCtx.Done():
				return
			case _, ok := <-events:
				if !ok {
					return
				}
				snapshot, err := p.reloadSnapshot(subCtx)
				if err != nil {
					if subCtx.Err() != nil {
						return
					}
					// Recoverable: report and keep the subscription alive so
					// the next change event retries the reload.
					onError(models.NewStreamError(err))
					continue
				}
				select {
				case <-subCtx.Done():
					return
				default:
				}
				onSnapshot(snapshot)
			}
		}
	}()

	return cancel, nil
}

// reloadSnapshot reloads the full collection under a trace span so slow or
// failing reloads show up per snapshot, not buried in query traces.
func (p *CommentProvider) reloadSnapshot(ctx context.Context) ([]models.Comment, error) {
	span, ctx := observability.NewSpan(ctx, "stream.snapshot.reload")
	defer span.End()

	snapshot, err := p.List(ctx)
	if err != nil {
		span.SetError(err)
		return nil, err
	}
	span.AddAttributes(attribute.Int("snapshot.size", len(snapshot)))
	return snapshot, nil
}
