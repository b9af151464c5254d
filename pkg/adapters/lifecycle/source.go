// Package lifecycle exposes repository watch streams as lifecycle sources.
package lifecycle

import (
	"context"
	"sync"

	"github.com/aretw0/lifecycle"

	"github.com/aretw0/jdoc/pkg/core"
)

// Source forwards the events of a repository watch channel as
// lifecycle.Event values. It is started at most once.
type Source struct {
	in    <-chan core.Event
	out   chan lifecycle.Event
	types map[core.EventType]bool
	once  sync.Once
}

// SourceOption configures a Source.
type SourceOption func(*Source)

// OnlyTypes keeps just the given event types.
func OnlyTypes(types ...core.EventType) SourceOption {
	return func(s *Source) {
		s.types = make(map[core.EventType]bool, len(types))
		for _, t := range types {
			s.types[t] = true
		}
	}
}

// NewSource wraps the channel returned by core.Watchable.Watch.
func NewSource(events <-chan core.Event, opts ...SourceOption) *Source {
	s := &Source{in: events, out: make(chan lifecycle.Event)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Events implements lifecycle.Source. The channel closes when the input
// closes or the start context ends.
func (s *Source) Events() <-chan lifecycle.Event {
	return s.out
}

// Start implements lifecycle.Source.
func (s *Source) Start(ctx context.Context) error {
	s.once.Do(func() {
		lifecycle.Go(ctx, s.forward)
	})
	return nil
}

func (s *Source) forward(ctx context.Context) error {
	defer close(s.out)
	for {
		select {
		case <-ctx.Done():
			return nil
		case e, ok := <-s.in:
			if !ok {
				return nil
			}
			if s.types != nil && !s.types[e.Type] {
				continue
			}
			select {
			case s.out <- e:
			case <-ctx.Done():
				return nil
			}
		}
	}
}

var _ lifecycle.Source = (*Source)(nil)
