package storage

import (
	"context"
	"errors"
)

// MultiSink fans every batch out to several sinks, in order. The first
// failing sink aborts the flush.
type MultiSink []Sink

func (m MultiSink) Flush(ctx context.Context, batch Batch) error {
	for _, s := range m {
		if err := s.Flush(ctx, batch); err != nil {
			return err
		}
	}
	return nil
}

// Close closes every sink and joins their errors.
func (m MultiSink) Close() error {
	var errs []error
	for _, s := range m {
		errs = append(errs, s.Close())
	}
	return errors.Join(errs...)
}

// MatchIDLister is implemented by sinks that can report the matches they
// already hold.
type MatchIDLister interface {
	MatchIDs(ctx context.Context) ([]string, error)
}

// MatchIDs merges the stored match IDs of every sink that can list them,
// keeping first-seen order.
func (m MultiSink) MatchIDs(ctx context.Context) ([]string, error) {
	seen := make(map[string]bool)
	var ids []string
	for _, s := range m {
		lister, ok := s.(MatchIDLister)
		if !ok {
			continue
		}
		got, err := lister.MatchIDs(ctx)
		if err != nil {
			return nil, err
		}
		for _, id := range got {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	return ids, nil
}
