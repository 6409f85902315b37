package index

import (
	"golang.org/x/sync/errgroup"

	"github.com/jmorganca/outlines-go/vocab"
)

// BuildAll builds one Index per pattern concurrently, the realization of
// "callers MAY build indexes concurrently on their own threads": callers
// with a batch of independent regexes (one per request in a batch-served
// workload, say) get the errgroup fan-out for free instead of writing their
// own worker pool.
//
// The returned slice preserves the order of patterns. If any build fails,
// BuildAll returns the first error encountered and no partial results.
func BuildAll(patterns []string, vocabulary *vocab.Vocabulary) ([]*Index, error) {
	out := make([]*Index, len(patterns))
	var g errgroup.Group
	for i, pattern := range patterns {
		i, pattern := i, pattern
		g.Go(func() error {
			idx, err := Build(pattern, vocabulary)
			if err != nil {
				return err
			}
			out[i] = idx
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
