package invlocale

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// memoReadLimit caps concurrent memo reads within one translation.
const memoReadLimit = 16

// LookupMemo resolves nodes against the memo, reading the entry keyFor
// returns for each text hash. It returns the memoized translations keyed by
// text hash and the distinct misses in input order. Once there are parallelFrom distinct strings (and parallelFrom > 0)
// the reads run concurrently; a nil memo makes every node a miss.
func LookupMemo(ctx context.Context, memo TranslationCache, nodes []TextNode, keyFor func(hash string) string, parallelFrom int) (map[string]string, []TextNode) {
	distinct := make([]TextNode, 0, len(nodes))
	seen := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		if !seen[n.Hash] {
			seen[n.Hash] = true
			distinct = append(distinct, n)
		}
	}

	values := make([]string, len(distinct))
	hits := make([]bool, len(distinct))
	read := func(i int) {
		values[i], hits[i] = memo.Get(ctx, keyFor(distinct[i].Hash))
	}

	switch {
	case memo == nil:
	case parallelFrom > 0 && len(distinct) >= parallelFrom:
		var g errgroup.Group
		g.SetLimit(memoReadLimit)
		for i := range distinct {
			g.Go(func() error {
				read(i)
				return nil
			})
		}
		_ = g.Wait()
	default:
		for i := range distinct {
			read(i)
		}
	}

	translations := make(map[string]string, len(distinct))
	var misses []TextNode
	for i, n := range distinct {
		if hits[i] {
			translations[n.Hash] = values[i]
		} else {
			misses = append(misses, n)
		}
	}
	return translations, misses
}
