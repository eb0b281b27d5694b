package generate

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/fintelia/terra/internal/layer"
	"github.com/fintelia/terra/internal/tilestore"
	"github.com/fintelia/terra/internal/vnode"
)

// TileFunc produces one tile's bytes. Returning an ErrTooFine skip error
// tells RunLayer the node should be downgraded out
// of MissingBase without ever becoming Base — the generator has decided
// this node doesn't need its own tile.
type TileFunc func(ctx context.Context, node vnode.VNode) (data []byte, err error)

// ProgressFunc is called after each tile completes (successfully or
// skipped; a failure ends the run without a call) with the running count and the total for this
// layer's backlog. It may be called concurrently from multiple workers.
type ProgressFunc func(done, total int)

// RunLayer drains a tile store's MissingBase backlog for one layer: it
// fetches the list of missing nodes, orders them for locality, and runs
// generate over them with a bounded worker pool, writing each result back
// to the store as a Base tile. Mirrors the teacher's per-level job-channel
// worker pool, generalized from "one goroutine pool per zoom level" to
// "one goroutine pool per layer's backlog" and using errgroup instead of a
// hand-rolled WaitGroup + error channel.
func RunLayer(ctx context.Context, store *tilestore.Store, layerType layer.Type, concurrency int, generate TileFunc, progress ProgressFunc) error {
	missing, err := store.GetMissingBase(layerType)
	if err != nil {
		return fmt.Errorf("generate: listing missing %s tiles: %w", layerType, err)
	}
	if len(missing) == 0 {
		return nil
	}
	SortByLocality(missing)

	if concurrency < 1 {
		concurrency = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	total := len(missing)
	var done atomic.Int64

	for _, node := range missing {
		node := node
		g.Go(func() error {
			data, err := generate(gctx, node)

			var tooFine ErrTooFine
			if errors.As(err, &tooFine) {
				if _, rerr := store.ReloadTileState(layerType, node, false); rerr != nil {
					return fmt.Errorf("generate: downgrading skipped %s tile %v: %w", layerType, node, rerr)
				}
			} else if err != nil {
				return fmt.Errorf("generate: generating %s tile %v: %w", layerType, node, err)
			} else if err := store.WriteTile(layerType, node, data, true); err != nil {
				return fmt.Errorf("generate: writing %s tile %v: %w", layerType, node, err)
			}

			if progress != nil {
				progress(int(done.Add(1)), total)
			}
			return nil
		})
	}

	return g.Wait()
}
