package scheduler

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hanbinChen97/find-the-company/internal/model"
)

// Enhance re-runs the executive search over the OK entries of a finished
// result table and returns the upgraded table with its snapshot stream.
// It follows the same rules as the primary run — one identifier at a time
// per worker, per-item error isolation, incremental merge — but is
// independent of the primary state machine: the input table is copied, the
// scheduler's own run state is untouched.
func (s *Scheduler) Enhance(ctx context.Context, table model.ResultTable) <-chan model.Snapshot {
	out := make(chan model.Snapshot, len(table)+3)
	go s.enhance(ctx, table.Clone(), out)
	return out
}

func (s *Scheduler) enhance(ctx context.Context, table model.ResultTable, out chan<- model.Snapshot) {
	defer close(out)

	var pending []int
	for i, entry := range table {
		if entry.Status == model.StatusOK {
			pending = append(pending, i)
		}
	}

	var mu sync.Mutex
	progress := model.ProgressState{Total: len(pending), Phase: model.PhaseRunning}

	emit := func() {
		mu.Lock()
		snap := model.Snapshot{Table: table.Clone(), Progress: progress}
		mu.Unlock()
		out <- snap
	}

	if len(pending) == 0 {
		progress.Phase = model.PhaseDone
		progress.Percent = 100
		emit()
		return
	}
	emit()

	zap.L().Info("scheduler: enhance pass started",
		zap.Int("entries", len(pending)),
		zap.Int("concurrency", s.concurrency),
	)

	next := 0
	pop := func() (int, bool) {
		mu.Lock()
		defer mu.Unlock()
		if ctx.Err() != nil || next == len(pending) {
			return 0, false
		}
		idx := pending[next]
		next++
		progress.Current = table[idx].Identifier.Name
		return idx, true
	}

	complete := func(idx int, rec model.PartialRecord, err error) {
		mu.Lock()
		defer mu.Unlock()
		entry := &table[idx]
		entry.Record.Merge(rec)
		if err != nil {
			entry.Status = model.StatusError
			entry.Err = shortReason(err)
		}
		progress.Completed++
		progress.Percent = progress.Completed * 100 / progress.Total
		if progress.Current == entry.Identifier.Name {
			progress.Current = ""
		}
	}

	g := new(errgroup.Group)
	for i := 0; i < s.concurrency; i++ {
		g.Go(func() error {
			for {
				idx, ok := pop()
				if !ok {
					return nil
				}
				func() {
					defer func() {
						if r := recover(); r != nil {
							complete(idx, model.PartialRecord{}, fmt.Errorf("internal error: %v", r))
						}
					}()
					rec, err := s.search.EnrichExecutives(ctx, table[idx].Identifier.Name, s.hint)
					complete(idx, rec, err)
				}()
				emit()
			}
		})
	}
	_ = g.Wait()

	mu.Lock()
	if progress.Completed == progress.Total {
		progress.Phase = model.PhaseDone
		progress.Percent = 100
	} else {
		progress.Phase = model.PhaseFailed
	}
	progress.Current = ""
	mu.Unlock()
	emit()
}
