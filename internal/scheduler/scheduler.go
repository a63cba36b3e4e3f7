// Package scheduler owns the bounded-concurrency enrichment run: the work
// queue, the shared result table, progress accounting, and the snapshot
// stream observers consume. It dispatches to the detail fetcher and the
// search enricher without knowing their internals.
package scheduler

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hanbinChen97/find-the-company/internal/model"
)

// Mode selects which enrichment stages a run dispatches.
type Mode string

const (
	// ModeDirectory fetches each identifier's directory profile page.
	ModeDirectory Mode = "directory"
	// ModeSearch queries the answer API for each identifier.
	ModeSearch Mode = "search"
	// ModeFull runs the directory stage and then the search stage per
	// identifier, merging partial records in arrival order.
	ModeFull Mode = "full"
)

// errNoProfileURL marks directory-mode identifiers that never came from a
// listing and so have nothing to fetch.
var errNoProfileURL = eris.New("no directory profile url for identifier")

// DetailFetcher is the directory profile collaborator. It never fails;
// a dead profile yields an empty record.
type DetailFetcher interface {
	FetchDetails(ctx context.Context, profileURL string) model.PartialRecord
}

// SearchEnricher is the answer-API collaborator.
type SearchEnricher interface {
	Enrich(ctx context.Context, companyName string, hint *model.LocationHint) (model.PartialRecord, error)
	EnrichExecutives(ctx context.Context, companyName string, hint *model.LocationHint) (model.PartialRecord, error)
}

// Scheduler coordinates one enrichment batch at a time. All shared state
// (queue, table, progress) is guarded by mu; workers only touch it through
// pop and complete.
type Scheduler struct {
	details     DetailFetcher
	search      SearchEnricher
	concurrency int
	hint        *model.LocationHint

	mu       sync.Mutex
	queue    []model.Identifier
	table    model.ResultTable
	progress model.ProgressState
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithConcurrency overrides the worker budget.
func WithConcurrency(n int) Option {
	return func(s *Scheduler) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithLocationHint passes a location hint to every search-stage call.
func WithLocationHint(hint *model.LocationHint) Option {
	return func(s *Scheduler) { s.hint = hint }
}

// DefaultConcurrency is the worker budget when none is configured.
func DefaultConcurrency() int {
	return min(4, runtime.GOMAXPROCS(0))
}

// New creates a Scheduler over the two enrichment collaborators.
func New(details DetailFetcher, search SearchEnricher, opts ...Option) *Scheduler {
	s := &Scheduler{
		details:     details,
		search:      search,
		concurrency: DefaultConcurrency(),
		progress:    model.ProgressState{Phase: model.PhaseIdle},
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Run starts a batch over identifiers and returns the snapshot stream.
// One snapshot is published when validation starts, one when dispatch
// starts, one after every entry completes, and a terminal one when the
// phase reaches Done or Failed; the channel closes after the terminal
// snapshot. The channel is buffered for the whole run so slow observers
// never block workers.
func (s *Scheduler) Run(ctx context.Context, identifiers []model.Identifier, mode Mode) <-chan model.Snapshot {
	out := make(chan model.Snapshot, len(identifiers)+4)
	go s.run(ctx, identifiers, mode, out)
	return out
}

func (s *Scheduler) run(ctx context.Context, identifiers []model.Identifier, mode Mode, out chan<- model.Snapshot) {
	defer close(out)

	// Defensive catch-all: a panic outside a worker's per-item scope is a
	// scheduler bug, reported as a failed run rather than a crash.
	defer func() {
		if r := recover(); r != nil {
			zap.L().Error("scheduler: unexpected panic", zap.Any("panic", r))
			s.setPhase(model.PhaseFailed)
			s.publish(out)
		}
	}()

	log := zap.L().With(zap.String("mode", string(mode)))

	// Validating: keep identifiers with a non-empty trimmed name,
	// re-indexed to their result slots.
	s.setPhase(model.PhaseValidating)
	s.publish(out)
	valid := make([]model.Identifier, 0, len(identifiers))
	for _, id := range identifiers {
		if strings.TrimSpace(id.Name) == "" {
			continue
		}
		id.Index = len(valid)
		valid = append(valid, id)
	}
	if len(valid) == 0 {
		log.Warn("scheduler: no valid identifiers, failing run")
		s.mu.Lock()
		s.table = nil
		s.progress = model.ProgressState{Phase: model.PhaseFailed}
		s.mu.Unlock()
		s.publish(out)
		return
	}

	// Running: allocate one placeholder entry per identifier up front so
	// the table is fully shaped before the first completion.
	s.mu.Lock()
	s.queue = append([]model.Identifier(nil), valid...)
	s.table = make(model.ResultTable, len(valid))
	for i, id := range valid {
		s.table[i] = model.ResultEntry{Identifier: id, Status: model.StatusOK}
	}
	s.progress = model.ProgressState{Total: len(valid), Phase: model.PhaseRunning}
	s.mu.Unlock()
	s.publish(out)

	log.Info("scheduler: run started",
		zap.Int("identifiers", len(valid)),
		zap.Int("concurrency", s.concurrency),
	)

	g := new(errgroup.Group)
	for i := 0; i < s.concurrency; i++ {
		g.Go(func() error {
			for {
				id, ok := s.pop(ctx)
				if !ok {
					return nil
				}
				s.process(ctx, id, mode)
				s.publish(out)
			}
		})
	}
	_ = g.Wait()

	s.mu.Lock()
	cancelled := s.progress.Completed < s.progress.Total
	if cancelled {
		s.progress.Phase = model.PhaseFailed
	} else {
		s.progress.Phase = model.PhaseDone
		s.progress.Percent = 100
	}
	s.progress.Current = ""
	s.mu.Unlock()
	s.publish(out)

	log.Info("scheduler: run finished",
		zap.Bool("cancelled", cancelled),
		zap.Int("completed", s.Progress().Completed),
	)
}

// setPhase transitions the lifecycle phase.
func (s *Scheduler) setPhase(p model.Phase) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.progress.Phase = p
}

// pop atomically takes the next queued identifier. It is the single point
// of contention; no two workers can receive the same identifier. A
// cancelled context stops dispatch immediately while in-flight items
// finish on their own.
func (s *Scheduler) pop(ctx context.Context) (model.Identifier, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ctx.Err() != nil || len(s.queue) == 0 {
		return model.Identifier{}, false
	}
	id := s.queue[0]
	s.queue = s.queue[1:]
	s.progress.Current = id.Name
	return id, true
}

// process runs the mode's stages for one identifier. Failures stay inside
// this scope: they mark the one entry and never disturb siblings.
func (s *Scheduler) process(ctx context.Context, id model.Identifier, mode Mode) {
	defer func() {
		if r := recover(); r != nil {
			zap.L().Error("scheduler: worker panic",
				zap.String("company", id.Name),
				zap.Any("panic", r),
			)
			s.complete(id, model.PartialRecord{}, fmt.Errorf("internal error: %v", r))
		}
	}()

	var rec model.PartialRecord
	var err error

	if mode == ModeDirectory && id.SourceURL == "" {
		s.complete(id, rec, errNoProfileURL)
		return
	}
	if (mode == ModeDirectory || mode == ModeFull) && id.SourceURL != "" {
		rec.Merge(s.details.FetchDetails(ctx, id.SourceURL))
	}
	if mode == ModeSearch || mode == ModeFull {
		var searched model.PartialRecord
		searched, err = s.search.Enrich(ctx, id.Name, s.hint)
		if err == nil {
			rec.Merge(searched)
		}
	}

	s.complete(id, rec, err)
}

// complete merges one identifier's outcome into its pre-assigned slot and
// advances progress. Table write and counter increment happen under the
// same lock so observers never see a torn state.
func (s *Scheduler) complete(id model.Identifier, rec model.PartialRecord, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := &s.table[id.Index]
	entry.Record.Merge(rec)
	if err != nil {
		entry.Status = model.StatusError
		entry.Err = shortReason(err)
	}

	s.progress.Completed++
	s.progress.Percent = s.progress.Completed * 100 / s.progress.Total
	if s.progress.Current == id.Name {
		s.progress.Current = ""
	}
}

// publish sends a consistent snapshot of table and progress.
func (s *Scheduler) publish(out chan<- model.Snapshot) {
	s.mu.Lock()
	snap := model.Snapshot{Table: s.table.Clone(), Progress: s.progress}
	s.mu.Unlock()
	out <- snap
}

// Progress returns the current progress state.
func (s *Scheduler) Progress() model.ProgressState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.progress
}

// Table returns a snapshot of the current result table.
func (s *Scheduler) Table() model.ResultTable {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.table.Clone()
}

// shortReason compresses an error chain into the short human-readable form
// shown inline next to the affected row.
func shortReason(err error) string {
	msg := err.Error()
	if i := strings.IndexByte(msg, '\n'); i >= 0 {
		msg = msg[:i]
	}
	if len(msg) > 200 {
		msg = msg[:200]
	}
	return msg
}
