package model

import (
	"strings"

	"golang.org/x/text/cases"
)

// Identifier is one unit of work: an ordinal result slot plus the company
// display name and an optional directory profile URL. Immutable once built.
type Identifier struct {
	Index     int    `json:"index"`
	Name      string `json:"name"`
	SourceURL string `json:"source_url,omitempty"`
}

// EntryStatus marks the outcome of one identifier's enrichment.
type EntryStatus string

const (
	StatusOK    EntryStatus = "ok"
	StatusError EntryStatus = "error"
)

// ResultEntry is the per-identifier outcome. Exactly one exists per
// identifier from the moment the run starts; stages overwrite it in place.
type ResultEntry struct {
	Identifier Identifier    `json:"identifier"`
	Record     PartialRecord `json:"record"`
	Status     EntryStatus   `json:"status"`
	Err        string        `json:"error,omitempty"`
}

// ResultTable is the full ordered batch outcome, index-aligned with the
// input identifier sequence.
type ResultTable []ResultEntry

// Clone returns a deep copy for observers.
func (t ResultTable) Clone() ResultTable {
	out := make(ResultTable, len(t))
	for i, e := range t {
		e.Record = e.Record.Clone()
		out[i] = e
	}
	return out
}

// Phase is the scheduler's lifecycle state.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseValidating Phase = "validating"
	PhaseRunning    Phase = "running"
	PhaseDone       Phase = "done"
	PhaseFailed     Phase = "failed"
)

// Terminal reports whether the phase ends a run.
func (p Phase) Terminal() bool {
	return p == PhaseDone || p == PhaseFailed
}

// ProgressState tracks aggregate batch progress. Owned and mutated only by
// the scheduler; observers receive copies.
type ProgressState struct {
	Completed int    `json:"completed"`
	Total     int    `json:"total"`
	Percent   int    `json:"percent"`
	Current   string `json:"current,omitempty"`
	Phase     Phase  `json:"phase"`
}

// Snapshot pairs a result table copy with the progress at the time it was
// taken. The scheduler publishes one after every entry completion.
type Snapshot struct {
	Table    ResultTable   `json:"table"`
	Progress ProgressState `json:"progress"`
}

// NewIdentifiers builds the identifier sequence for a run: blank names are
// dropped, duplicates collapse case-insensitively (Unicode case folding)
// with the first occurrence keeping its casing and position.
func NewIdentifiers(names []string) []Identifier {
	fold := cases.Fold()
	seen := make(map[string]struct{}, len(names))
	out := make([]Identifier, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		key := fold.String(name)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, Identifier{Index: len(out), Name: name})
	}
	return out
}

// IdentifiersFromEntries builds identifiers from directory listing entries,
// keeping the profile URL alongside each name. Dedup follows the same
// case-folded first-wins rule as NewIdentifiers.
func IdentifiersFromEntries(entries []DirectoryEntry) []Identifier {
	fold := cases.Fold()
	seen := make(map[string]struct{}, len(entries))
	out := make([]Identifier, 0, len(entries))
	for _, e := range entries {
		name := strings.TrimSpace(e.Name)
		if name == "" {
			continue
		}
		key := fold.String(name)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, Identifier{Index: len(out), Name: name, SourceURL: e.ProfileURL})
	}
	return out
}

// DirectoryEntry is one row of the directory listing.
type DirectoryEntry struct {
	Name       string `json:"name"`
	ProfileURL string `json:"profile_url"`
}

// LocationHint narrows a search-API query to a known country or city.
type LocationHint struct {
	Country string `json:"country,omitempty"`
	City    string `json:"city,omitempty"`
}
