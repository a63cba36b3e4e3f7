package scheduler

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hanbinChen97/find-the-company/internal/model"
)

func finishedTable() model.ResultTable {
	return model.ResultTable{
		{
			Identifier: model.Identifier{Index: 0, Name: "Acme"},
			Record:     model.PartialRecord{Homepage: "https://acme.example"},
			Status:     model.StatusOK,
		},
		{
			Identifier: model.Identifier{Index: 1, Name: "Globex"},
			Status:     model.StatusError,
			Err:        "answer api: simulated network error",
		},
		{
			Identifier: model.Identifier{Index: 2, Name: "Initech"},
			Record:     model.PartialRecord{Phone: "+1 555 0100"},
			Status:     model.StatusOK,
		},
	}
}

func TestEnhance_OnlyOKEntriesProcessed(t *testing.T) {
	search := &fakeSearch{execs: map[string]model.PartialRecord{
		"Acme": {CEO: "Jane Doe", Cofounders: []string{"Jane Doe", "John Roe"}},
	}}
	s := New(&fakeDetails{}, search, WithConcurrency(2))

	input := finishedTable()
	snaps := drain(t, s.Enhance(context.Background(), input))
	final := snaps[len(snaps)-1]

	assert.Equal(t, model.PhaseDone, final.Progress.Phase)
	assert.Equal(t, 2, final.Progress.Total, "error entries skipped")

	assert.Equal(t, "Jane Doe", final.Table[0].Record.CEO)
	assert.Equal(t, []string{"Jane Doe", "John Roe"}, final.Table[0].Record.Cofounders)
	assert.Equal(t, "https://acme.example", final.Table[0].Record.Homepage, "existing facts preserved")

	assert.Empty(t, final.Table[1].Record.CEO, "error entry untouched")
	assert.Equal(t, "Initech CEO", final.Table[2].Record.CEO)
}

func TestEnhance_InputTableNotMutated(t *testing.T) {
	s := New(&fakeDetails{}, &fakeSearch{}, WithConcurrency(1))

	input := finishedTable()
	drain(t, s.Enhance(context.Background(), input))

	assert.Empty(t, input[0].Record.CEO, "enhance works on a copy")
}

func TestEnhance_PerEntryFailureIsolated(t *testing.T) {
	search := &fakeSearch{failFor: map[string]bool{"Acme": true}}
	s := New(&fakeDetails{}, search, WithConcurrency(1))

	snaps := drain(t, s.Enhance(context.Background(), finishedTable()))
	final := snaps[len(snaps)-1]

	assert.Equal(t, model.PhaseDone, final.Progress.Phase)
	assert.Equal(t, model.StatusError, final.Table[0].Status)
	assert.Equal(t, "https://acme.example", final.Table[0].Record.Homepage, "facts kept despite failure")
	assert.Equal(t, model.StatusOK, final.Table[2].Status)
	assert.Equal(t, "Initech CEO", final.Table[2].Record.CEO)
}

func TestEnhance_EmptyTable(t *testing.T) {
	s := New(&fakeDetails{}, &fakeSearch{})

	snaps := drain(t, s.Enhance(context.Background(), model.ResultTable{}))
	final := snaps[len(snaps)-1]

	require.Equal(t, model.PhaseDone, final.Progress.Phase)
	assert.Equal(t, 100, final.Progress.Percent)
	assert.Zero(t, final.Progress.Total)
}
