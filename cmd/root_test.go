package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hanbinChen97/find-the-company/internal/config"
	"github.com/hanbinChen97/find-the-company/internal/model"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	cmds := rootCmd.Commands()

	// Collect subcommand names.
	names := make(map[string]bool)
	for _, c := range cmds {
		names[c.Name()] = true
	}

	expected := []string{"list", "enrich", "enhance", "serve"}
	for _, name := range expected {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "find-the-company", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestEnrichCommand_Flags(t *testing.T) {
	for _, name := range []string{"names", "csv", "from-directory", "limit", "concurrency", "executives", "out", "format"} {
		require.NotNil(t, enrichCmd.Flags().Lookup(name), "enrich command should have --%s flag", name)
	}
	assert.Equal(t, "25", enrichCmd.Flags().Lookup("limit").DefValue)
}

func TestServeCommand_Flags(t *testing.T) {
	flag := serveCmd.Flags().Lookup("port")
	require.NotNil(t, flag, "serve command should have --port flag")
	assert.Equal(t, "0", flag.DefValue)
}

func TestReadNames_PlainFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "names.txt")
	require.NoError(t, os.WriteFile(path, []byte("Acme GmbH\n\n  Globex  \n"), 0o644))

	names, err := readNames(path, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"Acme GmbH", "", "Globex"}, names)
}

func TestReadNames_CSVSkipsHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "names.csv")
	require.NoError(t, os.WriteFile(path, []byte("Name,Country\nAcme GmbH,Germany\nGlobex,France\n"), 0o644))

	names, err := readNames(path, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"Acme GmbH", "Globex"}, names)
}

func TestReadNames_CSVQuotedCommaName(t *testing.T) {
	path := filepath.Join(t.TempDir(), "names.csv")
	csv := "Name,Country\n\"Acme, Inc.\",USA\n\"Globex \"\"G\"\" Corp\",France\n"
	require.NoError(t, os.WriteFile(path, []byte(csv), 0o644))

	names, err := readNames(path, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"Acme, Inc.", `Globex "G" Corp`}, names)
}

func TestReadNames_MissingFile(t *testing.T) {
	_, err := readNames(filepath.Join(t.TempDir(), "missing.txt"), false)
	assert.Error(t, err)
}

func TestEnrichInput_RequiresOneSource(t *testing.T) {
	enrichNames, enrichCSV, enrichFromDirectory = "", "", false
	t.Cleanup(func() { enrichNames, enrichCSV, enrichFromDirectory = "", "", false })

	_, _, err := enrichInput(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exactly one of")

	enrichNames = "a.txt"
	enrichCSV = "b.csv"
	_, _, err = enrichInput(context.Background())
	assert.Error(t, err)
}

func TestDrain(t *testing.T) {
	snaps := make(chan model.Snapshot, 3)
	snaps <- model.Snapshot{Progress: model.ProgressState{Total: 2, Phase: model.PhaseRunning}}
	snaps <- model.Snapshot{Progress: model.ProgressState{Completed: 1, Total: 2, Percent: 50, Phase: model.PhaseRunning}}
	snaps <- model.Snapshot{
		Table:    model.ResultTable{{Identifier: model.Identifier{Name: "Acme"}, Status: model.StatusOK}},
		Progress: model.ProgressState{Completed: 2, Total: 2, Percent: 100, Phase: model.PhaseDone},
	}
	close(snaps)

	table, phase := drain(snaps)
	assert.Equal(t, model.PhaseDone, phase)
	require.Len(t, table, 1)
	assert.Equal(t, "Acme", table[0].Identifier.Name)
}

func TestSaveTable_UnknownFormat(t *testing.T) {
	cfg = &config.Config{}
	cfg.Export.Path = filepath.Join(t.TempDir(), "out.csv")

	err := saveTable(model.ResultTable{}, "", "pdf")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown export format")
}

func TestSaveTable_CSVDefaultPath(t *testing.T) {
	cfg = &config.Config{}
	out := filepath.Join(t.TempDir(), "out.csv")
	cfg.Export.Path = out
	cfg.Export.Format = "csv"

	table := model.ResultTable{{Identifier: model.Identifier{Name: "Acme"}, Status: model.StatusOK}}
	require.NoError(t, saveTable(table, "", ""))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Acme")
}
