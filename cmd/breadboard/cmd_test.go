package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/breadboard"
	"github.com/aretw0/breadboard/internal/config"
	"github.com/aretw0/breadboard/pkg/domain"
	"github.com/aretw0/breadboard/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.Execute())
	return out.String()
}

// notCircuit writes a document holding a button wired to a NOT gate and a lamp.
func notCircuit(t *testing.T) string {
	t.Helper()
	cfg := config.Default()
	cfg.Store.Backend = config.BackendMemory
	sim, err := breadboard.New(cfg)
	require.NoError(t, err)
	defer sim.Close()

	ctx := context.Background()
	_, err = sim.Sessions.Open(ctx, "c")
	require.NoError(t, err)
	btn, err := sim.Sessions.Place(ctx, "c", registry.KindButton, domain.Position{})
	require.NoError(t, err)
	not, err := sim.Sessions.Place(ctx, "c", registry.KindNOT, domain.Position{X: 80})
	require.NoError(t, err)
	lamp, err := sim.Sessions.Place(ctx, "c", registry.KindLamp, domain.Position{X: 160})
	require.NoError(t, err)
	_, err = sim.Sessions.Connect(ctx, "c", btn.ID, 0, not.ID, 0, "")
	require.NoError(t, err)
	_, err = sim.Sessions.Connect(ctx, "c", not.ID, 0, lamp.ID, 0, "")
	require.NoError(t, err)

	data, err := sim.Sessions.Export(ctx, "c")
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "not.lmccircuit")
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

func TestTableCommand(t *testing.T) {
	path := notCircuit(t)
	cfgPath := filepath.Join(t.TempDir(), "none.yaml")

	out := run(t, "table", path, "--config", cfgPath)
	assert.Contains(t, out, "| T | Button | Lamp |")
	assert.Contains(t, out, "| 0 | 0 | 1 |")
	assert.Contains(t, out, "| 1 | 1 | 0 |")

	out = run(t, "table", path, "--chronogram", "--config", cfgPath)
	assert.Contains(t, out, "Button 01")
	assert.Contains(t, out, "Lamp   10")
}

func TestInspectCommand(t *testing.T) {
	out := run(t, "inspect", notCircuit(t), "--config", filepath.Join(t.TempDir(), "none.yaml"))
	assert.Contains(t, out, `"type": "NOT"`)
}

func TestInspectMermaid(t *testing.T) {
	t.Cleanup(func() { _ = inspectCmd.Flags().Set("mermaid", "false") })
	out := run(t, "inspect", notCircuit(t), "--mermaid", "--config", filepath.Join(t.TempDir(), "none.yaml"))
	assert.Contains(t, out, "graph LR")
	assert.Contains(t, out, `(["Button"])`)
	assert.Contains(t, out, `(("Lamp"))`)
}

func TestKindsAndVersion(t *testing.T) {
	out := run(t, "kinds")
	assert.Contains(t, out, registry.KindMatrix8x8)
	assert.Contains(t, out, "toggle")

	out = run(t, "version")
	assert.Contains(t, out, "breadboard version "+breadboard.Version)
}
