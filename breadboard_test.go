package breadboard_test

import (
	"context"
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/breadboard"
	"github.com/aretw0/breadboard/internal/config"
	"github.com/aretw0/breadboard/pkg/domain"
	"github.com/aretw0/breadboard/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildXOR places two buttons feeding an XOR gate and a lamp, and returns the
// exported document.
func buildXOR(t *testing.T, sim *breadboard.Simulator) []byte {
	t.Helper()
	ctx := context.Background()
	_, err := sim.Sessions.Open(ctx, "xor")
	require.NoError(t, err)

	place := func(kind string, x, y float64) string {
		c, err := sim.Sessions.Place(ctx, "xor", kind, domain.Position{X: x, Y: y})
		require.NoError(t, err)
		return c.ID
	}
	a := place(registry.KindButton, 0, 0)
	b := place(registry.KindButton, 0, 60)
	gate := place(registry.KindXOR, 100, 30)
	lamp := place(registry.KindLamp, 200, 30)
	for _, w := range [][3]any{{a, gate, 0}, {b, gate, 1}, {gate, lamp, 0}} {
		_, err := sim.Sessions.Connect(ctx, "xor", w[0].(string), 0, w[1].(string), w[2].(int), "")
		require.NoError(t, err)
	}
	data, err := sim.Sessions.Export(ctx, "xor")
	require.NoError(t, err)
	return data
}

func TestTruthTableFile(t *testing.T) {
	cfg := config.Default()
	cfg.Store.Backend = config.BackendMemory
	sim, err := breadboard.New(cfg, breadboard.WithMetrics())
	require.NoError(t, err)
	defer sim.Close()

	path := filepath.Join(t.TempDir(), "xor.lmccircuit")
	require.NoError(t, os.WriteFile(path, buildXOR(t, sim), 0644))

	table, err := sim.TruthTableFile(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, table.Slots, 4)
	for i, want := range []bool{false, true, true, false} {
		assert.Equal(t, want, table.Slots[i].Outputs[0].State, "slot %d", i)
	}

	_, err = sim.TruthTableFile(context.Background(), filepath.Join(t.TempDir(), "missing.lmccircuit"))
	assert.Error(t, err)
}

func TestFileBackendPersists(t *testing.T) {
	cfg := config.Default()
	cfg.Store.Dir = t.TempDir()

	sim, err := breadboard.New(cfg)
	require.NoError(t, err)
	buildXOR(t, sim)
	require.NoError(t, sim.Close())

	again, err := breadboard.New(cfg)
	require.NoError(t, err)
	defer again.Close()
	snap, err := again.Sessions.Snapshot(context.Background(), "xor")
	require.NoError(t, err)
	assert.Len(t, snap.Components, 4)
	assert.Len(t, snap.Connections, 3)
}

func TestEncryptedStore(t *testing.T) {
	cfg := config.Default()
	cfg.Store.Dir = t.TempDir()
	cfg.Store.Encryption.Key = base64.StdEncoding.EncodeToString(make([]byte, 32))

	sim, err := breadboard.New(cfg)
	require.NoError(t, err)
	buildXOR(t, sim)
	require.NoError(t, sim.Close())

	raw, err := os.ReadFile(filepath.Join(cfg.Store.Dir, "xor.lmccircuit"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(raw), "sealed:v1:"))

	again, err := breadboard.New(cfg)
	require.NoError(t, err)
	defer again.Close()
	snap, err := again.Sessions.Snapshot(context.Background(), "xor")
	require.NoError(t, err)
	assert.Len(t, snap.Components, 4)

	cfg.Store.Encryption.Key = "c2hvcnQ="
	_, err = breadboard.New(cfg)
	assert.Error(t, err)
}

func TestRedisBackend(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := config.Default()
	cfg.Store.Backend = config.BackendRedis
	cfg.Store.Redis.Addr = mr.Addr()

	sim, err := breadboard.New(cfg)
	require.NoError(t, err)
	defer sim.Close()
	buildXOR(t, sim)

	ids, err := sim.Sessions.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"xor"}, ids)
	assert.True(t, mr.Exists(cfg.Store.Redis.Prefix+"xor"))
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Engine.MaxPasses = 0
	_, err := breadboard.New(cfg)
	assert.Error(t, err)
}
