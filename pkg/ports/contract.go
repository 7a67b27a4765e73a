package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/breadboard/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunCircuitStoreContract verifies that a CircuitStore implementation
// honors the interface contract.
func RunCircuitStoreContract(t *testing.T, store CircuitStore) {
	ctx := context.Background()
	name := "contract-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		doc := []byte("e0y1J011")
		require.NoError(t, store.Save(ctx, name, doc))

		loaded, err := store.Load(ctx, name)
		require.NoError(t, err)
		assert.Equal(t, doc, loaded)

		loaded[0] = 'X'
		again, err := store.Load(ctx, name)
		require.NoError(t, err)
		assert.Equal(t, doc, again, "callers cannot mutate stored documents")
	})

	t.Run("Overwrite", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, name, []byte("first")))
		require.NoError(t, store.Save(ctx, name, []byte("second")))
		loaded, err := store.Load(ctx, name)
		require.NoError(t, err)
		assert.Equal(t, "second", string(loaded))
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "missing-"+name)
		assert.ErrorIs(t, err, domain.ErrCircuitNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, name, []byte("doc")))
		require.NoError(t, store.Delete(ctx, name))

		_, err := store.Load(ctx, name)
		assert.ErrorIs(t, err, domain.ErrCircuitNotFound)
		assert.NoError(t, store.Delete(ctx, name), "deleting twice is fine")
	})

	t.Run("List", func(t *testing.T) {
		id1, id2 := name+"-1", name+"-2"
		require.NoError(t, store.Save(ctx, id1, []byte("one")))
		require.NoError(t, store.Save(ctx, id2, []byte("two")))
		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		names, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, names, id1)
		assert.Contains(t, names, id2)
		assert.NotContains(t, names, name)
	})
}
