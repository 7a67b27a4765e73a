package codec_test

import (
	"encoding/base64"
	"fmt"
	"strings"
	"testing"

	"github.com/aretw0/breadboard/pkg/circuit"
	"github.com/aretw0/breadboard/pkg/codec"
	"github.com/aretw0/breadboard/pkg/domain"
	"github.com/aretw0/breadboard/pkg/logic"
	"github.com/aretw0/breadboard/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// wrap builds a document the way the file format expects it.
func wrap(json string) []byte {
	text := base64.StdEncoding.EncodeToString([]byte(json))
	var b strings.Builder
	for i := 0; i < len(text); i++ {
		b.WriteByte(text[i])
		if i%2 == 0 {
			b.WriteByte('0')
		} else {
			b.WriteByte('1')
		}
	}
	return []byte(b.String())
}

func seqIDs(prefix string) codec.Option {
	n := 0
	return codec.WithIDGenerator(func() string {
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	})
}

func sampleGraph(t *testing.T, reg *registry.Registry) *circuit.Graph {
	t.Helper()
	g := circuit.New()
	lookup := func(name string) *domain.Kind {
		k, err := reg.Lookup(name)
		require.NoError(t, err)
		return k
	}
	btn, err := g.AddComponent(lookup(registry.KindButton), domain.Position{X: 10, Y: 20})
	require.NoError(t, err)
	kb, err := g.AddComponent(lookup(registry.KindKeyboard), domain.Position{X: 10, Y: 80})
	require.NoError(t, err)
	and, err := g.AddComponent(lookup(registry.KindAND), domain.Position{X: 100, Y: 50})
	require.NoError(t, err)
	lamp, err := g.AddComponent(lookup(registry.KindLamp), domain.Position{X: 200, Y: 50})
	require.NoError(t, err)
	btn.State = domain.High

	_, err = g.AddConnection(btn.ID, 0, and.ID, 0, domain.StyleElbow)
	require.NoError(t, err)
	_, err = g.AddConnection(kb.ID, 0, and.ID, 1, "")
	require.NoError(t, err)
	_, err = g.AddConnection(and.ID, 0, lamp.ID, 0, domain.StyleStraight)
	require.NoError(t, err)
	return g
}

func TestEnvelope(t *testing.T) {
	g := circuit.New()
	data, err := codec.Encode(g)
	require.NoError(t, err)
	require.Zero(t, len(data)%2)
	for i := 1; i < len(data); i += 2 {
		want := byte('0')
		if (i/2)%2 == 1 {
			want = '1'
		}
		require.Equal(t, want, data[i], "filler at %d", i)
	}

	doc, err := codec.Unwrap(data)
	require.NoError(t, err)
	assert.Empty(t, doc.Components)
	assert.Empty(t, doc.Connections)
}

func TestRoundTrip(t *testing.T) {
	reg := registry.NewRegistry()
	g := sampleGraph(t, reg)

	data, err := codec.Encode(g)
	require.NoError(t, err)

	frag, err := codec.Decode(data, reg, seqIDs("new"))
	require.NoError(t, err)
	assert.Empty(t, frag.Warnings)
	assert.Empty(t, frag.Kinds)
	require.Len(t, frag.Components, 4)
	require.Len(t, frag.Connections, 3)

	orig := g.Components()
	for i, c := range frag.Components {
		assert.Equal(t, fmt.Sprintf("new-%d", i+1), c.ID, "ids are remapped in order")
		assert.Same(t, orig[i].Kind, c.Kind)
		assert.Equal(t, orig[i].X+codec.ImportOffset, c.X)
		assert.Equal(t, orig[i].Y+codec.ImportOffset, c.Y)
		assert.Equal(t, orig[i].State, c.State)
		assert.Equal(t, orig[i].Key, c.Key)
	}

	byID := map[string]int{}
	for i, c := range frag.Components {
		byID[c.ID] = i
	}
	origConns := g.Connections()
	origIdx := map[string]int{}
	for i, c := range orig {
		origIdx[c.ID] = i
	}
	for i, conn := range frag.Connections {
		assert.Equal(t, origIdx[origConns[i].From], byID[conn.From])
		assert.Equal(t, origIdx[origConns[i].To], byID[conn.To])
		assert.Equal(t, origConns[i].ToInput, conn.ToInput)
		assert.Equal(t, origConns[i].Style, conn.Style)
	}

	// Importing twice into the same graph must not collide.
	require.NoError(t, g.Merge(frag.Components, frag.Connections))
	again, err := codec.Decode(data, reg)
	require.NoError(t, err)
	require.NoError(t, g.Merge(again.Components, again.Connections))
	assert.Equal(t, 12, g.Len())
}

func TestCustomBlockTravelsWithDocument(t *testing.T) {
	reg := registry.NewRegistry()
	prog, err := logic.ParseProgram("a ^ b; a & b", 2, 2)
	require.NoError(t, err)
	adder, err := reg.RegisterBlock("Half Adder", 2, 2, prog)
	require.NoError(t, err)

	g := circuit.New()
	_, err = g.AddComponent(adder, domain.Position{})
	require.NoError(t, err)
	_, err = g.AddComponent(adder, domain.Position{X: 50})
	require.NoError(t, err)
	data, err := codec.Encode(g)
	require.NoError(t, err)

	// A fresh registry has never heard of the block.
	fresh := registry.NewRegistry()
	frag, err := codec.Decode(data, fresh)
	require.NoError(t, err)
	require.Len(t, frag.Kinds, 1, "one kind for both instances")
	k := frag.Kinds[0]
	assert.Equal(t, "Half Adder", k.Name)
	assert.Same(t, k, frag.Components[0].Kind)
	assert.Same(t, k, frag.Components[1].Kind)
	assert.Equal(t, []bool{false, true}, k.Evaluate([]bool{true, true}))
	assert.Equal(t, []bool{true, false}, k.Evaluate([]bool{false, true}))
}

func TestDecodeLegacyDocument(t *testing.T) {
	doc := `{
		"components": [
			{"id": "b1", "type": "Button", "x": 0, "y": 0, "inputs": 0, "outputs": 1},
			{"id": "s1", "type": "7 Segment diplay", "x": "40", "y": 0, "inputs": 8, "outputs": 0, "state": [true, false]},
			{"id": "k1", "type": "Keyboard Input", "x": 0, "y": 60, "inputs": 0, "outputs": 1, "key": "Q", "state": true}
		],
		"connections": [
			{"id": "c1", "from": "b1", "fromOutput": "0", "to": "s1", "toInput": 3, "style": "spiral"},
			{"id": "c2", "from": "gone", "fromOutput": 0, "to": "s1", "toInput": 0, "style": "curve"},
			{"id": "c3", "from": "k1", "fromOutput": 0, "to": "s1", "toInput": 9, "style": "curve"},
			{"id": "c4", "from": "", "fromOutput": 0, "to": "s1", "toInput": 0}
		]
	}`
	frag, err := codec.Decode(wrap(doc), registry.NewRegistry())
	require.NoError(t, err)

	require.Len(t, frag.Components, 3)
	assert.Equal(t, registry.KindSegment7, frag.Components[1].Kind.Name)
	assert.Equal(t, 50.0, frag.Components[1].X, "numeric strings are accepted")
	assert.Equal(t, domain.High, frag.Components[1].State, "first element of a state array")
	assert.Equal(t, domain.Low, frag.Components[0].State, "buttons default to released")
	assert.Equal(t, "Q", frag.Components[2].Key)
	assert.Equal(t, domain.High, frag.Components[2].State)

	require.Len(t, frag.Connections, 1)
	assert.Equal(t, domain.DefaultRouteStyle, frag.Connections[0].Style)
	assert.Equal(t, 3, frag.Connections[0].ToInput)

	require.Len(t, frag.Warnings, 3)
	for _, w := range frag.Warnings {
		assert.ErrorIs(t, w, domain.ErrDanglingConnection)
	}
	assert.ErrorIs(t, frag.Warnings[1], domain.ErrPinOutOfRange)
}

func TestDecodeRejects(t *testing.T) {
	reg := registry.NewRegistry()
	td := []struct {
		name string
		data []byte
	}{
		{"odd length", []byte("abc")},
		{"bad filler", []byte("e1e0")},
		{"bad base64", wrap("{}")[:4]},
		{"not json", wrap("components")},
		{"wrong shape", wrap(`{"components": 5}`)},
		{"missing id", wrap(`{"components": [{"type": "AND"}]}`)},
		{"duplicate id", wrap(`{"components": [{"id": "a", "type": "AND"}, {"id": "a", "type": "OR"}]}`)},
		{"unknown kind", wrap(`{"components": [{"id": "a", "type": "Flux Capacitor"}]}`)},
		{"long key", wrap(`{"components": [{"id": "a", "type": "Keyboard Input", "key": "ctrl"}]}`)},
		{"huge block", wrap(`{"components": [{"id": "a", "type": "Evil", "inputs": 1125899906842624, "outputs": 1,
			"behavior": {"outputs": [{"op": "const", "value": true}]}}]}`)},
		{"too many outputs", wrap(`{"components": [{"id": "a", "type": "Wide", "inputs": 0, "outputs": 17,
			"behavior": {"outputs": []}}]}`)},
		{"arity mismatch", wrap(`{"components": [{"id": "a", "type": "AND", "inputs": 9, "outputs": 1}]}`)},
		{"builtin with behavior", wrap(`{"components": [{"id": "a", "type": "AND", "inputs": 2, "outputs": 1,
			"behavior": {"outputs": [{"op": "const", "value": true}]}}]}`)},
		{"bad behavior", wrap(`{"components": [{"id": "a", "type": "Odd", "inputs": 1, "outputs": 1,
			"behavior": {"outputs": [{"op": "input", "input": 7}]}}]}`)},
	}
	for _, d := range td {
		t.Run(d.name, func(t *testing.T) {
			_, err := codec.Decode(d.data, reg)
			assert.ErrorIs(t, err, domain.ErrFormat)
		})
	}
}

func TestStoredBehaviorWinsOverLocalBlock(t *testing.T) {
	src := registry.NewRegistry()
	and, err := logic.ParseProgram("a & b", 2, 1)
	require.NoError(t, err)
	x, err := src.RegisterBlock("X", 2, 1, and)
	require.NoError(t, err)
	g := circuit.New()
	_, err = g.AddComponent(x, domain.Position{})
	require.NoError(t, err)
	_, err = g.AddComponent(x, domain.Position{X: 40})
	require.NoError(t, err)
	data, err := codec.Encode(g)
	require.NoError(t, err)

	t.Run("conflicting block", func(t *testing.T) {
		dst := registry.NewRegistry()
		or, err := logic.ParseProgram("a | b", 2, 1)
		require.NoError(t, err)
		local, err := dst.RegisterBlock("X", 2, 1, or)
		require.NoError(t, err)

		frag, err := codec.Decode(data, dst)
		require.NoError(t, err)
		assert.Empty(t, frag.Kinds, "the local block keeps its name")
		require.Len(t, frag.Warnings, 1, "one warning per block")
		assert.ErrorIs(t, frag.Warnings[0], domain.ErrKindConflict)

		k := frag.Components[0].Kind
		assert.NotSame(t, local, k)
		assert.Same(t, k, frag.Components[1].Kind)
		assert.Equal(t, []bool{false}, k.Evaluate([]bool{true, false}))
		assert.Equal(t, []bool{true}, local.Evaluate([]bool{true, false}))
	})

	t.Run("equivalent block", func(t *testing.T) {
		dst := registry.NewRegistry()
		table := logic.Tabulate(2, 1, func(in []bool) []bool { return []bool{in[0] && in[1]} })
		local, err := dst.RegisterBlock("X", 2, 1, &logic.Program{Table: table})
		require.NoError(t, err)

		frag, err := codec.Decode(data, dst)
		require.NoError(t, err)
		assert.Empty(t, frag.Warnings)
		assert.Empty(t, frag.Kinds)
		assert.Same(t, local, frag.Components[0].Kind)
	})
}

func TestRestoreKeepsIDs(t *testing.T) {
	reg := registry.NewRegistry()
	g := sampleGraph(t, reg)
	data, err := codec.Encode(g)
	require.NoError(t, err)

	frag, err := codec.Decode(data, reg, codec.Restore())
	require.NoError(t, err)
	restored := circuit.New()
	require.NoError(t, restored.Merge(frag.Components, frag.Connections))

	assert.Equal(t, codec.Marshal(g), codec.Marshal(restored))
}
