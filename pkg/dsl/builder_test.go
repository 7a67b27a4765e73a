package dsl_test

import (
	"context"
	"testing"

	"github.com/aretw0/breadboard/internal/runtime"
	"github.com/aretw0/breadboard/pkg/domain"
	"github.com/aretw0/breadboard/pkg/dsl"
	"github.com/aretw0/breadboard/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilder_HalfAdder(t *testing.T) {
	b := dsl.New(registry.NewRegistry())
	b.Add("a", registry.KindButton)
	b.Add("b", registry.KindButton).At(0, 60)
	b.Add("sum", registry.KindXOR).At(100, 0).In(0, "a").In(1, "b").Styled(domain.StyleElbow)
	b.Add("carry", registry.KindAND).At(100, 60).In(0, "a").In(1, "b")
	b.Add("s", registry.KindLamp).At(200, 0).In(0, "sum")
	b.Add("c", registry.KindLamp).At(200, 60).In(0, "carry")

	c, err := b.Build()
	require.NoError(t, err)
	assert.Equal(t, 6, c.Len())
	assert.Len(t, c.Connections(), 6)
	assert.Equal(t, domain.Position{X: 100, Y: 60}, c.Component("carry").Position)

	in := c.Incoming(c.ID("sum"))
	require.Len(t, in, 2)
	assert.Equal(t, c.ID("b"), in[1].From)
	assert.Equal(t, 1, in[1].ToInput)
	assert.Equal(t, domain.StyleElbow, in[1].Style)
	assert.Equal(t, domain.DefaultRouteStyle, in[0].Style)

	table, err := runtime.NewEngine().Enumerate(context.Background(), c.Graph)
	require.NoError(t, err)
	require.Len(t, table.Slots, 4)
	last := table.Slots[3]
	assert.False(t, last.Outputs[0].State, "1 + 1 has sum 0")
	assert.True(t, last.Outputs[1].State, "1 + 1 carries")
}

func TestBuilder_AddTwiceReturnsSamePart(t *testing.T) {
	b := dsl.New(registry.NewRegistry())
	p := b.Add("x", registry.KindNOT)
	assert.Same(t, p, b.Add("x", registry.KindAND))

	c, err := b.Build()
	require.NoError(t, err)
	assert.Equal(t, registry.KindNOT, c.Component("x").Kind.Name)
}

func TestBuilder_Key(t *testing.T) {
	b := dsl.New(registry.NewRegistry())
	b.Add("k", registry.KindKeyboard).Key("q")
	c, err := b.Build()
	require.NoError(t, err)
	assert.Equal(t, "Q", c.Component("k").Key)
}

func TestBuilder_Errors(t *testing.T) {
	b := dsl.New(registry.NewRegistry())
	b.Add("g", "Flux Capacitor")
	b.Add("n", registry.KindNOT).In(0, "ghost").In(3, "n")

	_, err := b.Build()
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrKindNotFound)
	assert.ErrorIs(t, err, domain.ErrComponentNotFound)
	assert.ErrorIs(t, err, domain.ErrPinOutOfRange)
	assert.Contains(t, err.Error(), `"ghost"`)
}
