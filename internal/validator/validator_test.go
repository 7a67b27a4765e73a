package validator

import (
	"testing"

	"github.com/aretw0/breadboard/pkg/dsl"
	"github.com/aretw0/breadboard/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateGraph(t *testing.T) {
	// Scenario A: a button through a NOT gate into a lamp.
	b := dsl.New(registry.NewRegistry())
	b.Add("in", registry.KindButton)
	b.Add("not", registry.KindNOT).In(0, "in")
	b.Add("lamp", registry.KindLamp).In(0, "not")
	c, err := b.Build()
	require.NoError(t, err)
	assert.NoError(t, ValidateGraph(c.Graph))

	// Scenario B: a floating AND input, an idle button and an island.
	b = dsl.New(registry.NewRegistry())
	b.Add("in", registry.KindButton)
	b.Add("idle", registry.KindButton)
	b.Add("and", registry.KindAND).In(0, "in")
	b.Add("lamp", registry.KindLamp).In(0, "and")
	b.Add("loop", registry.KindNOT).In(0, "loop")
	c, err = b.Build()
	require.NoError(t, err)

	issues := Lint(c.Graph)
	want := []Issue{
		{Component: c.ID("idle"), Kind: registry.KindButton, Message: "drives nothing"},
		{Component: c.ID("and"), Kind: registry.KindAND, Message: "input 1 is not connected and reads low"},
		{Component: c.ID("loop"), Kind: registry.KindNOT, Message: "is not reachable from any input"},
	}
	assert.Equal(t, want, issues)

	err = ValidateGraph(c.Graph)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "found 3 issues")
}
