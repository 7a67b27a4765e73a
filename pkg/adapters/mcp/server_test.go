package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/aretw0/breadboard/pkg/domain"
	"github.com/aretw0/breadboard/pkg/registry"
	"github.com/aretw0/breadboard/pkg/session"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	mgr := session.NewManager(nil, nil, nil)
	t.Cleanup(mgr.Close)
	return NewServer(mgr, "v-test\n")
}

func TestTools_BuildAndSimulate(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	var req mcp.CallToolRequest

	snap, err := s.handleOpen(ctx, req, sessionArgs{SessionID: "bench"})
	require.NoError(t, err)
	assert.Equal(t, "bench", snap.ID)

	btn, err := s.handlePlace(ctx, req, placeArgs{SessionID: "bench", Type: registry.KindButton})
	require.NoError(t, err)
	not, err := s.handlePlace(ctx, req, placeArgs{SessionID: "bench", Type: registry.KindNOT, X: 80})
	require.NoError(t, err)
	lamp, err := s.handlePlace(ctx, req, placeArgs{SessionID: "bench", Type: registry.KindLamp, X: 160})
	require.NoError(t, err)

	_, err = s.handleConnect(ctx, req, connectArgs{SessionID: "bench", From: btn.ID, To: not.ID})
	require.NoError(t, err)
	conn, err := s.handleConnect(ctx, req, connectArgs{SessionID: "bench", From: not.ID, To: lamp.ID, Style: "elbow"})
	require.NoError(t, err)
	assert.Equal(t, domain.StyleElbow, conn.Style)

	_, err = s.handleActivate(ctx, req, activateArgs{SessionID: "bench", ComponentID: btn.ID})
	assert.ErrorIs(t, err, domain.ErrNotSimulating)

	snap, err = s.handleSimulation(ctx, req, simulationArgs{SessionID: "bench", Running: true})
	require.NoError(t, err)
	assert.True(t, snap.Simulating)

	_, err = s.handleActivate(ctx, req, activateArgs{SessionID: "bench", ComponentID: btn.ID})
	require.NoError(t, err)

	snap, err = s.handleSimulation(ctx, req, simulationArgs{SessionID: "bench", Running: false})
	require.NoError(t, err)
	assert.False(t, snap.Simulating)
	require.Len(t, snap.Components, 3)
	assert.Equal(t, domain.High, snap.Components[0].State, "stopping keeps the levels")

	job, err := s.handleTruthTable(ctx, req, sessionArgs{SessionID: "bench"})
	require.NoError(t, err)
	assert.Equal(t, session.JobDone, job.Status)
	require.Len(t, job.Table.Slots, 2)
	assert.True(t, job.Table.Slots[0].Outputs[0].State)
	assert.False(t, job.Table.Slots[1].Outputs[0].State)

	lint, err := s.handleLint(ctx, req, sessionArgs{SessionID: "bench"})
	require.NoError(t, err)
	assert.Empty(t, lint.Issues)

	diagram, err := s.handleDiagram(ctx, req, sessionArgs{SessionID: "bench"})
	require.NoError(t, err)
	assert.Contains(t, diagram.Mermaid, `["NOT"]`)
}

func TestTools_Keys(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	var req mcp.CallToolRequest

	_, err := s.handleOpen(ctx, req, sessionArgs{SessionID: "k"})
	require.NoError(t, err)
	_, err = s.handlePlace(ctx, req, placeArgs{SessionID: "k", Type: registry.KindKeyboard})
	require.NoError(t, err)
	_, err = s.handleSimulation(ctx, req, simulationArgs{SessionID: "k", Running: true})
	require.NoError(t, err)

	res, err := s.handleKey(ctx, req, keyArgs{SessionID: "k", Key: "a", Pressed: true})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Matched)

	res, err = s.handleKey(ctx, req, keyArgs{SessionID: "k", Key: "z", Pressed: false})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Matched)
}

func TestTools_Errors(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	var req mcp.CallToolRequest

	_, err := s.handleSnapshot(ctx, req, sessionArgs{SessionID: "missing"})
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	_, err = s.handleOpen(ctx, req, sessionArgs{SessionID: "e"})
	require.NoError(t, err)
	_, err = s.handlePlace(ctx, req, placeArgs{SessionID: "e", Type: "Flux Capacitor"})
	assert.ErrorIs(t, err, domain.ErrKindNotFound)
}

func TestKindsResource(t *testing.T) {
	s := newTestServer(t)

	res, err := s.handleListKinds(context.Background(), mcp.CallToolRequest{}, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, res.Kinds)

	contents, err := s.kindsResource()
	require.NoError(t, err)
	require.Len(t, contents, 1)
	text, ok := contents[0].(mcp.TextResourceContents)
	require.True(t, ok)
	assert.Equal(t, KindsURI, text.URI)

	var kinds []session.KindView
	require.NoError(t, json.Unmarshal([]byte(text.Text), &kinds))
	assert.Len(t, kinds, len(res.Kinds))
}
