package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/breadboard/pkg/domain"
	"github.com/aretw0/breadboard/pkg/registry"
	"github.com/aretw0/breadboard/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandler(t *testing.T) http.Handler {
	t.Helper()
	mgr := session.NewManager(nil, nil, nil)
	t.Cleanup(mgr.Close)
	return NewHandler(mgr, WithVersion("v-test\n"))
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case []byte:
		buf.Write(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}
	req := httptest.NewRequest(method, path, &buf)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestHealthAndInfo(t *testing.T) {
	h := newTestHandler(t)

	w := do(t, h, "GET", "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"ok"`)

	w = do(t, h, "GET", "/info", nil)
	info := decodeBody[map[string]string](t, w)
	assert.Equal(t, "v-test", info["version"])
	assert.Equal(t, ".lmccircuit", info["extension"])

	w = do(t, h, "OPTIONS", "/sessions", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestSessionWorkflow(t *testing.T) {
	h := newTestHandler(t)

	w := do(t, h, "PUT", "/sessions/bench", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, h, "POST", "/sessions/bench/components", placeRequest{Type: registry.KindButton})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	btn := decodeBody[session.ComponentView](t, w)

	w = do(t, h, "POST", "/sessions/bench/components", placeRequest{Type: registry.KindLamp, X: 100})
	require.Equal(t, http.StatusCreated, w.Code)
	lamp := decodeBody[session.ComponentView](t, w)

	w = do(t, h, "POST", "/sessions/bench/connections", connectRequest{From: btn.ID, To: lamp.ID, Style: domain.StyleElbow})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	conn := decodeBody[session.ConnectionView](t, w)
	assert.Equal(t, domain.StyleElbow, conn.Style)

	w = do(t, h, "POST", "/sessions/bench/components/"+btn.ID+"/activate", nil)
	assert.Equal(t, http.StatusConflict, w.Code, "activation needs a running simulation")

	w = do(t, h, "POST", "/sessions/bench/simulation", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, h, "POST", "/sessions/bench/components/"+btn.ID+"/activate", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, h, "GET", "/sessions/bench", nil)
	snap := decodeBody[session.Snapshot](t, w)
	assert.True(t, snap.Simulating)
	require.Len(t, snap.Components, 2)
	assert.Equal(t, domain.High, snap.Components[1].State)

	x, y := 40.0, 50.0
	w = do(t, h, "PATCH", "/sessions/bench/components/"+lamp.ID, componentPatch{X: &x, Y: &y})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 40.0, decodeBody[session.ComponentView](t, w).X)

	w = do(t, h, "PATCH", "/sessions/bench/components/"+lamp.ID, componentPatch{X: &x})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = do(t, h, "PATCH", "/sessions/bench/connections/"+conn.ID, connectionPatch{Style: "spiral"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = do(t, h, "DELETE", "/sessions/bench/components/"+btn.ID, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = do(t, h, "DELETE", "/sessions/bench/connections/"+conn.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code, "the wire went with the button")

	w = do(t, h, "DELETE", "/sessions/bench", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = do(t, h, "GET", "/sessions/bench", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpdateComponentAllOrNothing(t *testing.T) {
	h := newTestHandler(t)
	w := do(t, h, "PUT", "/sessions/bench", nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = do(t, h, "POST", "/sessions/bench/components", placeRequest{Type: registry.KindKeyboard, X: 10, Y: 20})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	kb := decodeBody[session.ComponentView](t, w)

	x, y := 300.0, 400.0
	unknown, long := "Flux Capacitor", "ctrl"
	w = do(t, h, "PATCH", "/sessions/bench/components/"+kb.ID, componentPatch{X: &x, Y: &y, Type: &unknown})
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = do(t, h, "PATCH", "/sessions/bench/components/"+kb.ID, componentPatch{X: &x, Y: &y, Key: &long})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	w = do(t, h, "PATCH", "/sessions/bench/components/"+kb.ID, componentPatch{})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = do(t, h, "GET", "/sessions/bench", nil)
	snap := decodeBody[session.Snapshot](t, w)
	require.Len(t, snap.Components, 1)
	assert.Equal(t, 10.0, snap.Components[0].X, "a rejected patch does not move the component")
	assert.Equal(t, 20.0, snap.Components[0].Y)
	assert.Equal(t, registry.KindKeyboard, snap.Components[0].Type)

	kind, key := registry.KindButton, "q"
	w = do(t, h, "PATCH", "/sessions/bench/components/"+kb.ID, componentPatch{X: &x, Y: &y, Type: &kind, Key: &key})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	c := decodeBody[session.ComponentView](t, w)
	assert.Equal(t, 300.0, c.X)
	assert.Equal(t, registry.KindButton, c.Type)
	assert.Equal(t, "Q", c.Key)
}

func TestKeys(t *testing.T) {
	h := newTestHandler(t)
	w := do(t, h, "POST", "/sessions", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	id := decodeBody[session.Snapshot](t, w).ID

	w = do(t, h, "POST", "/sessions/"+id+"/components", placeRequest{Type: registry.KindKeyboard})
	require.Equal(t, http.StatusCreated, w.Code)
	do(t, h, "POST", "/sessions/"+id+"/simulation", nil)

	w = do(t, h, "POST", "/sessions/"+id+"/keys", keyRequest{Key: "a", Pressed: true})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, decodeBody[map[string]int](t, w)["matched"])

	w = do(t, h, "POST", "/sessions/"+id+"/keys", keyRequest{Key: ""})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestTruthTableJob(t *testing.T) {
	h := newTestHandler(t)
	do(t, h, "PUT", "/sessions/tt", nil)
	w := do(t, h, "POST", "/sessions/tt/components", placeRequest{Type: registry.KindButton})
	btn := decodeBody[session.ComponentView](t, w)
	w = do(t, h, "POST", "/sessions/tt/components", placeRequest{Type: registry.KindLamp, X: 80})
	lamp := decodeBody[session.ComponentView](t, w)
	do(t, h, "POST", "/sessions/tt/connections", connectRequest{From: btn.ID, To: lamp.ID})

	w = do(t, h, "POST", "/sessions/tt/truth-table", nil)
	require.Equal(t, http.StatusAccepted, w.Code)
	job := decodeBody[session.Job](t, w)
	assert.Equal(t, "/jobs/"+job.ID, w.Header().Get("Location"))

	w = do(t, h, "GET", "/jobs/"+job.ID+"?wait=true", nil)
	require.Equal(t, http.StatusOK, w.Code)
	done := decodeBody[session.Job](t, w)
	assert.Equal(t, session.JobDone, done.Status)
	require.Len(t, done.Table.Slots, 2)
	assert.False(t, done.Table.Slots[0].Outputs[0].State)
	assert.True(t, done.Table.Slots[1].Outputs[0].State)

	w = do(t, h, "GET", "/jobs/unknown", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestLintAndDiagram(t *testing.T) {
	h := newTestHandler(t)
	do(t, h, "PUT", "/sessions/d", nil)
	w := do(t, h, "POST", "/sessions/d/components", placeRequest{Type: registry.KindAND})
	gate := decodeBody[session.ComponentView](t, w)

	w = do(t, h, "GET", "/sessions/d/lint", nil)
	require.Equal(t, http.StatusOK, w.Code)
	issues := decodeBody[[]map[string]string](t, w)
	require.NotEmpty(t, issues)
	assert.Equal(t, gate.ID, issues[0]["component"])

	w = do(t, h, "GET", "/sessions/d/diagram", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "graph LR")
	assert.Contains(t, w.Body.String(), `["AND"]`)

	w = do(t, h, "GET", "/sessions/nobody/lint", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestExportImport(t *testing.T) {
	h := newTestHandler(t)
	do(t, h, "PUT", "/sessions/a", nil)
	do(t, h, "POST", "/sessions/a/components", placeRequest{Type: registry.KindXOR})

	w := do(t, h, "GET", "/sessions/a/export", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "circuit.lmccircuit")
	doc := w.Body.Bytes()

	do(t, h, "PUT", "/sessions/b", nil)
	w = do(t, h, "POST", "/sessions/b/import", doc)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 1, decodeBody[session.ImportReport](t, w).Components)

	w = do(t, h, "POST", "/sessions/b/import", []byte("not a circuit"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBlocks(t *testing.T) {
	h := newTestHandler(t)
	def := registry.BlockDefinition{Name: "Majority", Inputs: 3, Outputs: 1,
		Expressions: []string{"(a & b) | (a & c) | (b & c)"}}

	w := do(t, h, "POST", "/kinds", def)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	w = do(t, h, "POST", "/kinds", def)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(t, h, "GET", "/kinds", nil)
	kinds := decodeBody[[]session.KindView](t, w)
	assert.Equal(t, "Majority", kinds[len(kinds)-1].Name)

	w = do(t, h, "DELETE", "/kinds/AND", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = do(t, h, "DELETE", "/kinds/Majority", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = do(t, h, "POST", "/kinds", []byte(`{"name": "x", "bogus": 1}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMetricsMount(t *testing.T) {
	mgr := session.NewManager(nil, nil, nil)
	h := NewHandler(mgr, WithMetrics(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("# metrics"))
	})))
	w := do(t, h, "GET", "/metrics", nil)
	assert.Equal(t, "# metrics", w.Body.String())
}

func TestStatusOf(t *testing.T) {
	td := []struct {
		err  error
		want int
	}{
		{domain.ErrSessionNotFound, http.StatusNotFound},
		{domain.ErrJobNotFound, http.StatusNotFound},
		{domain.ErrValidation, http.StatusUnprocessableEntity},
		{domain.ErrFormat, http.StatusBadRequest},
		{domain.ErrNotSimulating, http.StatusConflict},
		{domain.ErrTooManyInputs, http.StatusUnprocessableEntity},
		{context.Canceled, http.StatusServiceUnavailable},
		{errors.New("disk on fire"), http.StatusInternalServerError},
	}
	for _, d := range td {
		assert.Equal(t, d.want, StatusOf(d.err), d.err.Error())
	}
}

func TestSubscribeEvents_Session(t *testing.T) {
	h := newTestHandler(t)
	do(t, h, "PUT", "/sessions/live", nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	wSub := httptest.NewRecorder()
	reqSub := httptest.NewRequest("GET", "/sessions/live/events", nil).WithContext(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		h.ServeHTTP(wSub, reqSub)
	}()

	time.Sleep(100 * time.Millisecond) // wait for the subscription

	w := do(t, h, "POST", "/sessions/live/components", placeRequest{Type: registry.KindNOT})
	require.Equal(t, http.StatusCreated, w.Code)

	time.Sleep(50 * time.Millisecond)
	cancel()
	<-done

	output := wSub.Body.String()
	assert.True(t, strings.Contains(output, "event: ping"), "initial ping")
	assert.Contains(t, output, "event: snapshot")
	assert.Contains(t, output, `"type":"NOT"`)
}
