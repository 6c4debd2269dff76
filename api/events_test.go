/*
events_test.go - SSE change feed tests

The stream handler blocks until the client disconnects, so tests connect
with an already-cancelled request context: the handler emits the initial
snapshot event and returns.
*/
package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStreamEvents_SendsCurrentSnapshot(t *testing.T) {
	// GIVEN a server with one goal already saved
	ts := newTestServer(t)
	ts.createGoal(t, "parent", "Bike", 900)

	// WHEN a client connects and disconnects immediately
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodGet, "/api/events", nil).WithContext(ctx)
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)

	// THEN it received the current state as one snapshot event
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))
	body := w.Body.String()
	assert.Contains(t, body, "event: snapshot\ndata: ")
	assert.Contains(t, body, `"Bike"`)
}

func TestStreamEvents_ReflectsLatestSave(t *testing.T) {
	// GIVEN a goal that received a deposit after creation
	ts := newTestServer(t)
	id := ts.createGoal(t, "child", "Robot", 500)
	ts.do(t, http.MethodPost, "/api/goals/"+id+"/deposit", MoveMoneyRequest{Role: "child", Amount: 200})

	// WHEN a late joiner connects
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodGet, "/api/events", nil).WithContext(ctx)
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)

	// THEN the initial event already carries the deposited amount
	assert.Contains(t, w.Body.String(), `"currentAmount":200`)
}
