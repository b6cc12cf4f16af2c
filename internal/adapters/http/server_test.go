package http_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/cadence"
	api "github.com/aretw0/cadence/internal/adapters/http"
	"github.com/aretw0/cadence/internal/logging"
)

func newTestHandler(t *testing.T) (http.Handler, *cadence.Engine) {
	t.Helper()
	eng := cadence.New()
	return api.NewHandler(eng, logging.NewNop()), eng
}

func doJSON(t *testing.T, handler http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder, out any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), out))
}

func TestHealth(t *testing.T) {
	handler, _ := newTestHandler(t)
	rr := doJSON(t, handler, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rr.Code)

	var resp map[string]any
	decode(t, rr, &resp)
	assert.Equal(t, "ok", resp["status"])
}

func TestAddAndReadEntity(t *testing.T) {
	handler, _ := newTestHandler(t)

	rr := doJSON(t, handler, http.MethodPost, "/entities", map[string]any{
		"variables": map[string]string{
			"startTime": "e0.startTime",
			"duration":  "60 / tempo(e0)",
		},
		"strings": map[string]string{"color": "crimson"},
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var created struct {
		ID int `json:"id"`
	}
	decode(t, rr, &created)
	assert.Equal(t, 1, created.ID)

	rr = doJSON(t, handler, http.MethodGet, fmt.Sprintf("/entities/%d", created.ID), nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var view struct {
		ID     int               `json:"id"`
		Values map[string]any    `json:"values"`
		Vars   map[string]string `json:"variables"`
	}
	decode(t, rr, &view)
	assert.Equal(t, created.ID, view.ID)
	assert.Equal(t, "e0.startTime", view.Vars["startTime"])

	duration := view.Values["duration"].(map[string]any)
	assert.Equal(t, "1", duration["value"])
}

func TestSetVariableAndEvaluate(t *testing.T) {
	handler, _ := newTestHandler(t)

	rr := doJSON(t, handler, http.MethodPost, "/entities", map[string]any{
		"variables": map[string]string{"frequency": "e0.frequency * 2"},
	})
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = doJSON(t, handler, http.MethodPut, "/entities/0/variables/frequency", map[string]string{
		"source": "220",
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = doJSON(t, handler, http.MethodGet, "/entities/1/variables/frequency", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var value map[string]any
	decode(t, rr, &value)
	assert.Equal(t, "440", value["value"])
}

func TestErrorMapping(t *testing.T) {
	handler, _ := newTestHandler(t)

	rr := doJSON(t, handler, http.MethodPost, "/entities", map[string]any{
		"variables": map[string]string{"duration": "1"},
	})
	require.Equal(t, http.StatusCreated, rr.Code)

	cases := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
	}{
		{"unknown entity", http.MethodGet, "/entities/99", nil, http.StatusNotFound},
		{"unknown variable", http.MethodGet, "/entities/1/variables/nope", nil, http.StatusNotFound},
		{"syntax error", http.MethodPut, "/entities/1/variables/duration",
			map[string]string{"source": "1 +"}, http.StatusUnprocessableEntity},
		{"self reference", http.MethodPut, "/entities/1/variables/duration",
			map[string]string{"source": "e1.duration"}, http.StatusConflict},
		{"remove root", http.MethodDelete, "/entities/0", nil, http.StatusConflict},
		{"bad id", http.MethodGet, "/entities/zero", nil, http.StatusBadRequest},
		{"empty set body", http.MethodPut, "/entities/1/variables/duration",
			map[string]string{}, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := doJSON(t, handler, tc.method, tc.path, tc.body)
			assert.Equal(t, tc.want, rr.Code, rr.Body.String())
		})
	}
}

func TestRemoveEntityModes(t *testing.T) {
	handler, eng := newTestHandler(t)
	first, err := eng.AddEntity(-1, map[string]string{"startTime": "1"})
	require.NoError(t, err)
	second, err := eng.AddEntity(-1, map[string]string{"startTime": "e1.startTime + 1"})
	require.NoError(t, err)

	rr := doJSON(t, handler, http.MethodDelete, fmt.Sprintf("/entities/%d?mode=keep", first), nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	value, err := eng.GetVariable(second, "startTime")
	require.NoError(t, err)
	assert.Equal(t, "2", value.Number.String())
}

func TestDependenciesAndRebase(t *testing.T) {
	handler, eng := newTestHandler(t)
	_, err := eng.AddEntity(-1, map[string]string{"startTime": "e0.startTime + 1"})
	require.NoError(t, err)
	second, err := eng.AddEntity(-1, map[string]string{"startTime": "e1.startTime + 1"})
	require.NoError(t, err)

	rr := doJSON(t, handler, http.MethodGet, fmt.Sprintf("/entities/%d/dependencies", second), nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var deps struct {
		Entities []int `json:"entities"`
	}
	decode(t, rr, &deps)
	assert.Equal(t, []int{1}, deps.Entities)

	rr = doJSON(t, handler, http.MethodPost, fmt.Sprintf("/entities/%d/rebase", second), nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var counts struct {
		Exact int `json:"exact"`
	}
	decode(t, rr, &counts)
	assert.Equal(t, 1, counts.Exact)

	rr = doJSON(t, handler, http.MethodGet, fmt.Sprintf("/entities/%d/dependencies", second), nil)
	decode(t, rr, &deps)
	assert.Equal(t, []int{0}, deps.Entities)
}

func TestDocumentAndMetrics(t *testing.T) {
	handler, eng := newTestHandler(t)
	_, err := eng.AddEntity(-1, map[string]string{"duration": "60 / tempo(e0)"})
	require.NoError(t, err)

	rr := doJSON(t, handler, http.MethodGet, "/document", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "text/yaml", rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Body.String(), "60 / tempo(e0)")

	rr = doJSON(t, handler, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, strings.Contains(rr.Body.String(), "cadence_http_requests_total"))
}
