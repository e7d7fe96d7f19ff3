package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/danmuck/scenesave/internal/components"
	"github.com/danmuck/scenesave/internal/engine"
	"github.com/danmuck/scenesave/internal/graph"
	"github.com/danmuck/scenesave/internal/inspect"
	"github.com/danmuck/scenesave/internal/registry"
	"github.com/danmuck/scenesave/internal/slots"
	"github.com/danmuck/scenesave/internal/storage"
	"github.com/danmuck/scenesave/internal/testutil/testlog"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (*Server, *slots.Manager, *graph.Scene) {
	t.Helper()
	testlog.Start(t)
	gin.SetMode(gin.TestMode)

	b := registry.NewBuilder()
	require.NoError(t, components.Register(b))
	store, err := storage.NewFileStore(t.TempDir())
	require.NoError(t, err)
	comp, err := storage.NewCompressor("zstd", 0)
	require.NoError(t, err)
	m := slots.NewManager(engine.New(b.Build(), graph.NewTemplateSet()), store, comp)

	scene := graph.NewScene("Level1")
	scene.Add(graph.NewNode("Player", components.NewTransform(), &components.Rigidbody{Mass: 3}))
	return New(Options{Name: "savectl-test", Slots: m}), m, scene
}

func do(t *testing.T, s *Server, method, target string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	rr := httptest.NewRecorder()
	s.Router().ServeHTTP(rr, req)
	return rr
}

func child(n *inspect.Node, key string) *inspect.Node {
	for _, c := range n.Children {
		if c.Key == key {
			return c
		}
	}
	return nil
}

func TestHealth(t *testing.T) {
	s, _, _ := newTestServer(t)
	rr := do(t, s, http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Equal(t, "ok", body["status"])
	require.Equal(t, "savectl-test", body["service"])
	require.Equal(t, "file", body["store"])
}

func TestMetricsEndpoint(t *testing.T) {
	s, _, _ := newTestServer(t)
	do(t, s, http.MethodGet, "/healthz", nil)
	rr := do(t, s, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), "scenesave_http_requests_total")
}

func TestTypesListsRegistry(t *testing.T) {
	s, _, _ := newTestServer(t)
	rr := do(t, s, http.MethodGet, "/v1/types", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var body struct {
		Types []TypeInfo `json:"types"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	names := make([]string, 0, len(body.Types))
	for _, ti := range body.Types {
		names = append(names, ti.Name)
		require.Equal(t, "instance", ti.Category)
	}
	require.Contains(t, names, components.TransformType)
	require.Contains(t, names, components.RigidbodyType)
}

func TestSlotLifecycle(t *testing.T) {
	s, m, scene := newTestServer(t)
	require.True(t, m.Save(context.Background(), scene, "quick", nil))

	rr := do(t, s, http.MethodGet, "/v1/slots", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var list struct {
		Store string             `json:"store"`
		Slots []storage.SlotInfo `json:"slots"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &list))
	require.Equal(t, "file", list.Store)
	require.Len(t, list.Slots, 1)
	require.Equal(t, "quick", list.Slots[0].Slot)

	rr = do(t, s, http.MethodGet, "/v1/slots/quick", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var tree inspect.Node
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &tree))
	require.Equal(t, "map", tree.Kind)
	format := child(&tree, engine.KeyFormat)
	require.NotNil(t, format)
	require.Equal(t, engine.FormatVersion, format.Value)
	require.Contains(t, rr.Body.String(), "Player")

	rr = do(t, s, http.MethodGet, "/v1/slots/quick?format=yaml", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), "Format:")

	rr = do(t, s, http.MethodDelete, "/v1/slots/quick", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = do(t, s, http.MethodGet, "/v1/slots/quick", nil)
	require.Equal(t, http.StatusNotFound, rr.Code)
	rr = do(t, s, http.MethodDelete, "/v1/slots/quick", nil)
	require.Equal(t, http.StatusNotFound, rr.Code)
}

func TestSlotErrors(t *testing.T) {
	s, _, _ := newTestServer(t)
	rr := do(t, s, http.MethodGet, "/v1/slots/.hidden", nil)
	require.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(t, s, http.MethodGet, "/v1/slots/missing", nil)
	require.Equal(t, http.StatusNotFound, rr.Code)
	require.Contains(t, rr.Body.String(), "slot not found")
}

func TestInspectPostedBlob(t *testing.T) {
	s, m, scene := newTestServer(t)
	blob, rep, err := m.Engine().Save(context.Background(), scene, nil)
	require.NoError(t, err)
	require.True(t, rep.OK())

	rr := do(t, s, http.MethodPost, "/v1/inspect?format=text", blob)
	require.Equal(t, http.StatusOK, rr.Code)
	require.True(t, strings.HasPrefix(rr.Body.String(), "(root)"))
	require.Contains(t, rr.Body.String(), components.TransformType)

	packed, err := storage.Gzip{}.Compress(blob)
	require.NoError(t, err)
	rr = do(t, s, http.MethodPost, "/v1/inspect", packed)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = do(t, s, http.MethodPost, "/v1/inspect?compression=gzip", blob)
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	rr = do(t, s, http.MethodPost, "/v1/inspect?compression=lz4", blob)
	require.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(t, s, http.MethodPost, "/v1/inspect?format=xml", blob)
	require.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(t, s, http.MethodPost, "/v1/inspect", blob[:len(blob)/2])
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
}

func TestWithoutSlots(t *testing.T) {
	testlog.Start(t)
	gin.SetMode(gin.TestMode)
	s := New(Options{})
	rr := do(t, s, http.MethodGet, "/v1/slots", nil)
	require.Equal(t, http.StatusServiceUnavailable, rr.Code)
	rr = do(t, s, http.MethodGet, "/v1/types", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	require.JSONEq(t, `{"types":[]}`, rr.Body.String())
}

func TestInspectRejectsOversizedInflate(t *testing.T) {
	testlog.Start(t)
	gin.SetMode(gin.TestMode)
	s := New(Options{MaxInflated: 4096})
	bomb := make([]byte, 1<<20)

	gz, err := storage.Gzip{}.Compress(bomb)
	require.NoError(t, err)
	rr := do(t, s, http.MethodPost, "/v1/inspect", gz)
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	require.Contains(t, rr.Body.String(), "exceeds limit")

	z, err := storage.NewZstd(0)
	require.NoError(t, err)
	zs, err := z.Compress(bomb)
	require.NoError(t, err)
	rr = do(t, s, http.MethodPost, "/v1/inspect", zs)
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	require.Contains(t, rr.Body.String(), "exceeds limit")
}
