package slots

import (
	"context"
	"testing"

	"github.com/danmuck/scenesave/internal/components"
	"github.com/danmuck/scenesave/internal/document"
	"github.com/danmuck/scenesave/internal/engine"
	"github.com/danmuck/scenesave/internal/graph"
	"github.com/danmuck/scenesave/internal/registry"
	"github.com/danmuck/scenesave/internal/storage"
	"github.com/danmuck/scenesave/internal/testutil/testlog"
	"github.com/danmuck/scenesave/internal/wire/value"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func newManager(t *testing.T, store storage.Store) (*Manager, *graph.Scene, *graph.TemplateSet) {
	t.Helper()
	b := registry.NewBuilder()
	require.NoError(t, components.Register(b))
	templates := graph.NewTemplateSet()
	scene := graph.NewScene("Level1")
	comp, err := storage.NewCompressor("gzip", 0)
	require.NoError(t, err)
	return NewManager(engine.New(b.Build(), templates), store, comp), scene, templates
}

func transformOf(t *testing.T, n *graph.Node) *components.Transform {
	t.Helper()
	c, ok := n.Component(components.TransformType)
	require.True(t, ok)
	return c.(*components.Transform)
}

func TestSaveLoadThroughFileStore(t *testing.T) {
	testlog.Start(t)
	store, err := storage.NewFileStore(t.TempDir())
	require.NoError(t, err)
	m, scene, _ := newManager(t, store)
	ctx := context.Background()

	player := scene.Add(graph.NewNode("Player", components.NewTransform(), &components.Rigidbody{Mass: 2}))
	transformOf(t, player).Position = value.Vector3{X: 7}

	require.True(t, m.Save(ctx, scene, "slot1", nil))
	transformOf(t, player).Position = value.Vector3{}

	require.True(t, m.Load(ctx, scene, "slot1"))
	require.Equal(t, value.Vector3{X: 7}, transformOf(t, player).Position)

	list, err := m.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "slot1", list[0].Slot)

	blob, err := m.Read(ctx, "slot1")
	require.NoError(t, err)
	require.NotEmpty(t, blob)
}

func TestLoadMissingSlotFails(t *testing.T) {
	testlog.Start(t)
	store, err := storage.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer store.Close()
	m, scene, _ := newManager(t, store)

	require.False(t, m.Load(context.Background(), scene, "nothing"))
	_, err = m.LoadReport(context.Background(), scene, "nothing")
	require.ErrorIs(t, err, storage.ErrSlotNotFound)
}

type panicky struct{}

func (panicky) TypeName() string { return "test.Panicky" }

func TestFailedSaveKeepsPreviousSlot(t *testing.T) {
	testlog.Start(t)
	store, err := storage.NewFileStore(t.TempDir())
	require.NoError(t, err)

	b := registry.NewBuilder()
	require.NoError(t, components.Register(b))
	require.NoError(t, b.Register("test.Panicky", registry.OnSave(func(p panicky, _ *document.Map) error {
		panic("boom")
	})))
	templates := graph.NewTemplateSet()
	m := NewManager(engine.New(b.Build(), templates), store, storage.Gzip{})
	ctx := context.Background()

	scene := graph.NewScene("Level1")
	scene.Add(graph.NewNode("Crate", components.NewTransform()).Track(uuid.New()))
	require.True(t, m.Save(ctx, scene, "slot1", nil))
	before, err := store.Read(ctx, "slot1")
	require.NoError(t, err)

	scene.Add(graph.NewNode("Trap", panicky{}))
	_, err = m.SaveReport(ctx, scene, "slot1", nil)
	require.ErrorIs(t, err, engine.ErrHookPanic)

	after, err := store.Read(ctx, "slot1")
	require.NoError(t, err)
	require.Equal(t, before, after)

	require.NoError(t, m.Delete(ctx, "slot1"))
	require.ErrorIs(t, m.Delete(ctx, "slot1"), storage.ErrSlotNotFound)
}

func TestInvalidNameDoesNotBreakSlot(t *testing.T) {
	testlog.Start(t)
	store, err := storage.NewFileStore(t.TempDir())
	require.NoError(t, err)
	m, scene, _ := newManager(t, store)
	ctx := context.Background()

	guard := scene.Add(graph.NewNode("Guard", components.NewTransform()))
	scene.Add(graph.NewNode("Boss\xff", components.NewTransform()))
	transformOf(t, guard).Position = value.Vector3{Y: 3}

	rep, err := m.SaveReport(ctx, scene, "quick", nil)
	require.NoError(t, err)
	require.False(t, rep.OK())

	transformOf(t, guard).Position = value.Vector3{}
	loaded, err := m.LoadReport(ctx, scene, "quick")
	require.NoError(t, err)
	require.True(t, loaded.OK(), "%v", loaded.Err())
	require.Equal(t, value.Vector3{Y: 3}, transformOf(t, guard).Position)
}
