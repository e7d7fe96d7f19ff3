package engine

import (
	"testing"

	"github.com/danmuck/scenesave/internal/graph"
	"github.com/danmuck/scenesave/internal/testutil/testlog"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestCollectCapturesTrackedDescendantsSeparately(t *testing.T) {
	testlog.Start(t)
	f := newFixture(t)
	ship, pilot := uuid.New(), uuid.New()
	root := f.crate("Ship", ship, 10)
	root.Add(graph.NewNode("Hull", &Health{HP: 40}))
	root.Add(graph.NewNode("Pilot", &Health{HP: 3}).Track(pilot))
	root.Add(graph.NewNode("Antenna"))

	before := len(f.scene.Entities())
	snap, rep := Collect(f.reg, nil, f.scene)
	require.True(t, rep.OK(), "%v", rep.Err())
	require.Len(t, f.scene.Entities(), before)

	require.Len(t, snap.Entities, 2)
	require.Equal(t, ship, snap.Entities[0].Identity)
	require.Len(t, snap.Entities[0].Children, 1)
	require.Equal(t, "Hull", snap.Entities[0].Children[0].Name)
	require.Equal(t, pilot, snap.Entities[1].Identity)
	require.Empty(t, snap.Roots)

	require.Len(t, snap.Statics, 1)
	require.Equal(t, "game.World", snap.Statics[0].Type)
	require.NotNil(t, snap.Statics[0].Hook)
}

func TestCollectDetectsDuplicateIdentities(t *testing.T) {
	testlog.Start(t)
	f := newFixture(t)
	id := uuid.New()
	f.crate("First", id, 1)
	f.crate("Second", id, 2)

	snap, rep := Collect(f.reg, nil, f.scene)
	require.Len(t, snap.Entities, 1)
	require.Equal(t, "First", snap.Entities[0].Name)
	require.ErrorIs(t, rep.Err(), ErrDuplicateIdentity)
}
