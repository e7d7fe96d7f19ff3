package inspect

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/danmuck/scenesave/internal/components"
	"github.com/danmuck/scenesave/internal/engine"
	"github.com/danmuck/scenesave/internal/graph"
	"github.com/danmuck/scenesave/internal/registry"
	"github.com/danmuck/scenesave/internal/testutil/testlog"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

type score struct{ Points int32 }

func (s *score) TypeName() string { return "game.Score" }

func sampleSave(t *testing.T) ([]byte, *registry.Registry, uuid.UUID) {
	t.Helper()
	b := registry.NewBuilder()
	if err := components.Register(b); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := b.Register("game.Score", registry.Fields(
		registry.Int32Field("points", func(s *score) *int32 { return &s.Points }),
	)); err != nil {
		t.Fatalf("register score: %v", err)
	}
	reg := b.Build()

	id := uuid.New()
	scene := graph.NewScene("Level1")
	scene.Add(graph.NewNode("Player", components.NewTransform(), &score{Points: 1200}).Track(id))
	blob, _, err := engine.New(reg, graph.NewTemplateSet()).Save(context.Background(), scene, nil)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	return blob, reg, id
}

func find(n *Node, key string) *Node {
	if n.Key == key {
		return n
	}
	for _, c := range n.Children {
		if got := find(c, key); got != nil {
			return got
		}
	}
	return nil
}

func TestTreeDecodesKnownLeaves(t *testing.T) {
	testlog.Start(t)
	blob, reg, id := sampleSave(t)
	root, err := Decode(blob, reg)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got := find(root, engine.KeyScene); got == nil || got.Value != "Level1" {
		t.Fatalf("scene = %+v", got)
	}
	if got := find(root, engine.KeyIdentity); got == nil || got.Value != id.String() {
		t.Fatalf("identity = %+v", got)
	}
	if got := find(root, engine.KeyValue); got == nil || got.Value != "1200" || got.Type != "int32" {
		t.Fatalf("points = %+v", got)
	}
	if got := find(root, "Position"); got == nil || got.Type != "" || got.Size != 12 {
		t.Fatalf("hook leaf = %+v", got)
	}
}

func TestUnknownComponentFieldsStayOpaque(t *testing.T) {
	testlog.Start(t)
	blob, _, _ := sampleSave(t)
	root, err := Decode(blob, nil)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	got := find(root, engine.KeyValue)
	if got == nil || got.Type != "" || got.Value != "b0040000" {
		t.Fatalf("points = %+v", got)
	}
}

func TestRenderFormats(t *testing.T) {
	testlog.Start(t)
	blob, reg, _ := sampleSave(t)
	root, err := Decode(blob, reg)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	var text bytes.Buffer
	if err := Render(&text, root, "text"); err != nil {
		t.Fatalf("text: %v", err)
	}
	if !strings.Contains(text.String(), `  Scene: Level1 <string>`) {
		t.Fatalf("text output:\n%s", text.String())
	}

	var js bytes.Buffer
	if err := Render(&js, root, "json"); err != nil {
		t.Fatalf("json: %v", err)
	}
	var decoded Node
	if err := json.Unmarshal(js.Bytes(), &decoded); err != nil {
		t.Fatalf("json parse: %v", err)
	}
	if decoded.Kind != "map" || decoded.Children[0].Key != engine.KeyFormat {
		t.Fatalf("json root = %+v", decoded)
	}

	var ym bytes.Buffer
	if err := Render(&ym, root, "yaml"); err != nil {
		t.Fatalf("yaml: %v", err)
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(ym.Bytes(), &doc); err != nil {
		t.Fatalf("yaml parse: %v", err)
	}
	top := doc.Content[0]
	if top.Kind != yaml.MappingNode || top.Content[0].Value != engine.KeyFormat || top.Content[1].Value != engine.FormatVersion {
		t.Fatalf("yaml order lost:\n%s", ym.String())
	}

	if err := Render(&text, root, "xml"); err == nil {
		t.Fatalf("expected error for unknown format")
	}
}
