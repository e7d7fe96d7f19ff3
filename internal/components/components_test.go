package components

import (
	"testing"

	"github.com/danmuck/scenesave/internal/document"
	"github.com/danmuck/scenesave/internal/registry"
	"github.com/danmuck/scenesave/internal/testutil/testlog"
	"github.com/danmuck/scenesave/internal/wire/value"
)

func TestTransformHooksRoundTrip(t *testing.T) {
	testlog.Start(t)
	b := registry.NewBuilder()
	if err := Register(b); err != nil {
		t.Fatalf("register: %v", err)
	}
	desc, ok := b.Build().Lookup(TransformType)
	if !ok {
		t.Fatalf("transform not registered")
	}

	src := NewTransform()
	src.Position = value.Vector3{X: 1, Y: 2, Z: 3}
	m := document.NewMap()
	if err := desc.Save(src, m); err != nil {
		t.Fatalf("save: %v", err)
	}
	blob, err := document.Encode(m, value.Codec{})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	decoded, err := document.DecodeMap(blob, value.Codec{})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	dst := NewTransform()
	if err := desc.Load(dst, decoded); err != nil {
		t.Fatalf("load: %v", err)
	}
	if *dst != *src {
		t.Fatalf("transform = %+v, want %+v", *dst, *src)
	}
}

func TestRigidbodyPartialLoad(t *testing.T) {
	testlog.Start(t)
	b := registry.NewBuilder()
	_ = Register(b)
	desc, _ := b.Build().Lookup(RigidbodyType)

	m := document.NewMap()
	m.SetValue("Mass", value.Float32Value(4))
	body := &Rigidbody{Mass: 1, Kinematic: true}
	if err := desc.Load(body, m); err != nil {
		t.Fatalf("load: %v", err)
	}
	if body.Mass != 4 || !body.Kinematic {
		t.Fatalf("rigidbody = %+v", *body)
	}
}
