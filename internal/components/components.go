package components

import (
	"github.com/danmuck/scenesave/internal/document"
	"github.com/danmuck/scenesave/internal/graph"
	"github.com/danmuck/scenesave/internal/registry"
	"github.com/danmuck/scenesave/internal/wire/value"
)

const (
	TransformType = "scenesave.Transform"
	RigidbodyType = "scenesave.Rigidbody"
)

// Transform is the local placement of an entity.
type Transform struct {
	Position value.Vector3
	Rotation value.Quaternion
	Scale    value.Vector3
}

func NewTransform() *Transform {
	return &Transform{Rotation: value.IdentityQuaternion, Scale: value.Vector3{X: 1, Y: 1, Z: 1}}
}

func (t *Transform) TypeName() string { return TransformType }

func (t *Transform) Clone() graph.Component {
	cp := *t
	return &cp
}

// Rigidbody is the physics state of an entity.
type Rigidbody struct {
	Velocity        value.Vector3
	AngularVelocity value.Vector3
	Mass            float32
	Kinematic       bool
	Sleeping        bool
}

func (r *Rigidbody) TypeName() string { return RigidbodyType }

func (r *Rigidbody) Clone() graph.Component {
	cp := *r
	return &cp
}

// Register adds Transform and Rigidbody to b.
func Register(b *registry.Builder) error {
	if err := b.Register(TransformType,
		registry.OnSave(saveTransform),
		registry.OnLoad(loadTransform),
	); err != nil {
		return err
	}
	return b.Register(RigidbodyType,
		registry.OnSave(saveRigidbody),
		registry.OnLoad(loadRigidbody),
	)
}

func saveTransform(t *Transform, m *document.Map) error {
	m.SetValue("Position", value.Vector3Value(t.Position))
	m.SetValue("Rotation", value.QuaternionValue(t.Rotation))
	m.SetValue("Scale", value.Vector3Value(t.Scale))
	return nil
}

func loadTransform(t *Transform, m *document.Map) error {
	pos, err := m.Vector3("Position")
	if err != nil {
		return err
	}
	rot, err := m.Quaternion("Rotation")
	if err != nil {
		return err
	}
	scale, err := m.Vector3("Scale")
	if err != nil {
		return err
	}
	t.Position, t.Rotation, t.Scale = pos, rot, scale
	return nil
}

func saveRigidbody(r *Rigidbody, m *document.Map) error {
	m.SetValue("Velocity", value.Vector3Value(r.Velocity))
	m.SetValue("AngularVelocity", value.Vector3Value(r.AngularVelocity))
	m.SetValue("Mass", value.Float32Value(r.Mass))
	m.SetValue("Kinematic", value.BoolValue(r.Kinematic))
	m.SetValue("Sleeping", value.BoolValue(r.Sleeping))
	return nil
}

// Keys missing from m keep their current values.
func loadRigidbody(r *Rigidbody, m *document.Map) error {
	if v, err := m.Vector3("Velocity"); err == nil {
		r.Velocity = v
	}
	if v, err := m.Vector3("AngularVelocity"); err == nil {
		r.AngularVelocity = v
	}
	if v, err := m.Float32("Mass"); err == nil {
		r.Mass = v
	}
	if v, err := m.Bool("Kinematic"); err == nil {
		r.Kinematic = v
	}
	if v, err := m.Bool("Sleeping"); err == nil {
		r.Sleeping = v
	}
	return nil
}
