package engine

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/danmuck/scenesave/internal/document"
	"github.com/danmuck/scenesave/internal/graph"
	"github.com/danmuck/scenesave/internal/observability"
	"github.com/danmuck/scenesave/internal/registry"
	"github.com/danmuck/scenesave/internal/wire/value"
	"github.com/rs/zerolog/log"
)

// SettleFunc waits until a freshly loaded scene has initialized.
type SettleFunc func(ctx context.Context) error

// Engine saves and loads graphs against one frozen registry.
type Engine struct {
	reg       *registry.Registry
	templates graph.Templates
	settle    SettleFunc
	codec     value.Codec
}

type Option func(e *Engine)

// WithSettle installs the synchronization point run before reconciliation,
// after the scene switch when there is one.
func WithSettle(fn SettleFunc) Option {
	return func(e *Engine) { e.settle = fn }
}

// New builds an engine. A nil registry or template set is reported by the
// first Save or Load.
func New(reg *registry.Registry, templates graph.Templates, opts ...Option) *Engine {
	e := &Engine{reg: reg, templates: templates}
	for _, opt := range opts {
		opt(e)
	}
	if reg != nil && templates != nil {
		e.codec = value.Codec{Catalog: reg.Catalog(), Refs: templateRefs{templates: templates}}
	}
	return e
}

// Codec returns the value codec used for blobs of this engine.
func (e *Engine) Codec() value.Codec { return e.codec }

func (e *Engine) Registry() *registry.Registry { return e.reg }

func (e *Engine) ready(host graph.Host) error {
	if e.reg == nil {
		return fmt.Errorf("%w: type registry", ErrMissingRegistry)
	}
	if e.templates == nil {
		return fmt.Errorf("%w: template registry", ErrMissingRegistry)
	}
	if host == nil {
		return fmt.Errorf("%w: host", ErrMissingRegistry)
	}
	return nil
}

// Save snapshots host into a blob. extra is stored under the Context key and
// may be nil. The returned error is only set for fatal failures; per-record
// failures are in the Report.
func (e *Engine) Save(ctx context.Context, host graph.Host, extra *document.Map) (blob []byte, rep *Report, err error) {
	start := time.Now()
	rep = newReport("save")
	defer func() {
		if r := recover(); r != nil {
			blob, err = nil, fmt.Errorf("%w: %v", ErrHookPanic, r)
		}
		e.observe(rep, err, start)
	}()

	if err := e.ready(host); err != nil {
		return nil, rep, err
	}
	if err := ctx.Err(); err != nil {
		return nil, rep, err
	}

	snap, collected := Collect(e.reg, e.codec.Refs, host)
	rep = collected
	if sh, ok := host.(graph.SceneHost); ok {
		snap.Scene = sh.ActiveScene()
	}
	if !utf8.ValidString(snap.Scene) {
		return nil, rep, fmt.Errorf("scene %q: %w", snap.Scene, value.ErrInvalidString)
	}
	if extra != nil {
		if err := document.Validate(extra); err != nil {
			rep.add(KeyContext, err)
			extra = nil
		}
	}
	snap.Context = extra
	rep.Scene = snap.Scene

	blob, err = document.Encode(snap.Document(), e.codec)
	if err != nil {
		return nil, rep, err
	}
	observability.RecordBlobSize("save", len(blob))
	log.Info().
		Str("scene", snap.Scene).
		Int("statics", len(snap.Statics)).
		Int("entities", len(snap.Entities)).
		Int("roots", len(snap.Roots)).
		Int("bytes", len(blob)).
		Int("failures", len(rep.failures)).
		Msg("engine: saved")
	return blob, rep, nil
}

// Load decodes blob and reconciles it onto host.
func (e *Engine) Load(ctx context.Context, host graph.Host, blob []byte) (rep *Report, err error) {
	start := time.Now()
	rep = newReport("load")
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrHookPanic, r)
		}
		e.observe(rep, err, start)
	}()

	if err := e.ready(host); err != nil {
		return rep, err
	}
	root, err := document.DecodeMap(blob, e.codec)
	if err != nil {
		return rep, err
	}
	if _, err := CheckFormat(root); err != nil {
		return rep, err
	}
	snap, err := ReadSnapshot(root, rep)
	if err != nil {
		return rep, err
	}
	rep.Scene, rep.Context = snap.Scene, snap.Context
	observability.RecordBlobSize("load", len(blob))

	if err := e.switchScene(ctx, host, snap.Scene); err != nil {
		return rep, err
	}

	r := reconciler{reg: e.reg, templates: e.templates, host: host, rep: rep}
	r.statics(snap.Statics)
	r.entities(snap.Entities)
	r.roots(snap.Roots)

	log.Info().
		Str("scene", snap.Scene).
		Int("entities", len(snap.Entities)).
		Int("roots", len(snap.Roots)).
		Int("failures", len(rep.failures)).
		Msg("engine: loaded")
	return rep, nil
}

// switchScene loads the saved scene when the host supports scenes and a
// different one is active. The settle point runs on every load, before
// reconciliation.
func (e *Engine) switchScene(ctx context.Context, host graph.Host, scene string) error {
	if sh, ok := host.(graph.SceneHost); ok && scene != "" && sh.ActiveScene() != scene {
		log.Debug().Str("from", sh.ActiveScene()).Str("to", scene).Msg("engine: switching scene")
		if err := sh.LoadScene(ctx, scene); err != nil {
			return fmt.Errorf("load scene %q: %w", scene, err)
		}
	}
	if e.settle != nil {
		if err := e.settle(ctx); err != nil {
			return fmt.Errorf("settle scene %q: %w", scene, err)
		}
	}
	return nil
}

func (e *Engine) observe(rep *Report, err error, start time.Time) {
	result := rep.result()
	if err != nil {
		result = "failed"
		log.Error().Err(err).Str("op", rep.Op).Msg("engine: operation failed")
	}
	observability.RecordOperation(rep.Op, result, time.Since(start))
}
