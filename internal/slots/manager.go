package slots

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/danmuck/scenesave/internal/document"
	"github.com/danmuck/scenesave/internal/engine"
	"github.com/danmuck/scenesave/internal/graph"
	"github.com/danmuck/scenesave/internal/observability"
	"github.com/danmuck/scenesave/internal/storage"
	"github.com/rs/zerolog/log"
)

// Manager saves and loads graphs into store slots.
type Manager struct {
	mu     sync.Mutex
	engine *engine.Engine
	store  storage.Store
	comp   storage.Compressor
}

func NewManager(e *engine.Engine, store storage.Store, comp storage.Compressor) *Manager {
	if comp == nil {
		comp = storage.None{}
	}
	return &Manager{engine: e, store: store, comp: comp}
}

func (m *Manager) Store() storage.Store { return m.store }

func (m *Manager) Engine() *engine.Engine { return m.engine }

// Save writes host into slot and reports whether it succeeded. On failure
// the previous content of the slot is untouched.
func (m *Manager) Save(ctx context.Context, host graph.Host, slot string, extra *document.Map) bool {
	_, err := m.SaveReport(ctx, host, slot, extra)
	return err == nil
}

// SaveReport is Save with the engine report and the fatal error.
func (m *Manager) SaveReport(ctx context.Context, host graph.Host, slot string, extra *document.Map) (*engine.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	start := time.Now()

	if err := storage.ValidateSlot(slot); err != nil {
		m.record("save", start, err)
		return nil, err
	}
	blob, rep, err := m.engine.Save(ctx, host, extra)
	if err == nil {
		blob, err = m.comp.Compress(blob)
	}
	if err == nil {
		err = m.store.Write(ctx, slot, blob)
	}
	m.record("save", start, err)
	if err != nil {
		log.Error().Err(err).Str("slot", slot).Msg("slots: save failed")
		return rep, fmt.Errorf("save slot %s: %w", slot, err)
	}
	log.Info().Str("slot", slot).Int("bytes", len(blob)).Str("compression", m.comp.Name()).Msg("slots: saved")
	return rep, nil
}

// Load reconciles slot onto host and reports whether it succeeded. A missing
// slot is a failure.
func (m *Manager) Load(ctx context.Context, host graph.Host, slot string) bool {
	_, err := m.LoadReport(ctx, host, slot)
	return err == nil
}

func (m *Manager) LoadReport(ctx context.Context, host graph.Host, slot string) (*engine.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	start := time.Now()

	blob, err := m.read(ctx, slot)
	if err != nil {
		m.record("load", start, err)
		log.Error().Err(err).Str("slot", slot).Msg("slots: load failed")
		return nil, err
	}
	rep, err := m.engine.Load(ctx, host, blob)
	m.record("load", start, err)
	if err != nil {
		log.Error().Err(err).Str("slot", slot).Msg("slots: load failed")
		return rep, fmt.Errorf("load slot %s: %w", slot, err)
	}
	return rep, nil
}

// Read returns the uncompressed blob stored in slot.
func (m *Manager) Read(ctx context.Context, slot string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.read(ctx, slot)
}

func (m *Manager) read(ctx context.Context, slot string) ([]byte, error) {
	packed, err := m.store.Read(ctx, slot)
	if err != nil {
		return nil, err
	}
	blob, err := m.comp.Decompress(packed)
	if err != nil {
		return nil, fmt.Errorf("decompress slot %s: %w", slot, err)
	}
	return blob, nil
}

func (m *Manager) Delete(ctx context.Context, slot string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	start := time.Now()
	err := m.store.Delete(ctx, slot)
	m.record("delete", start, err)
	return err
}

func (m *Manager) List(ctx context.Context) ([]storage.SlotInfo, error) {
	return m.store.List(ctx)
}

func (m *Manager) record(op string, start time.Time, err error) {
	observability.RecordSlotOperation(m.store.Name(), op, time.Since(start), err == nil)
}
