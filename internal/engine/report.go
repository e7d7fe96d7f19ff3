package engine

import (
	"fmt"

	"github.com/danmuck/scenesave/internal/document"
	"github.com/danmuck/scenesave/internal/observability"
	"github.com/rs/zerolog/log"
	"go.uber.org/multierr"
)

// Failure is one isolated per-record problem.
type Failure struct {
	// Subject names the record: a type, an entity name or an identity.
	Subject string
	Kind    string
	Err     error
}

func (f Failure) Error() string {
	return fmt.Sprintf("%s: %v", f.Subject, f.Err)
}

func (f Failure) Unwrap() error { return f.Err }

// Report collects the per-record failures of one Save or Load.
type Report struct {
	Op string
	// Scene is the scene name written to or read from the blob.
	Scene string
	// Context holds caller leaves stored alongside the graph. Set on load.
	Context *document.Map

	failures []Failure
	err      error
}

func newReport(op string) *Report {
	return &Report{Op: op}
}

func (r *Report) add(subject string, err error) {
	kind := Kind(err)
	log.Error().
		Err(err).
		Str("op", r.Op).
		Str("subject", subject).
		Str("kind", kind).
		Msg("engine: record skipped")
	observability.RecordRecordFailure(r.Op, kind)
	f := Failure{Subject: subject, Kind: kind, Err: err}
	r.failures = append(r.failures, f)
	r.err = multierr.Append(r.err, f)
}

// Failures returns the isolated failures in the order they happened.
func (r *Report) Failures() []Failure {
	return append([]Failure(nil), r.failures...)
}

// Err combines every failure, or nil.
func (r *Report) Err() error {
	return r.err
}

// OK reports whether the operation had no per-record failures.
func (r *Report) OK() bool {
	return len(r.failures) == 0
}

func (r *Report) result() string {
	if r.OK() {
		return "ok"
	}
	return "partial"
}
