package observability

import (
	"testing"
	"time"

	"github.com/danmuck/scenesave/internal/testutil/testlog"
)

func TestRegisterMetricsAndRecordersAreSafe(t *testing.T) {
	testlog.Start(t)
	RegisterMetrics()
	RegisterMetrics()

	RecordHTTPRequest("savectl", "GET", "/healthz", 200, 12*time.Millisecond)
	RecordOperation("save", "ok", 3*time.Millisecond)
	RecordRecordFailure("load", "unknown_cached_type")
	RecordBlobSize("save", 4096)
	RecordSlotOperation("file", "write", time.Millisecond, true)
}
