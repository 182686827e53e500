package status

import (
	"testing"

	"github.com/scicoord/ssgfx/internal/domain"
)

func TestRecordStartsLoading(t *testing.T) {
	r := New()
	e := r.Error()
	if !e.Mode || e.Code != domain.CodeLoading {
		t.Fatalf("initial error = %+v, want (true, CodeLoading)", e)
	}
}

func TestRecordStopLifecycle(t *testing.T) {
	r := New()
	if r.StopRequested() || r.Stopped() {
		t.Fatal("new record should not be stopping or stopped")
	}

	r.RequestStop()
	if !r.StopRequested() {
		t.Fatal("expected StopRequested after RequestStop")
	}

	r.MarkStopped()
	if !r.Stopped() {
		t.Fatal("expected Stopped after MarkStopped")
	}
}

func TestRecordSnapshotIsConsistent(t *testing.T) {
	r := New()
	r.SetError(false, domain.CodeBlanked)
	r.SetPhase(domain.SciencePhase)

	snap := r.Snapshot()
	if snap.ErrorMode || snap.ErrorCode != domain.CodeBlanked {
		t.Fatalf("snapshot error = (%v, %v), want (false, CodeBlanked)", snap.ErrorMode, snap.ErrorCode)
	}
	if snap.Phase != domain.SciencePhase {
		t.Fatalf("snapshot phase = %v, want SciencePhase", snap.Phase)
	}
	if snap.Pid != 0 {
		t.Fatalf("snapshot pid = %d, want 0 with no handle set", snap.Pid)
	}
}
