package scheduler

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"crisiswatch/internal/monlog"
)

type stubAction struct {
	name    string
	summary Summary
	err     error
	calls   int
}

func (a *stubAction) Name() string { return a.name }

func (a *stubAction) Run(_ context.Context) (Summary, error) {
	a.calls++
	if a.err != nil {
		return Summary{}, a.err
	}
	return a.summary, nil
}

type stubSink struct {
	mu      sync.Mutex
	entries []monlog.Entry
}

func (s *stubSink) Write(_ context.Context, entry monlog.Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
}

func (s *stubSink) byStatus(status string) []monlog.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	var matched []monlog.Entry
	for _, entry := range s.entries {
		if entry.Status == status {
			matched = append(matched, entry)
		}
	}
	return matched
}

func testRegistry() []Job {
	return []Job{
		{Name: "job-b", Spec: "0 3 * * *", ActionName: "action-b", Active: true},
		{Name: "job-a", Spec: "*/5 * * * *", ActionName: "action-a", Active: true},
		{Name: "job-off", Spec: "0 4 * * *", ActionName: "action-a", Active: false},
	}
}

func testScheduler(registry []Job, actions []Action, sink auditSink) *Scheduler {
	return New(registry, actions, sink, zerolog.Nop(), time.UTC, time.Minute)
}

func TestSchedulerInitializeIsIdempotent(t *testing.T) {
	sched := testScheduler(testRegistry(), []Action{
		&stubAction{name: "action-a"},
		&stubAction{name: "action-b"},
	}, &stubSink{})
	defer sched.StopAll()

	if err := sched.Initialize(); err != nil {
		t.Fatalf("first initialize failed: %v", err)
	}
	if err := sched.Initialize(); err != nil {
		t.Fatalf("second initialize failed: %v", err)
	}

	active := sched.ListActive()
	if len(active) != 2 {
		t.Fatalf("expected 2 active jobs, got %v", active)
	}
	if !sched.IsInitialized() {
		t.Fatalf("expected scheduler to report initialized")
	}
}

func TestSchedulerListActiveIsSorted(t *testing.T) {
	sched := testScheduler(testRegistry(), []Action{
		&stubAction{name: "action-a"},
		&stubAction{name: "action-b"},
	}, &stubSink{})
	defer sched.StopAll()

	if err := sched.Initialize(); err != nil {
		t.Fatalf("initialize failed: %v", err)
	}

	active := sched.ListActive()
	if len(active) != 2 || active[0] != "job-a" || active[1] != "job-b" {
		t.Fatalf("expected sorted [job-a job-b], got %v", active)
	}
}

func TestSchedulerSkipsJobsWithoutAction(t *testing.T) {
	sched := testScheduler(testRegistry(), []Action{
		&stubAction{name: "action-a"},
	}, &stubSink{})
	defer sched.StopAll()

	if err := sched.Initialize(); err != nil {
		t.Fatalf("initialize failed: %v", err)
	}

	active := sched.ListActive()
	if len(active) != 1 || active[0] != "job-a" {
		t.Fatalf("expected only job-a to activate, got %v", active)
	}
}

func TestSchedulerStopSingleJob(t *testing.T) {
	sched := testScheduler(testRegistry(), []Action{
		&stubAction{name: "action-a"},
		&stubAction{name: "action-b"},
	}, &stubSink{})
	defer sched.StopAll()

	if err := sched.Initialize(); err != nil {
		t.Fatalf("initialize failed: %v", err)
	}

	sched.Stop("job-a")
	active := sched.ListActive()
	if len(active) != 1 || active[0] != "job-b" {
		t.Fatalf("expected only job-b to remain, got %v", active)
	}

	// Stopping an unknown or already-stopped job must be a no-op.
	sched.Stop("job-a")
	sched.Stop("never-existed")
	if got := sched.ListActive(); len(got) != 1 {
		t.Fatalf("expected active set unchanged, got %v", got)
	}
}

func TestSchedulerStopAllResetsState(t *testing.T) {
	sched := testScheduler(testRegistry(), []Action{
		&stubAction{name: "action-a"},
		&stubAction{name: "action-b"},
	}, &stubSink{})

	if err := sched.Initialize(); err != nil {
		t.Fatalf("initialize failed: %v", err)
	}

	sched.StopAll()
	if sched.IsInitialized() {
		t.Fatalf("expected scheduler to report not initialized after StopAll")
	}
	if got := sched.ListActive(); len(got) != 0 {
		t.Fatalf("expected no active jobs after StopAll, got %v", got)
	}

	// The scheduler must come back up after a full stop.
	if err := sched.Initialize(); err != nil {
		t.Fatalf("re-initialize failed: %v", err)
	}
	defer sched.StopAll()
	if got := sched.ListActive(); len(got) != 2 {
		t.Fatalf("expected 2 active jobs after re-initialize, got %v", got)
	}
}

func TestSchedulerRunJobAuditsSuccess(t *testing.T) {
	sink := &stubSink{}
	action := &stubAction{
		name: "action-a",
		summary: Summary{
			Message:  "fetched 4 records",
			Metadata: map[string]any{"fetched": 4},
		},
	}
	sched := testScheduler(testRegistry(), []Action{action}, sink)

	job := Job{Name: "job-a", Spec: "*/5 * * * *", ActionName: "action-a", Active: true}
	sched.runJob(job, action)

	if action.calls != 1 {
		t.Fatalf("expected action to run once, ran %d times", action.calls)
	}

	started := sink.byStatus(monlog.StatusInfo)
	if len(started) != 1 {
		t.Fatalf("expected one started entry, got %d", len(started))
	}
	if started[0].Metadata["job"] != "job-a" || started[0].Metadata["spec"] != "*/5 * * * *" {
		t.Fatalf("unexpected started metadata: %v", started[0].Metadata)
	}
	if started[0].Metadata["run_id"] == "" {
		t.Fatalf("expected a run id in the started entry")
	}

	succeeded := sink.byStatus(monlog.StatusSuccess)
	if len(succeeded) != 1 {
		t.Fatalf("expected one success entry, got %d", len(succeeded))
	}
	if succeeded[0].Message != "fetched 4 records" {
		t.Fatalf("unexpected success message: %q", succeeded[0].Message)
	}
	if succeeded[0].Metadata["fetched"] != 4 {
		t.Fatalf("expected action metadata to carry through, got %v", succeeded[0].Metadata)
	}
}

func TestSchedulerRunJobAuditsFailure(t *testing.T) {
	sink := &stubSink{}
	action := &stubAction{
		name: "action-a",
		err:  fmt.Errorf("endpoint returned status 503"),
	}
	sched := testScheduler(testRegistry(), []Action{action}, sink)

	job := Job{Name: "job-a", Spec: "*/5 * * * *", ActionName: "action-a", Active: true}
	sched.runJob(job, action)

	failed := sink.byStatus(monlog.StatusError)
	if len(failed) != 1 {
		t.Fatalf("expected one error entry, got %d", len(failed))
	}
	if failed[0].Message == "" || failed[0].Metadata["job"] != "job-a" {
		t.Fatalf("unexpected error entry: %+v", failed[0])
	}

	if got := sink.byStatus(monlog.StatusSuccess); len(got) != 0 {
		t.Fatalf("expected no success entry for a failed run, got %d", len(got))
	}
}
