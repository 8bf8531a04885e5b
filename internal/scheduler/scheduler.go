package scheduler

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"crisiswatch/internal/monlog"
)

type auditSink interface {
	Write(ctx context.Context, entry monlog.Entry)
}

// Scheduler owns one cron runner over the static job registry. Initialize,
// Stop, StopAll, and ListActive are safe for concurrent use. Same-job firings
// never overlap; distinct jobs run concurrently.
type Scheduler struct {
	registry  []Job
	actions   map[string]Action
	sink      auditSink
	logger    zerolog.Logger
	location  *time.Location
	runPeriod time.Duration

	mu          sync.Mutex
	runner      *cron.Cron
	entries     map[string]cron.EntryID
	initialized bool
}

// New builds a stopped scheduler. actions maps action names to
// implementations; registry jobs whose action is missing are skipped with a
// warning at Initialize time.
func New(registry []Job, actions []Action, sink auditSink, logger zerolog.Logger, location *time.Location, runTimeout time.Duration) *Scheduler {
	if location == nil {
		location = time.UTC
	}
	byName := make(map[string]Action, len(actions))
	for _, action := range actions {
		if action == nil {
			continue
		}
		byName[action.Name()] = action
	}
	return &Scheduler{
		registry:  registry,
		actions:   byName,
		sink:      sink,
		logger:    logger,
		location:  location,
		runPeriod: runTimeout,
		entries:   make(map[string]cron.EntryID),
	}
}

// Initialize registers every active registry job and starts the cron runner.
// Calling it again while initialized is a no-op.
func (s *Scheduler) Initialize() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.initialized {
		s.logger.Debug().Msg("scheduler already initialized")
		return nil
	}

	runner := cron.New(
		cron.WithLocation(s.location),
		cron.WithChain(
			cron.Recover(cronLogger{s.logger}),
			cron.SkipIfStillRunning(cronLogger{s.logger}),
		),
	)

	entries := make(map[string]cron.EntryID, len(s.registry))
	for _, job := range s.registry {
		if !job.Active {
			continue
		}
		action, ok := s.actions[job.ActionName]
		if !ok {
			s.logger.Warn().
				Str("job", job.Name).
				Str("action", job.ActionName).
				Msg("job skipped, no action registered under that name")
			continue
		}

		job := job
		entryID, err := runner.AddFunc(job.Spec, func() {
			s.runJob(job, action)
		})
		if err != nil {
			return fmt.Errorf("schedule job %q (%s): %w", job.Name, job.Spec, err)
		}
		entries[job.Name] = entryID
	}

	runner.Start()
	s.runner = runner
	s.entries = entries
	s.initialized = true

	s.logger.Info().
		Int("jobs", len(entries)).
		Str("timezone", s.location.String()).
		Msg("scheduler initialized")
	return nil
}

// Stop deactivates one job by name. Unknown names are a no-op so stopping an
// already-stopped job cannot fail.
func (s *Scheduler) Stop(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entryID, ok := s.entries[name]
	if !ok || s.runner == nil {
		return
	}
	s.runner.Remove(entryID)
	delete(s.entries, name)
	s.logger.Info().Str("job", name).Msg("job stopped")
}

// StopAll deactivates every job and stops the runner. The scheduler can be
// initialized again afterwards.
func (s *Scheduler) StopAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.runner != nil {
		stopCtx := s.runner.Stop()
		// Wait for in-flight jobs so shutdown does not orphan a run.
		<-stopCtx.Done()
	}
	s.runner = nil
	s.entries = make(map[string]cron.EntryID)
	s.initialized = false
	s.logger.Info().Msg("scheduler stopped")
}

// ListActive returns the names of currently scheduled jobs, sorted.
func (s *Scheduler) ListActive() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.entries))
	for name := range s.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsInitialized reports whether the runner is active.
func (s *Scheduler) IsInitialized() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.initialized
}

// runJob executes one firing: audit "started", run the action under the run
// timeout, audit the outcome. Action failures are recorded, never propagated.
func (s *Scheduler) runJob(job Job, action Action) {
	runID := uuid.NewString()

	ctx := context.Background()
	cancel := func() {}
	if s.runPeriod > 0 {
		ctx, cancel = context.WithTimeout(ctx, s.runPeriod)
	}
	defer cancel()

	logger := s.logger.With().
		Str("job", job.Name).
		Str("action", job.ActionName).
		Str("run_id", runID).
		Logger()
	logger.Info().Msg("job run started")

	s.audit(ctx, monlog.Entry{
		SourceType: "scheduler",
		Action:     job.ActionName,
		Status:     monlog.StatusInfo,
		Message:    fmt.Sprintf("job %s started", job.Name),
		Metadata: map[string]any{
			"job":    job.Name,
			"spec":   job.Spec,
			"run_id": runID,
		},
	})

	summary, err := action.Run(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("job run failed")
		s.audit(ctx, monlog.Entry{
			SourceType: "scheduler",
			Action:     job.ActionName,
			Status:     monlog.StatusError,
			Message:    fmt.Sprintf("job %s failed: %v", job.Name, err),
			Metadata: map[string]any{
				"job":    job.Name,
				"run_id": runID,
			},
		})
		return
	}

	logger.Info().Str("summary", summary.Message).Msg("job run finished")
	metadata := summary.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	metadata["job"] = job.Name
	metadata["run_id"] = runID
	s.audit(ctx, monlog.Entry{
		SourceType: "scheduler",
		Action:     job.ActionName,
		Status:     monlog.StatusSuccess,
		Message:    summary.Message,
		Metadata:   metadata,
	})
}

func (s *Scheduler) audit(ctx context.Context, entry monlog.Entry) {
	if s.sink == nil {
		return
	}
	s.sink.Write(ctx, entry)
}

// cronLogger adapts zerolog to cron's logging interface so recover/skip
// events land in the structured log.
type cronLogger struct {
	logger zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug().Fields(fieldsFromPairs(keysAndValues)).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error().Err(err).Fields(fieldsFromPairs(keysAndValues)).Msg(msg)
}

func fieldsFromPairs(pairs []any) map[string]any {
	fields := make(map[string]any, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		key, ok := pairs[i].(string)
		if !ok {
			key = fmt.Sprint(pairs[i])
		}
		fields[key] = pairs[i+1]
	}
	return fields
}
