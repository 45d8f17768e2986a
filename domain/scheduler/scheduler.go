package scheduler

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/emergent-company/lims-pipeline/pkg/logger"
)

// DefaultTaskTimeout bounds a task run when no timeout is configured.
const DefaultTaskTimeout = 2 * time.Hour

// Scheduler runs named tasks on cron expressions or fixed intervals.
// A task whose previous run is still in progress is skipped.
type Scheduler struct {
	cron    *cron.Cron
	log     *slog.Logger
	timeout time.Duration
	tasks   map[string]cron.EntryID
	active  map[string]bool
	mu      sync.RWMutex
	running bool
}

// NewScheduler creates a scheduler with seconds precision.
func NewScheduler(log *slog.Logger, timeout time.Duration) *Scheduler {
	if timeout <= 0 {
		timeout = DefaultTaskTimeout
	}
	return &Scheduler{
		cron:    cron.New(cron.WithSeconds()),
		log:     log.With(logger.Scope("scheduler")),
		timeout: timeout,
		tasks:   make(map[string]cron.EntryID),
		active:  make(map[string]bool),
	}
}

// Start begins dispatching tasks.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}

	s.cron.Start()
	s.running = true
	s.log.Info("scheduler started", slog.Int("tasks", len(s.tasks)))
	return nil
}

// Stop waits for running tasks until ctx expires.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	s.mu.Unlock()

	stopCtx := s.cron.Stop()
	select {
	case <-stopCtx.Done():
		s.log.Info("scheduler stopped gracefully")
	case <-ctx.Done():
		s.log.Warn("scheduler stop timeout")
	}
	return nil
}

// AddCronTask adds a task with a cron expression, replacing any task of
// the same name.
// Cron format: "second minute hour day-of-month month day-of-week"
func (s *Scheduler) AddCronTask(name, schedule string, task TaskFunc) error {
	if err := s.add(name, schedule, task); err != nil {
		return err
	}
	s.log.Info("added cron task",
		slog.String("name", name),
		slog.String("schedule", schedule))
	return nil
}

// AddIntervalTask adds a task that runs at a fixed interval.
func (s *Scheduler) AddIntervalTask(name string, interval time.Duration, task TaskFunc) error {
	if err := s.add(name, "@every "+interval.String(), task); err != nil {
		return err
	}
	s.log.Info("added interval task",
		slog.String("name", name),
		slog.Duration("interval", interval))
	return nil
}

func (s *Scheduler) add(name, schedule string, task TaskFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entryID, ok := s.tasks[name]; ok {
		s.cron.Remove(entryID)
		delete(s.tasks, name)
	}

	entryID, err := s.cron.AddFunc(schedule, func() {
		s.runTask(name, task)
	})
	if err != nil {
		return err
	}
	s.tasks[name] = entryID
	return nil
}

// RemoveTask removes a scheduled task.
func (s *Scheduler) RemoveTask(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entryID, ok := s.tasks[name]; ok {
		s.cron.Remove(entryID)
		delete(s.tasks, name)
		s.log.Info("removed task", slog.String("name", name))
	}
}

// RunNow executes a registered task synchronously, outside its schedule.
func (s *Scheduler) RunNow(name string, task TaskFunc) bool {
	return s.runTask(name, task)
}

// runTask executes a task with a timeout. It reports false when the task
// was skipped because an earlier run is still active.
func (s *Scheduler) runTask(name string, task TaskFunc) bool {
	s.mu.Lock()
	if s.active[name] {
		s.mu.Unlock()
		s.log.Warn("scheduled task still running, skipping", slog.String("name", name))
		return false
	}
	s.active[name] = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.active, name)
		s.mu.Unlock()
	}()

	start := time.Now()
	s.log.Debug("running scheduled task", slog.String("name", name))

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if err := task(ctx); err != nil {
		s.log.Error("scheduled task failed",
			slog.String("name", name),
			logger.Error(err),
			slog.Duration("duration", time.Since(start)))
		return true
	}

	s.log.Debug("scheduled task completed",
		slog.String("name", name),
		slog.Duration("duration", time.Since(start)))
	return true
}

// ListTasks returns the names of all scheduled tasks, sorted.
func (s *Scheduler) ListTasks() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.tasks))
	for name := range s.tasks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// TaskInfo describes one scheduled task.
type TaskInfo struct {
	Name    string    `json:"name"`
	NextRun time.Time `json:"next_run"`
	PrevRun time.Time `json:"prev_run,omitempty"`
}

// GetTaskInfo returns the schedule state of every task.
func (s *Scheduler) GetTaskInfo() []TaskInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var info []TaskInfo
	for name, entryID := range s.tasks {
		entry := s.cron.Entry(entryID)
		if !entry.Valid() {
			continue
		}
		info = append(info, TaskInfo{
			Name:    name,
			NextRun: entry.Next,
			PrevRun: entry.Prev,
		})
	}
	sort.Slice(info, func(i, j int) bool { return info[i].Name < info[j].Name })
	return info
}

// IsRunning returns whether the scheduler is running.
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// TaskFunc is the function signature for scheduled tasks.
type TaskFunc func(ctx context.Context) error
