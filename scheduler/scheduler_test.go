package scheduler

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arts_scrooper/config"
	"arts_scrooper/models"
	"arts_scrooper/services"
	"arts_scrooper/storage"
)

type fakeRunner struct {
	mu       sync.Mutex
	runs     int
	commands []models.CommandType
	err      error
}

func (r *fakeRunner) Run(context.Context) (*models.ScrapeReport, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs++
	if r.err != nil {
		return nil, r.err
	}
	return &models.ScrapeReport{Message: services.MsgNoNewEvents}, nil
}

func (r *fakeRunner) HandleCommand(_ context.Context, cmd models.Command) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands = append(r.commands, cmd.Command)
	return nil
}

func (r *fakeRunner) snapshot() (int, []models.CommandType) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.runs, append([]models.CommandType(nil), r.commands...)
}

func TestScheduler_IntervalRuns(t *testing.T) {
	runner := &fakeRunner{}
	s := New(config.SchedulerConfig{Interval: 10 * time.Millisecond}, runner, nil)

	require.NoError(t, s.Start(context.Background()))
	assert.Eventually(t, func() bool {
		runs, _ := runner.snapshot()
		return runs >= 2
	}, 2*time.Second, 5*time.Millisecond)
	s.Stop()

	runs, _ := runner.snapshot()
	time.Sleep(30 * time.Millisecond)
	after, _ := runner.snapshot()
	assert.Equal(t, runs, after, "runs continued after Stop")
}

func TestScheduler_InvalidCron(t *testing.T) {
	s := New(config.SchedulerConfig{Cron: "every tuesday"}, &fakeRunner{}, nil)
	err := s.Start(context.Background())
	require.Error(t, err)
	s.Stop()
}

func TestScheduler_PausedRunIsSkippedQuietly(t *testing.T) {
	runner := &fakeRunner{err: services.ErrPaused}
	s := New(config.SchedulerConfig{}, runner, nil)

	s.runScheduled(context.Background())
	runs, _ := runner.snapshot()
	assert.Equal(t, 1, runs)

	runner.err = errors.New("merge failed")
	s.runScheduled(context.Background())
}

func TestScheduler_ProcessesQueuedCommands(t *testing.T) {
	queue, err := storage.NewSQLiteStore(filepath.Join(t.TempDir(), "scraper.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = queue.Close() })

	_, err = queue.EnqueueCommand(models.CmdPause, nil)
	require.NoError(t, err)
	_, err = queue.EnqueueCommand(models.CmdScrapeNow, nil)
	require.NoError(t, err)

	runner := &fakeRunner{}
	s := New(config.SchedulerConfig{}, runner, queue)
	s.pollInterval = 10 * time.Millisecond

	require.NoError(t, s.Start(context.Background()))
	assert.Eventually(t, func() bool {
		_, cmds := runner.snapshot()
		return len(cmds) == 2
	}, 2*time.Second, 5*time.Millisecond)
	s.Stop()

	_, cmds := runner.snapshot()
	assert.Equal(t, []models.CommandType{models.CmdPause, models.CmdScrapeNow}, cmds)

	pending, err := queue.GetPendingCommands()
	require.NoError(t, err)
	assert.Empty(t, pending)
}
