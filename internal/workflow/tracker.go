package workflow

import (
	"fmt"
	"log/slog"
	"time"

	"subgen/internal/logging"
)

// StepTiming records how long one pipeline step took.
type StepTiming struct {
	Name     string
	Duration time.Duration
}

// Tracker logs numbered pipeline steps with elapsed time.
type Tracker struct {
	logger  *slog.Logger
	total   int
	current int
	start   time.Time
	step    string
	stepAt  time.Time
	timings []StepTiming
	now     func() time.Time
}

// NewTracker starts timing a run of total steps.
func NewTracker(logger *slog.Logger, total int) *Tracker {
	if logger == nil {
		logger = logging.NewNop()
	}
	t := &Tracker{logger: logger, total: total, now: time.Now}
	t.start = t.now()
	return t
}

// AddSteps grows (or with a negative n shrinks) the expected step count.
func (t *Tracker) AddSteps(n int) {
	t.total = max(t.total+n, t.current)
}

// Total returns the expected step count.
func (t *Tracker) Total() int {
	return t.total
}

// StartStep begins the next step, finishing any open one first.
func (t *Tracker) StartStep(name string) {
	if t.step != "" {
		t.FinishStep()
	}
	t.current++
	if t.current > t.total {
		t.total = t.current
	}
	t.step = name
	t.stepAt = t.now()
	t.logger.Info(fmt.Sprintf("[%d/%d] %s", t.current, t.total, name),
		logging.String(logging.FieldStep, name),
		logging.Int("step_index", t.current),
		logging.Int("step_total", t.total),
	)
}

// FinishStep closes the open step and logs its duration.
func (t *Tracker) FinishStep() {
	if t.step == "" {
		return
	}
	elapsed := t.now().Sub(t.stepAt)
	t.timings = append(t.timings, StepTiming{Name: t.step, Duration: elapsed})
	t.logger.Debug("step finished",
		logging.String(logging.FieldStep, t.step),
		logging.Duration("elapsed", elapsed.Round(time.Millisecond)),
	)
	t.step = ""
}

// Finish closes any open step and returns the total elapsed time.
func (t *Tracker) Finish() time.Duration {
	t.FinishStep()
	elapsed := t.now().Sub(t.start)
	t.logger.Info(fmt.Sprintf("done in %s", elapsed.Round(time.Millisecond)),
		logging.Duration("elapsed", elapsed.Round(time.Millisecond)),
		logging.Int("steps", t.current),
	)
	return elapsed
}

// Timings returns the finished step durations in order.
func (t *Tracker) Timings() []StepTiming {
	return append([]StepTiming(nil), t.timings...)
}
