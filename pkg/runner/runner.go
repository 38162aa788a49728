package runner

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
)

// Task is one named unit of work, typically the build of a single target.
type Task struct {
	Name string
	Run  func(ctx context.Context) error
}

// Outcome records what happened to a task. Skipped tasks never started,
// either because an earlier task failed or because the run was cancelled.
type Outcome struct {
	Name    string
	Err     error
	Skipped bool
}

type Runner struct {
	tasks     []Task
	keepGoing bool
}

func New() Runner {
	return Runner{
		tasks:     []Task{},
		keepGoing: false,
	}
}

func (r Runner) Contains(name string) bool {
	for _, t := range r.tasks {
		if t.Name == name {
			return true
		}
	}
	return false
}

func (r Runner) AddTask(task ...Task) Runner {
	// add only uniq names
	for _, t := range task {
		if !r.Contains(t.Name) {
			r.tasks = append(r.tasks, t)
		}
	}
	return r
}

func (r Runner) KeepGoing(flag bool) Runner {
	r.keepGoing = flag
	return r
}

func (r Runner) Len() int {
	return len(r.tasks)
}

// Run executes the tasks in order. It stops at the first failure unless
// keep-going is set, and always stops when ctx is done. The returned error
// joins every task failure.
func (r Runner) Run(ctx context.Context) ([]Outcome, error) {
	outcomes := make([]Outcome, 0, len(r.tasks))
	var failures []error
	stop, cancelled := false, false

	for _, t := range r.tasks {
		if !stop && ctx.Err() != nil {
			cancelled = true
		}
		if stop || cancelled {
			log.Debug().Str("task", t.Name).Msg("Skipping")
			outcomes = append(outcomes, Outcome{Name: t.Name, Skipped: true})
			continue
		}

		err := t.Run(ctx)
		outcomes = append(outcomes, Outcome{Name: t.Name, Err: err})
		if err == nil {
			continue
		}

		failures = append(failures, fmt.Errorf("%s: %w", t.Name, err))
		if !r.keepGoing {
			log.Debug().Str("task", t.Name).Msg("Failed, stopping")
			stop = true
		} else {
			log.Warn().Err(err).Str("task", t.Name).Msg("Failed, keeping going")
		}
	}

	if cancelled && !containsCancel(failures) {
		failures = append(failures, ctx.Err())
	}
	return outcomes, errors.Join(failures...)
}

func containsCancel(failures []error) bool {
	for _, err := range failures {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return true
		}
	}
	return false
}
