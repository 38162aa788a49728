package runner_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tgagor/bern/pkg/runner"
)

func recorder(ran *[]string, name string, err error) runner.Task {
	return runner.Task{Name: name, Run: func(context.Context) error {
		*ran = append(*ran, name)
		return err
	}}
}

func TestRunInOrder(t *testing.T) {
	t.Parallel()
	var ran []string
	r := runner.New().AddTask(
		recorder(&ran, "base", nil),
		recorder(&ran, "app", nil),
	)

	outcomes, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"base", "app"}, ran)
	assert.Len(t, outcomes, 2)
	for _, o := range outcomes {
		assert.NoError(t, o.Err)
		assert.False(t, o.Skipped)
	}
}

func TestAddTaskSkipsDuplicates(t *testing.T) {
	t.Parallel()
	var ran []string
	r := runner.New().
		AddTask(recorder(&ran, "app", nil)).
		AddTask(recorder(&ran, "app", nil))

	assert.Equal(t, 1, r.Len())
	assert.True(t, r.Contains("app"))
	assert.False(t, r.Contains("base"))
}

func TestFailFast(t *testing.T) {
	t.Parallel()
	boom := errors.New("boom")
	var ran []string
	r := runner.New().AddTask(
		recorder(&ran, "first", boom),
		recorder(&ran, "second", nil),
	)

	outcomes, err := r.Run(context.Background())
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "first: boom")
	assert.Equal(t, []string{"first"}, ran)
	assert.True(t, outcomes[1].Skipped)
}

func TestKeepGoing(t *testing.T) {
	t.Parallel()
	first, third := errors.New("first failed"), errors.New("third failed")
	var ran []string
	r := runner.New().KeepGoing(true).AddTask(
		recorder(&ran, "first", first),
		recorder(&ran, "second", nil),
		recorder(&ran, "third", third),
	)

	outcomes, err := r.Run(context.Background())
	assert.Equal(t, []string{"first", "second", "third"}, ran)
	assert.ErrorIs(t, err, first)
	assert.ErrorIs(t, err, third)
	assert.NoError(t, outcomes[1].Err)
	assert.False(t, outcomes[2].Skipped)
}

func TestCancelledStopsEvenWhenKeepingGoing(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	var ran []string
	r := runner.New().KeepGoing(true).AddTask(
		runner.Task{Name: "first", Run: func(context.Context) error {
			ran = append(ran, "first")
			cancel()
			return nil
		}},
		recorder(&ran, "second", nil),
	)

	outcomes, err := r.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []string{"first"}, ran)
	assert.True(t, outcomes[1].Skipped)
}

func TestEmpty(t *testing.T) {
	t.Parallel()
	outcomes, err := runner.New().Run(context.Background())
	assert.NoError(t, err)
	assert.Empty(t, outcomes)
}
