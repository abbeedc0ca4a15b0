// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package tester

import (
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// passSched returns a scheduler whose step callback always succeeds.
func passSched() *Scheduler {
	return NewScheduler(func(from, cycles int) (int, error) { return cycles, nil })
}

func TestSchedulerStepAlone(t *testing.T) {
	s := passSched()
	require.NoError(t, s.Step(5))
	require.NoError(t, s.Step(3))
	assert.Equal(t, 8, s.CurrentStep())
	assert.Equal(t, 0, s.ActiveThread())

	assert.Error(t, s.Step(0))
}

func TestForkRunsNewbornFirst(t *testing.T) {
	s := passSched()
	ran := false
	id, err := s.Fork("child", func() error {
		ran = true
		return s.Step(1)
	})
	require.NoError(t, err)
	assert.Equal(t, 1, id)
	assert.True(t, ran, "the newborn must run before Fork returns")
	assert.Equal(t, 0, s.ActiveThread())

	require.NoError(t, s.Join(id))
	assert.Equal(t, stateFinished, s.threads[id].state)
}

func TestForkJoinOrdering(t *testing.T) {
	// threads finishing at the same step are awakened in fork order
	s := passSched()
	var log []string
	a, err := s.Fork("a", func() error {
		if err := s.Step(3); err != nil {
			return err
		}
		log = append(log, "a")
		return nil
	})
	require.NoError(t, err)
	b, err := s.Fork("b", func() error {
		if err := s.Step(3); err != nil {
			return err
		}
		log = append(log, "b")
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, s.Join(a, b))
	assert.Equal(t, []string{"a", "b"}, log)
	assert.Equal(t, 3, s.CurrentStep())
}

func TestStepInterleaving(t *testing.T) {
	s := passSched()
	type wake struct {
		name string
		step int
	}
	var log []wake
	_, err := s.Fork("a", func() error {
		if err := s.Step(2); err != nil {
			return err
		}
		log = append(log, wake{"a", s.CurrentStep()})
		return nil
	})
	require.NoError(t, err)
	_, err = s.Fork("b", func() error {
		if err := s.Step(5); err != nil {
			return err
		}
		log = append(log, wake{"b", s.CurrentStep()})
		return nil
	})
	require.NoError(t, err)

	// stepping 10 as main interleaves both wake points
	require.NoError(t, s.Step(10))
	assert.Equal(t, 10, s.CurrentStep())
	assert.Equal(t, []wake{{"a", 2}, {"b", 5}}, log)
}

func TestOneActiveThread(t *testing.T) {
	s := passSched()
	for i := 0; i < 3; i++ {
		id, err := s.Fork("", func() error {
			for k := 0; k < 4; k++ {
				if err := s.Step(1); err != nil {
					return err
				}
				// exactly one thread is Active, and it is the scheduled one
				active := 0
				for _, th := range s.threads {
					if th.state == stateActive {
						active++
					}
				}
				if active != 1 || s.threads[s.active].state != stateActive {
					return errors.Errorf("%d active threads", active)
				}
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, i+1, id)
	}
	require.NoError(t, s.Step(6))
	require.NoError(t, s.JoinAll())
	for _, th := range s.threads[1:] {
		assert.Equal(t, stateFinished, th.state)
	}
}

func TestJoinCollectsChildError(t *testing.T) {
	s := passSched()
	boom := errors.New("boom")
	id, err := s.Fork("bad", func() error {
		if err := s.Step(1); err != nil {
			return err
		}
		return boom
	})
	require.NoError(t, err)
	assert.Equal(t, boom, errors.Cause(s.Join(id)))
}

func TestJoinCollectsChildPanic(t *testing.T) {
	s := passSched()
	id, err := s.Fork("bad", func() error {
		if err := s.Step(1); err != nil {
			return err
		}
		panic("kaboom")
	})
	require.NoError(t, err)
	err = s.Join(id)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panicked")
}

func TestDeadlockDetection(t *testing.T) {
	// two threads joining each other: the second one to block detects that
	// no thread can run, and the error propagates up the join chain.
	s := passSched()
	var aID, bID int
	aID, err := s.Fork("a", func() error {
		if err := s.Step(1); err != nil {
			return err
		}
		return s.Join(bID)
	})
	require.NoError(t, err)
	bID, err = s.Fork("b", func() error {
		if err := s.Step(1); err != nil {
			return err
		}
		return s.Join(aID)
	})
	require.NoError(t, err)

	assert.ErrorIs(t, s.Join(aID), ErrDeadlock)
}

func TestJoinFinishedThread(t *testing.T) {
	s := passSched()
	id, err := s.Fork("quick", func() error { return nil })
	require.NoError(t, err)
	assert.Equal(t, stateFinished, s.threads[id].state)
	require.NoError(t, s.Join(id))
	// joining again is still fine
	require.NoError(t, s.Join(id))
}

func TestNestedFork(t *testing.T) {
	s := passSched()
	var log []string
	_, err := s.Fork("outer", func() error {
		inner, err := s.Fork("inner", func() error {
			if err := s.Step(2); err != nil {
				return err
			}
			log = append(log, "inner")
			return nil
		})
		if err != nil {
			return err
		}
		if err := s.Join(inner); err != nil {
			return err
		}
		log = append(log, "outer")
		return nil
	})
	require.NoError(t, err)
	require.NoError(t, s.JoinAll())
	assert.Equal(t, []string{"inner", "outer"}, log)
}

func TestStepErrorPropagation(t *testing.T) {
	limit := errors.New("limit")
	s := NewScheduler(func(from, cycles int) (int, error) {
		if from+cycles > 4 {
			return cycles, limit
		}
		return cycles, nil
	})
	require.NoError(t, s.Step(4))
	assert.Equal(t, limit, s.Step(1))
}

func TestShutdownInterruptsParkedThreads(t *testing.T) {
	s := passSched()
	id, err := s.Fork("spinner", func() error {
		for {
			if err := s.Step(1); err != nil {
				return err
			}
		}
	})
	require.NoError(t, err)

	s.Shutdown()
	select {
	case <-s.threads[id].done:
	case <-time.After(5 * time.Second):
		t.Fatal("spinner did not terminate")
	}
	assert.Equal(t, stateFinished, s.threads[id].state)
}

func TestJoinArgumentChecks(t *testing.T) {
	s := passSched()
	assert.Error(t, s.Join(0), "main cannot be joined")
	assert.Error(t, s.Join(7), "unknown thread")
}
