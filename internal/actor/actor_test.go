package actor_test

import (
	"context"
	"testing"
	"time"

	"github.com/parleyhq/parley/internal/actor"
	"github.com/parleyhq/parley/internal/actor/actortest"
)

type testEvent struct {
	actor.InputBase
	n int
}

type testEffect struct {
	actor.EffectBase
	n int
}

func TestActorProcessesInputsSequentially(t *testing.T) {
	t.Parallel()

	rt := &actortest.FakeRuntime{}

	reducer := func(state int, input actor.Input) (int, []actor.Effect) {
		ev, ok := input.(testEvent)
		if !ok {
			return state, nil
		}
		next := state + ev.n
		return next, []actor.Effect{testEffect{n: ev.n}}
	}

	a := actor.New[int](0, reducer, rt)
	a.Start()
	defer a.Stop()

	for i := 1; i <= 5; i++ {
		if !a.Enqueue(testEvent{n: i}) {
			t.Fatalf("failed to enqueue %d", i)
		}
	}

	// Poll for state convergence (actor is async).
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if a.State() == 15 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if a.State() != 15 {
		t.Fatalf("state=%d, want 15", a.State())
	}

	effects := rt.Effects()
	if len(effects) != 5 {
		t.Fatalf("effects=%d, want 5", len(effects))
	}
}

func TestActorRuntimeInputsFeedBack(t *testing.T) {
	t.Parallel()

	rt := &actortest.FakeRuntime{}
	rt.EmitFn = func(_ context.Context, eff actor.Effect, emit func(actor.Input)) {
		// Each effect for an odd n triggers one follow-up event.
		e, ok := eff.(testEffect)
		if ok && e.n%2 == 1 {
			emit(testEvent{n: e.n + 1})
		}
	}

	reducer := func(state int, input actor.Input) (int, []actor.Effect) {
		ev, ok := input.(testEvent)
		if !ok {
			return state, nil
		}
		if ev.n >= 4 {
			return state + ev.n, nil
		}
		return state + ev.n, []actor.Effect{testEffect{n: ev.n}}
	}

	a := actor.New[int](0, reducer, rt)
	a.Start()
	defer a.Stop()

	if !a.Enqueue(testEvent{n: 1}) {
		t.Fatalf("failed to enqueue")
	}

	// 1 -> effect(1) -> event(2) -> effect(2) -> no follow-up; total 3.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if a.State() == 3 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("state=%d, want 3", a.State())
}

func TestActorStopRejectsInputs(t *testing.T) {
	t.Parallel()

	a := actor.New[int](0, func(state int, _ actor.Input) (int, []actor.Effect) {
		return state, nil
	}, &actortest.FakeRuntime{})
	a.Start()
	a.Stop()

	select {
	case <-a.Done():
	case <-time.After(2 * time.Second):
		t.Fatalf("actor did not stop")
	}
	if a.Enqueue(testEvent{n: 1}) {
		t.Fatalf("stopped actor must reject inputs")
	}
}
