package promise

import (
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"pgregory.net/rapid"

	"github.com/stretchr/testify/require"
)

func TestChainTotalOrder(t *testing.T) {
	t.Run("1000 chained handlers observe a strict sequence", func(t *testing.T) {
		const steps = 1000

		// Handlers of one chain are serialized by the chain itself, so
		// the slice needs no locking; the race detector verifies that
		// claim for free.
		observed := make([]int, 0, steps)
		var inFlight, violations atomic.Int32

		p := Resolve(0)
		for i := 0; i < steps; i++ {
			p = p.Then(func(value int) Result[int] {
				if inFlight.Add(1) != 1 {
					violations.Add(1)
				}
				observed = append(observed, value)
				inFlight.Add(-1)
				return Val(value + 1)
			})
		}

		value, err := p.Await()

		require.NoError(t, err)
		require.Equal(t, steps, value)
		require.Zero(t, violations.Load(), "two handlers of the same chain ran concurrently")
		require.Len(t, observed, steps)
		for i, v := range observed {
			require.Equal(t, i, v)
		}
	})
}

func TestChainAppendWhileDraining(t *testing.T) {
	t.Run("Handler appended while the chain drains runs in order", func(t *testing.T) {
		registry := NewCallsRegistry(3)

		p := Go(func() (int, error) {
			registry.Register("constructor")
			time.Sleep(30 * time.Millisecond)
			return 1, nil
		})
		q := p.Then(func(value int) Result[int] {
			registry.Register("first")
			return Val(value + 1)
		})
		// The constructor is still sleeping; this append happens while
		// the chain is draining.
		r := q.Then(func(value int) Result[int] {
			registry.Register("second")
			return Val(value + 1)
		})

		value, err := r.Await()

		require.NoError(t, err)
		require.Equal(t, 3, value)
		registry.AssertCompletedBefore(t, "constructor|first|second", time.Second)
	})

	t.Run("Idle chain resumes draining on a later append", func(t *testing.T) {
		p := Resolve(1)
		p.Wait()
		// Give the chain a moment to go idle after the settlement.
		time.Sleep(10 * time.Millisecond)

		q := p.Then(func(value int) Result[int] {
			return Val(value + 1)
		})

		value, err := q.Await()

		require.NoError(t, err)
		require.Equal(t, 2, value)
	})
}

func TestRejectionPassThrough(t *testing.T) {
	t.Run("Then without a rejection handler forwards the rejection unchanged", func(t *testing.T) {
		registry := NewCallsRegistry(1)
		reason := errors.New("error reason")

		var caught error
		p := Reject[int](reason).
			Then(func(value int) Result[int] {
				registry.Register("fulfillment")
				return Val(value)
			}).
			Catch(func(reason error) Result[int] {
				registry.Register("catch")
				caught = reason
				return Err[int](reason)
			})

		_, err := p.Await()

		require.Same(t, reason, err)
		require.Same(t, reason, caught)
		registry.AssertCompletedBefore(t, "catch", time.Second)
	})

	t.Run("Catch on a fulfilled chain is a pass-through", func(t *testing.T) {
		registry := NewCallsRegistry(0)

		p := Resolve(123).Catch(func(reason error) Result[int] {
			registry.Register("catch")
			return Err[int](reason)
		})

		value, err := p.Await()

		require.NoError(t, err)
		require.Equal(t, 123, value)
		registry.AssertCurrentCallsStackIs(t, "")
	})

	t.Run("Rejection handler recovers the chain", func(t *testing.T) {
		p := Reject[int](errors.New("error reason")).
			Catch(func(reason error) Result[int] {
				return Val(7)
			}).
			Then(func(value int) Result[int] {
				return Val(value + 1)
			})

		value, err := p.Await()

		require.NoError(t, err)
		require.Equal(t, 8, value)
	})

	t.Run("Then with a rejection handler consumes the rejection", func(t *testing.T) {
		reason := errors.New("error reason")

		p := Reject[int](reason).Then(
			func(value int) Result[int] {
				return Val(value)
			},
			func(reason error) Result[int] {
				return Val(-1)
			},
		)

		value, err := p.Await()

		require.NoError(t, err)
		require.Equal(t, -1, value)
	})
}

func TestFlattening(t *testing.T) {
	t.Run("Handler returning a promise adopts its settlement", func(t *testing.T) {
		p := Resolve(1).Then(func(value int) Result[int] {
			return Go(func() (int, error) {
				time.Sleep(20 * time.Millisecond)
				return value + 41, nil
			})
		})

		value, err := p.Await()

		require.NoError(t, err)
		require.Equal(t, 42, value)
	})

	t.Run("Handler returning a rejecting promise rejects the chain", func(t *testing.T) {
		reason := errors.New("inner reason")

		p := Resolve(1).Then(func(value int) Result[int] {
			return Reject[int](reason)
		})

		_, err := p.Await()

		require.Same(t, reason, err)
	})
}

func TestHandlerPanic(t *testing.T) {
	t.Run("Panicking handler rejects the chain", func(t *testing.T) {
		reason := errors.New("handler reason")

		p := Resolve(1).Then(func(value int) Result[int] {
			panic(reason)
		})

		_, err := p.Await()

		require.Same(t, reason, err)
	})
}

func TestFinally(t *testing.T) {
	t.Run("Finalizer runs on the fulfillment path and forwards the value", func(t *testing.T) {
		registry := NewCallsRegistry(1)

		p := Resolve("value").Finally(func() Result[string] {
			registry.Register("finally")
			return nil
		})

		value, err := p.Await()

		require.NoError(t, err)
		require.Equal(t, "value", value)
		registry.AssertCompletedBefore(t, "finally", time.Second)
	})

	t.Run("Finalizer runs on the rejection path and forwards the reason", func(t *testing.T) {
		registry := NewCallsRegistry(1)
		reason := errors.New("error reason")

		p := Reject[string](reason).Finally(func() Result[string] {
			registry.Register("finally")
			return nil
		})

		_, err := p.Await()

		require.Same(t, reason, err)
		registry.AssertCompletedBefore(t, "finally", time.Second)
	})

	t.Run("Panicking finalizer replaces the original settlement", func(t *testing.T) {
		throw1 := errors.New("throw1")

		p := Resolve("value").Finally(func() Result[string] {
			panic(throw1)
		})

		value, err := p.Await()

		require.Same(t, throw1, err)
		require.Zero(t, value, "the original value must be lost")
	})

	t.Run("Finalizer returning Err replaces the original settlement", func(t *testing.T) {
		reason := errors.New("finalizer reason")

		p := Resolve("value").Finally(func() Result[string] {
			return Err[string](reason)
		})

		_, err := p.Await()

		require.Same(t, reason, err)
	})

	t.Run("Finalizer returning a rejecting promise replaces the original settlement", func(t *testing.T) {
		reason := errors.New("finalizer reason")

		p := Resolve("value").Finally(func() Result[string] {
			return Reject[string](reason)
		})

		_, err := p.Await()

		require.Same(t, reason, err)
	})

	t.Run("Finalizer returning a fulfilling promise keeps the original settlement", func(t *testing.T) {
		p := Resolve("value").Finally(func() Result[string] {
			return Resolve("ignored")
		})

		value, err := p.Await()

		require.NoError(t, err)
		require.Equal(t, "value", value)
	})
}

func TestTypeChangingThen(t *testing.T) {
	t.Run("Then transforms the value type", func(t *testing.T) {
		p := Then(Resolve(42), func(value int) Result[string] {
			return Val(fmt.Sprintf("%d!", value))
		})

		value, err := p.Await()

		require.NoError(t, err)
		require.Equal(t, "42!", value)
	})

	t.Run("Then forwards a rejection across the type change", func(t *testing.T) {
		reason := errors.New("error reason")

		p := Then(Reject[int](reason), func(value int) Result[string] {
			return Val("unreachable")
		})

		_, err := p.Await()

		require.Same(t, reason, err)
	})
}

func TestDelay(t *testing.T) {
	t.Run("Delay forwards a fulfillment after the duration", func(t *testing.T) {
		start := time.Now()

		value, err := Resolve(5).Delay(30 * time.Millisecond).Await()

		require.NoError(t, err)
		require.Equal(t, 5, value)
		require.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
	})

	t.Run("Delay forwards a rejection after the duration", func(t *testing.T) {
		reason := errors.New("error reason")

		_, err := Reject[int](reason).Delay(10 * time.Millisecond).Await()

		require.Same(t, reason, err)
	})
}

func TestChainOrderRandomized(t *testing.T) {
	pool := NewPool(2)

	rapid.Check(t, func(t *rapid.T) {
		steps := rapid.IntRange(1, 40).Draw(t, "steps")

		observed := make([]int, 0, steps)

		p := Resolve(0)
		for i := 0; i < steps; i++ {
			exec := Executor(nil)
			if rapid.Bool().Draw(t, fmt.Sprintf("bounded-%d", i)) {
				exec = pool
			}
			delay := rapid.IntRange(0, 2).Draw(t, fmt.Sprintf("delay-%d", i))
			p = p.ThenOn(exec, func(value int) Result[int] {
				time.Sleep(time.Duration(delay) * time.Millisecond)
				observed = append(observed, value)
				return Val(value + 1)
			})
		}

		value, err := p.Await()

		if err != nil {
			t.Fatalf("unexpected rejection: %v", err)
		}
		if value != steps {
			t.Fatalf("expected %d, got %d", steps, value)
		}
		for i, v := range observed {
			if i != v {
				t.Fatalf("handler %d observed %d", i, v)
			}
		}
	})
}
