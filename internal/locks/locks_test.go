package locks_test

import (
	"sync"
	"testing"

	"github.com/atomisadev/karma-app/internal/locks"
)

func TestLockSerializesSameKey(t *testing.T) {
	km := locks.NewKeyedMutex()

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := km.Lock("user-1")
			defer unlock()
			counter++
		}()
	}
	wg.Wait()

	if counter != 100 {
		t.Errorf("counter = %d, want 100", counter)
	}
}

func TestLockIndependentKeys(t *testing.T) {
	km := locks.NewKeyedMutex()

	unlockA := km.Lock("user-a")
	defer unlockA()

	// A held lock on another key must not block this one.
	done := make(chan struct{})
	go func() {
		unlockB := km.Lock("user-b")
		unlockB()
		close(done)
	}()

	<-done
}

func TestUnlockAllowsReacquire(t *testing.T) {
	km := locks.NewKeyedMutex()

	unlock := km.Lock("user-1")
	unlock()

	unlock = km.Lock("user-1")
	unlock()
}
