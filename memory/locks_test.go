package memory

import (
	"sync"
	"testing"
)

func TestUserLocks_SerializesPerUser(t *testing.T) {
	locks := NewUserLocks()

	var counter int
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release := locks.Acquire("user1")
			defer release()
			counter++
		}()
	}
	wg.Wait()

	if counter != 50 {
		t.Errorf("Counter %d, want 50", counter)
	}
}

func TestUserLocks_IndependentUsers(t *testing.T) {
	locks := NewUserLocks()

	release1 := locks.Acquire("user1")
	defer release1()

	// A different user's lock must not block.
	done := make(chan struct{})
	go func() {
		release2 := locks.Acquire("user2")
		release2()
		close(done)
	}()
	<-done
}
