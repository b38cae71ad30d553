package shared

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKeyedMutexSerialisesPerKey(t *testing.T) {
	km := NewKeyedMutex()
	counter := 0

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			km.Lock("invoice-1")
			counter++
			km.Unlock("invoice-1")
		}()
	}
	wg.Wait()
	require.Equal(t, 50, counter)
}

func TestKeyedMutexDiscardsUnusedEntries(t *testing.T) {
	km := NewKeyedMutex()
	km.Lock("a")
	km.Lock("b")
	km.Unlock("a")
	km.Unlock("b")
	require.Empty(t, km.locks)
}
