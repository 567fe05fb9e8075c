package presence

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegistry(t *testing.T) {
	assert := assert.New(t)
	registry := NewRegistry()

	t.Run("Add", func(t *testing.T) {
		assert.True(registry.Add("100001"))
		assert.False(registry.Add("100001"))
		assert.True(registry.Add("100002"))
		assert.True(registry.Contains("100001"))
	})

	t.Run("Snapshot", func(t *testing.T) {
		assert.Equal([]string{"100001", "100002"}, registry.Snapshot())
	})

	t.Run("Remove", func(t *testing.T) {
		assert.True(registry.Remove("100001"))
		assert.False(registry.Remove("100001"))
		assert.False(registry.Contains("100001"))
	})

	t.Run("Clear", func(t *testing.T) {
		registry.Add("100003")
		assert.Equal([]string{"100002", "100003"}, registry.Clear())
		assert.Empty(registry.Snapshot())
	})
}

func TestRegistryConcurrent(t *testing.T) {
	registry := NewRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			registry.Add("100001")
		}()
		go func() {
			defer wg.Done()
			registry.Remove("100001")
		}()
	}
	wg.Wait()

	// No assertion beyond "did not race"; the final state depends on
	// scheduling.
	registry.Snapshot()
}
