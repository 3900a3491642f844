package testutil

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSequentialIDs_Counts(t *testing.T) {
	gen := NewSequentialIDs("run")

	assert.Equal(t, "run-1", gen.Generate())
	assert.Equal(t, "run-2", gen.Generate())
	assert.Equal(t, 2, gen.Issued())
}

func TestSequentialIDs_DefaultPrefix(t *testing.T) {
	assert.Equal(t, "tx-1", NewSequentialIDs("").Generate())
}

func TestSequentialIDs_ThreadSafe(t *testing.T) {
	gen := NewSequentialIDs("")
	const workers = 10

	var wg sync.WaitGroup
	seen := make(chan string, workers*50)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				seen <- gen.Generate()
			}
		}()
	}
	wg.Wait()
	close(seen)

	unique := make(map[string]struct{})
	for id := range seen {
		unique[id] = struct{}{}
	}
	assert.Len(t, unique, workers*50)
	assert.Equal(t, workers*50, gen.Issued())
}

func TestSheetID(t *testing.T) {
	assert.Equal(t, "sheet-1", string(SheetID(1)))
	assert.Equal(t, "sheet-12", string(SheetID(12)))
}
