package host

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PawelJastrzebski/quadratic-fork/internal/ir"
)

func strPtr(s string) *string { return &s }

func TestCodeResultOutputScalar(t *testing.T) {
	out := CodeResult{Success: true, OutputValue: strPtr("10")}.Output()
	assert.Equal(t, int64(1), out.Width)
	assert.Equal(t, ir.KindNumber, out.Get(0, 0).Kind())
	assert.Equal(t, "10", out.Get(0, 0).Display())
}

func TestCodeResultOutputArray(t *testing.T) {
	out := CodeResult{Success: true, ArrayOutput: [][]string{{"1", "a"}, {"true"}}}.Output()
	assert.Equal(t, int64(2), out.Width)
	assert.Equal(t, int64(2), out.Height)
	assert.Equal(t, "a", out.Get(1, 0).Display())
	assert.Equal(t, ir.KindBool, out.Get(0, 1).Kind())
	assert.Equal(t, ir.KindBlank, out.Get(1, 1).Kind())
}

func TestCodeResultOutputEmpty(t *testing.T) {
	out := CodeResult{Success: true}.Output()
	assert.Equal(t, ir.KindBlank, out.Get(0, 0).Kind())
}

func TestCodeResultJSON(t *testing.T) {
	var r CodeResult
	data := `{"transaction_id":"t1","success":false,"error_msg":"boom","line_number":3}`
	require.NoError(t, json.Unmarshal([]byte(data), &r))

	assert.Equal(t, "t1", r.TransactionID)
	require.NotNil(t, r.ErrorMsg)
	assert.Equal(t, "boom", *r.ErrorMsg)
	require.NotNil(t, r.LineNumber)
	assert.Equal(t, uint32(3), *r.LineNumber)
}

func TestQueueFIFO(t *testing.T) {
	q := NewQueue()
	require.NoError(t, q.Dispatch(CodeRequest{TransactionID: "a"}))
	require.NoError(t, q.Dispatch(CodeRequest{TransactionID: "b"}))
	assert.Equal(t, 2, q.Len())

	first, ok := q.TryNext()
	require.True(t, ok)
	assert.Equal(t, "a", first.TransactionID)

	second, err := q.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "b", second.TransactionID)

	_, ok = q.TryNext()
	assert.False(t, ok)
}

func TestQueueNextWaits(t *testing.T) {
	q := NewQueue()
	var wg sync.WaitGroup
	wg.Add(1)

	var got CodeRequest
	go func() {
		defer wg.Done()
		got, _ = q.Next(context.Background())
	}()

	time.Sleep(10 * time.Millisecond)
	require.NoError(t, q.Dispatch(CodeRequest{TransactionID: "late"}))
	wg.Wait()
	assert.Equal(t, "late", got.TransactionID)
}

func TestQueueNextHonorsContext(t *testing.T) {
	q := NewQueue()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := q.Next(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestQueueClose(t *testing.T) {
	q := NewQueue()
	require.NoError(t, q.Dispatch(CodeRequest{TransactionID: "pending"}))
	q.Close()
	q.Close()

	assert.ErrorIs(t, q.Dispatch(CodeRequest{}), ErrUnavailable)

	req, err := q.Next(context.Background())
	require.NoError(t, err, "pending work drains after close")
	assert.Equal(t, "pending", req.TransactionID)

	_, err = q.Next(context.Background())
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestRecorder(t *testing.T) {
	r := &Recorder{}
	require.NoError(t, r.Dispatch(CodeRequest{TransactionID: "x"}))
	last, ok := r.Last()
	require.True(t, ok)
	assert.Equal(t, "x", last.TransactionID)

	r.Down = true
	assert.ErrorIs(t, r.Dispatch(CodeRequest{}), ErrUnavailable)
	assert.ErrorIs(t, Unavailable{}.Dispatch(CodeRequest{}), ErrUnavailable)

	r.Reset()
	_, ok = r.Last()
	assert.False(t, ok)
}
