package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PawelJastrzebski/quadratic-fork/internal/ir"
	"github.com/PawelJastrzebski/quadratic-fork/internal/operation"
)

func TestReadSheets_Empty(t *testing.T) {
	s := createTestStore(t)

	sheets, err := s.ReadSheets(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, sheets)
	assert.Empty(t, sheets)
}

func TestReadTransactions_RoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	f, r := createTestTransaction(t, "tx-1", "42")
	f.Cursor = "A1"
	seq, _, err := s.WriteTransaction(ctx, f, r)
	require.NoError(t, err)

	entries, err := s.ReadTransactions(ctx, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	e := entries[0]
	assert.Equal(t, seq, e.Seq)
	assert.Equal(t, "tx-1", e.Forward.ID)
	assert.Equal(t, "A1", e.Forward.Cursor)
	assert.Equal(t, operation.TypeUser, e.Forward.Type)
	require.Len(t, e.Forward.Operations, 1)

	set, ok := e.Forward.Operations[0].(operation.SetCellValues)
	require.True(t, ok)
	assert.Equal(t, "42", set.Values.Get(0, 0).Display())

	clear, ok := e.Reverse.Operations[0].(operation.SetCellValues)
	require.True(t, ok)
	assert.Equal(t, ir.KindBlank, clear.Values.Get(0, 0).Kind())

	digest, err := operation.Digest(f.Operations)
	require.NoError(t, err)
	assert.Equal(t, digest, e.Digest)
}

func TestReadTransactions_After(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	var seqs []int64
	for _, id := range []string{"tx-1", "tx-2", "tx-3"} {
		f, r := createTestTransaction(t, id, id)
		seq, _, err := s.WriteTransaction(ctx, f, r)
		require.NoError(t, err)
		seqs = append(seqs, seq)
	}

	entries, err := s.ReadTransactions(ctx, seqs[0])
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "tx-2", entries[0].Forward.ID)
	assert.Equal(t, "tx-3", entries[1].Forward.ID)
}

func TestReadTransactions_DetectsTampering(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	f, r := createTestTransaction(t, "tx-1", "1")
	_, _, err := s.WriteTransaction(ctx, f, r)
	require.NoError(t, err)

	_, err = s.db.Exec("UPDATE transactions SET digest = 'tampered' WHERE id = 'tx-1'")
	require.NoError(t, err)

	_, err = s.ReadTransactions(ctx, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "digest mismatch")
}

func TestLastSeq_Empty(t *testing.T) {
	s := createTestStore(t)

	seq, err := s.LastSeq(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), seq)
}
