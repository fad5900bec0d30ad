package ledger

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mu-bmd-retarget/internal/retarget"
)

func openTemp(t *testing.T) *Ledger {
	t.Helper()
	l, err := Open(filepath.Join(t.TempDir(), "nested", "history.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })
	return l
}

func TestRecordAndRecent(t *testing.T) {
	l := openTemp(t)
	ctx := context.Background()
	at := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	id1, err := l.Record(ctx, Entry{
		Time:        at,
		Source:      "Armor01.bmd",
		Target:      "Player.bmd",
		Output:      "out/Armor01.bmd",
		Transferred: 2,
		Missing: []retarget.MissingBone{
			{MeshName: "Armor01#0", BoneName: "Tail"},
			{MeshName: "Armor01#1", BoneName: "<null>"},
		},
	})
	require.NoError(t, err)

	id2, err := l.Record(ctx, Entry{Source: "Broken.bmd", Target: "Player.bmd", Error: "bmd: invalid header"})
	require.NoError(t, err)
	assert.Greater(t, id2, id1)

	got, err := l.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "Broken.bmd", got[0].Source)
	assert.Equal(t, "bmd: invalid header", got[0].Error)
	assert.Empty(t, got[0].Missing)
	assert.False(t, got[0].Time.IsZero())

	first := got[1]
	assert.Equal(t, id1, first.ID)
	assert.True(t, at.Equal(first.Time))
	assert.Equal(t, "out/Armor01.bmd", first.Output)
	assert.Equal(t, 2, first.Transferred)
	assert.Equal(t, []retarget.MissingBone{
		{MeshName: "Armor01#0", BoneName: "Tail"},
		{MeshName: "Armor01#1", BoneName: "<null>"},
	}, first.Missing)

	limited, err := l.Recent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, id2, limited[0].ID)

	none, err := l.Recent(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestConcurrentRecords(t *testing.T) {
	l := openTemp(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := l.Record(ctx, Entry{Source: "s.bmd", Target: "t.bmd", Transferred: 1})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := l.Recent(ctx, 100)
	require.NoError(t, err)
	assert.Len(t, got, 8)
}

func TestReopenKeepsHistory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	l, err := Open(path, nil)
	require.NoError(t, err)
	_, err = l.Record(context.Background(), Entry{Source: "a.bmd", Target: "b.bmd"})
	require.NoError(t, err)
	require.NoError(t, l.Close())

	l, err = Open(path, nil)
	require.NoError(t, err)
	defer l.Close()
	got, err := l.Recent(context.Background(), 5)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}
