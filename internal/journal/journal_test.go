package journal

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNopIsDisabled(t *testing.T) {
	var j Journal = Nop{}
	require.NoError(t, j.Record(context.Background(), Download{Year: "2022", FileName: "a.pdf"}))
	_, err := j.Top(context.Background(), 10)
	require.ErrorIs(t, err, ErrDisabled)
}

func TestMemoryTopOrdering(t *testing.T) {
	ctx := context.Background()
	j := NewMemory()
	for _, d := range []Download{
		{Year: "2023", FileName: "b.pdf"},
		{Year: "2022", FileName: "a.pdf"},
		{Year: "2023", FileName: "b.pdf"},
		{Year: "2022", FileName: "c.pdf"},
		{Year: "2021", FileName: "z.pdf"},
	} {
		require.NoError(t, j.Record(ctx, d))
	}

	stats, err := j.Top(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, []Stat{
		{Year: "2023", FileName: "b.pdf", Downloads: 2},
		{Year: "2021", FileName: "z.pdf", Downloads: 1},
		{Year: "2022", FileName: "a.pdf", Downloads: 1},
	}, stats)
}

func TestMemoryTopEmpty(t *testing.T) {
	stats, err := NewMemory().Top(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, stats)
}
