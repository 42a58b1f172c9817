package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewNilWhenNoTimeControl(t *testing.T) {
	require.Nil(t, New(nil, nil))
}

func TestCurrentTimesTicksOnlySideToMove(t *testing.T) {
	c := New(&TimeControl{InitialMS: 10_000}, &TimeControl{InitialMS: 10_000})
	time.Sleep(20 * time.Millisecond)

	white, black := c.CurrentTimes(White)
	require.NotNil(t, white)
	require.NotNil(t, black)
	require.Less(t, *white, uint64(10_000))
	require.Equal(t, uint64(10_000), *black)
}

func TestOnMoveCommitDeductsAndAddsIncrement(t *testing.T) {
	c := New(&TimeControl{InitialMS: 10_000, IncrementMS: 5_000}, nil)
	time.Sleep(20 * time.Millisecond)

	c.OnMoveCommit(White)

	white, _ := c.CurrentTimes(Black)
	require.NotNil(t, white)
	// Elapsed was subtracted then the 5s increment added back, so the
	// result should be just under (or at) the original 15s ceiling.
	require.LessOrEqual(t, *white, uint64(15_000))
	require.Greater(t, *white, uint64(14_900))
}

func TestExpired(t *testing.T) {
	c := New(&TimeControl{InitialMS: 1}, nil)
	time.Sleep(5 * time.Millisecond)
	require.True(t, c.Expired(White))
	require.False(t, c.Expired(Black))
}

func TestRestoreOverwritesStoredTimes(t *testing.T) {
	c := New(&TimeControl{InitialMS: 10_000}, &TimeControl{InitialMS: 10_000})
	w, b := ptr(1_234), ptr(5_678)
	c.Restore(w, b)

	white, black := c.CurrentTimes(White)
	require.Equal(t, uint64(1_234), *white)
	require.Equal(t, uint64(5_678), *black)
}
