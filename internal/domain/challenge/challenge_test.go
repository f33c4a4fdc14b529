package challenge

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewCode(t *testing.T) {
	t.Parallel()

	for i := 0; i < 200; i++ {
		code, err := NewCode()
		require.NoError(t, err)
		require.Len(t, code, 6)
		require.GreaterOrEqual(t, code, "100000")
		require.LessOrEqual(t, code, "999999")
	}
}

func TestMask(t *testing.T) {
	t.Parallel()

	require.Equal(t, "****56", Mask("123456"))
	require.Equal(t, "12", Mask("12"))
}

func TestExpired(t *testing.T) {
	t.Parallel()

	deadline := time.Date(2025, 3, 1, 12, 5, 0, 0, time.UTC)
	ch := Challenge{OrderID: "ord-1", Code: "123456", ExpiresAt: deadline}

	require.False(t, ch.Expired(deadline.Add(-time.Millisecond)))
	require.False(t, ch.Expired(deadline))
	require.True(t, ch.Expired(deadline.Add(time.Millisecond)))
}
