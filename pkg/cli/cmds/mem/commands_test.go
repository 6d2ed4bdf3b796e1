package mem

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPeekLen(t *testing.T) {
	require.Equal(t, 16, peekLen(16, 4096))
	require.Equal(t, 4096, peekLen(1<<40, 4096))
	require.Equal(t, 0, peekLen(64, 0))
}
