package excluder

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsExcluded(t *testing.T) {
	ex, err := New([]string{"dark_*", "*_test.fits"})
	require.NoError(t, err)

	require.True(t, ex.IsExcluded("dark_20120304-000000001.fits"))
	require.True(t, ex.IsExcluded("cam1_test.fits"))
	require.False(t, ex.IsExcluded("cam1_20120304-000000001.fits"))
}

func TestNoPatterns(t *testing.T) {
	ex, err := New(nil)
	require.NoError(t, err)
	require.False(t, ex.IsExcluded("anything.fits"))
}

func TestBadPattern(t *testing.T) {
	_, err := New([]string{"[unterminated"})
	require.Error(t, err)
}
