package core

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLowPassRampUp(t *testing.T) {
	lp := NewLowPass(3)
	require.False(t, lp.HasMinValues(1))

	lp.Update(10)
	require.Equal(t, 10.0, lp.Avg())
	require.True(t, lp.HasMinValues(1))
	require.False(t, lp.HasMinValues(2))

	lp.Update(20)
	require.Equal(t, 15.0, lp.Avg())
}

func TestLowPassSlidesAfterFull(t *testing.T) {
	lp := NewLowPass(2)
	lp.Update(10)
	lp.Update(20)
	require.Equal(t, 15.0, lp.Avg())
	require.True(t, lp.HasMinValues(2))

	lp.Update(30)
	require.Equal(t, 25.0, lp.Avg())
}
