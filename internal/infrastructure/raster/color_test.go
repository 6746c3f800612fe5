package raster

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestColor_Deterministic(t *testing.T) {
	for _, label := range []string{"cigarette", "FACE_FEMALE", "svastika", ""} {
		first := Color(label)
		for i := 0; i < 10; i++ {
			require.Equal(t, first, Color(label))
		}
		require.Equal(t, uint8(255), first.A)
	}
}

func TestColor_DependsOnLabel(t *testing.T) {
	require.NotEqual(t, Color("cigarette"), Color("lgbt"))
	require.NotEqual(t, Color("FACE_MALE"), Color("FACE_FEMALE"))
}
