package services

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestComputeDeckKeyNormalizesCaseAndWhitespace(t *testing.T) {
	require.Equal(t,
		ComputeDeckKey("Mars ", "K-2", "en"),
		ComputeDeckKey("mars", "k-2", "EN"),
	)
	require.Equal(t, "mars|k-2|en", ComputeDeckKey(" Mars", " K-2 ", "EN "))
}

func TestComputeDeckKeyTreatsBlankAsEmpty(t *testing.T) {
	require.Equal(t, "saturn||", ComputeDeckKey("Saturn", "", "   "))
	require.NotEqual(t, ComputeDeckKey("saturn", "", ""), ComputeDeckKey("saturn", "k-2", ""))
}

func TestNormalizeOptional(t *testing.T) {
	require.Nil(t, NormalizeOptional(""))
	require.Nil(t, NormalizeOptional("   "))

	got := NormalizeOptional(" K-2 ")
	require.NotNil(t, got)
	require.Equal(t, "K-2", *got)
}
