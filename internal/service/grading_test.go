package service

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGradeForLadder(t *testing.T) {
	cases := []struct {
		total float64
		grade string
	}{
		{95, "A+"},
		{85, "A+"},
		{84.9, "A"},
		{80, "A"},
		{75, "B+"},
		{70, "B"},
		{65, "C+"},
		{60, "C"},
		{55, "C-"},
		{50, "D"},
		{49.9, "F"},
		{0, "F"},
	}
	for _, tc := range cases {
		require.Equal(t, tc.grade, GradeFor(tc.total), "total %v", tc.total)
	}
}

func TestFinalResultThreshold(t *testing.T) {
	require.Equal(t, "Approved", FinalResultFor(50))
	require.Equal(t, "Approved", FinalResultFor(55))
	require.Equal(t, "Not Approved", FinalResultFor(49.99))
}

func TestComponentTotalTreatsNilAsZero(t *testing.T) {
	proposal := 20.0
	mid := 15.0
	final := 10.0
	supervisor := 10.0

	total := ComponentTotal(&proposal, &mid, &final, &supervisor)
	require.Equal(t, 55.0, total)
	require.Equal(t, "C-", GradeFor(total))
	require.Equal(t, "Approved", FinalResultFor(total))

	require.Equal(t, 30.0, ComponentTotal(&proposal, nil, &final, nil))
	require.Equal(t, 0.0, ComponentTotal(nil, nil))
}
