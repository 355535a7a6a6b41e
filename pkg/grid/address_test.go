package grid_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"muster/pkg/grid"
)

func TestColumnToLetter(t *testing.T) {
	tests := []struct {
		index int
		want  string
	}{
		{0, "A"},
		{1, "B"},
		{2, "C"},
		{25, "Z"},
	}
	for _, tt := range tests {
		got, err := grid.ColumnToLetter(tt.index)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

func TestColumnToLetterRoundTrips(t *testing.T) {
	for i := 0; i < grid.MaxColumns; i++ {
		letter, err := grid.ColumnToLetter(i)
		require.NoError(t, err)
		back, err := grid.LetterToColumn(letter)
		require.NoError(t, err)
		assert.Equal(t, i, back)
	}
}

func TestColumnToLetterCapacity(t *testing.T) {
	_, err := grid.ColumnToLetter(26)
	assert.ErrorIs(t, err, grid.ErrCapacityExceeded)

	_, err = grid.ColumnToLetter(40)
	assert.ErrorIs(t, err, grid.ErrCapacityExceeded)

	_, err = grid.ColumnToLetter(-1)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, grid.ErrCapacityExceeded)
}

func TestLetterToColumnRejectsInvalid(t *testing.T) {
	for _, in := range []string{"", "a", "AA", "1", "["} {
		_, err := grid.LetterToColumn(in)
		assert.Error(t, err, "input %q", in)
	}
}

func TestCellName(t *testing.T) {
	assert.Equal(t, "B2", grid.CellName("B", 2))
	assert.Equal(t, "Z1000", grid.CellName("Z", 1000))
}
