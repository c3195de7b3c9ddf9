package tour

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		tr, err := New("T1", TUE, 8*60, 12*60, 0)
		require.NoError(t, err)
		assert.Equal(t, int(TUE)*MinutesPerDay+8*60, tr.StartMinute)
		assert.Equal(t, 4*60, tr.Duration())
	})

	t.Run("empty id", func(t *testing.T) {
		_, err := New("", MON, 0, 60, 0)
		assert.ErrorIs(t, err, ErrEmptyID)
	})

	t.Run("zero duration", func(t *testing.T) {
		_, err := New("T1", MON, 60, 60, 0)
		assert.ErrorIs(t, err, ErrZeroDuration)
	})

	t.Run("too long", func(t *testing.T) {
		_, err := New("T1", MON, 0, 600, 300)
		assert.ErrorIs(t, err, ErrTooLong)
	})

	t.Run("cross midnight expands naturally", func(t *testing.T) {
		tr, err := New("T1", SAT, 23*60, 25*60, 0)
		require.NoError(t, err)
		assert.Equal(t, 120, tr.Duration())
	})
}

func TestValidateSet(t *testing.T) {
	a, _ := New("A", MON, 0, 60, 0)
	b, _ := New("B", MON, 120, 180, 0)

	require.NoError(t, ValidateSet([]Tour{a, b}))

	dup := a
	err := ValidateSet([]Tour{a, dup})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDuplicateID))
}

func TestWeekdayString(t *testing.T) {
	assert.Equal(t, "MON", MON.String())
	assert.Equal(t, "SUN", SUN.String())
}
