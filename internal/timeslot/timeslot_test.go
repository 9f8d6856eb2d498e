package timeslot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveHourly(t *testing.T) {
	slots, err := Derive("09:00", "12:00", 60)
	require.NoError(t, err)
	assert.Equal(t, []string{"09:00-10:00", "10:00-11:00", "11:00-12:00"}, slots)
}

func TestDeriveHalfHour(t *testing.T) {
	slots, err := Derive("14:00", "15:30", 30)
	require.NoError(t, err)
	assert.Equal(t, []string{"14:00-14:30", "14:30-15:00", "15:00-15:30"}, slots)
}

func TestDeriveTrailingRemainder(t *testing.T) {
	slots, err := Derive("09:00", "10:30", 60)
	require.NoError(t, err)
	assert.Equal(t, []string{"09:00-10:00", "10:00-10:30"}, slots)
}

func TestDeriveEmptyRange(t *testing.T) {
	slots, err := Derive("10:00", "10:00", 60)
	require.NoError(t, err)
	assert.Empty(t, slots)
}

func TestDeriveZeroWidthFallsBackToDefault(t *testing.T) {
	slots, err := Derive("09:00", "11:00", 0)
	require.NoError(t, err)
	assert.Len(t, slots, 2)
}

func TestDeriveInvalidTime(t *testing.T) {
	_, err := Derive("9am", "12:00", 60)
	assert.Error(t, err)

	_, err = Derive("09:00", "25:00", 60)
	assert.Error(t, err)
}

func TestValidateRange(t *testing.T) {
	assert.NoError(t, ValidateRange("08:00", "17:00"))
	assert.Error(t, ValidateRange("17:00", "08:00"))
	assert.Error(t, ValidateRange("10:00", "10:00"))
	assert.Error(t, ValidateRange("", "10:00"))
}

func TestContains(t *testing.T) {
	slots, _ := Derive("09:00", "11:00", 60)
	assert.True(t, Contains(slots, "10:00-11:00"))
	assert.False(t, Contains(slots, "11:00-12:00"))
}
