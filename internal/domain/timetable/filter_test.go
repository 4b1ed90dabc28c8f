package timetable

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSelect_ParityAndSubgroup(t *testing.T) {
	var cells []Cell
	for _, sign := range []WeekSign{WeekSignOdd, WeekSignEven, WeekSignAny} {
		for subgroup := 0; subgroup <= 2; subgroup++ {
			c := lesson(Monday, "09:00", "10:30", "Algorithms", "Ivanov")
			c.WeekSign = sign
			c.Subgroup = subgroup
			cells = append(cells, c)
		}
	}

	out := Select(cells, WeekSignOdd, 1)

	assert.Len(t, out, 4)
	for _, c := range out {
		assert.Contains(t, []WeekSign{WeekSignOdd, WeekSignAny}, c.WeekSign)
		assert.Contains(t, []int{0, 1}, c.Subgroup)
	}
}

func TestOnDay(t *testing.T) {
	cells := []Cell{
		lesson(Monday, "09:00", "10:30", "A", ""),
		lesson(Tuesday, "09:00", "10:30", "B", ""),
		lesson(Monday, "11:00", "12:30", "C", ""),
	}

	out := OnDay(cells, Monday)

	assert.Len(t, out, 2)
	assert.Equal(t, "A", out[0].Subject)
	assert.Equal(t, "C", out[1].Subject)
	assert.Empty(t, OnDay(cells, Saturday))
}
