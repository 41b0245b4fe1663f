package schedule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlots(t *testing.T) {
	t.Run("DefaultWindow", func(t *testing.T) {
		slots, err := Slots(DefaultConfig())
		require.NoError(t, err)
		require.Len(t, slots, 14)
		assert.Equal(t, "08:00", slots[0])
		assert.Equal(t, "21:00", slots[len(slots)-1])
	})

	t.Run("StrictlyIncreasing", func(t *testing.T) {
		slots, err := Slots(Config{OpenTime: "09:30", CloseTime: "13:00", IntervalMinutes: 45})
		require.NoError(t, err)
		for i := 1; i < len(slots); i++ {
			prev, _ := ParseClock(slots[i-1])
			cur, _ := ParseClock(slots[i])
			assert.Greater(t, cur, prev)
		}
	})

	t.Run("MinuteOverflowCarries", func(t *testing.T) {
		slots, err := Slots(Config{OpenTime: "08:30", CloseTime: "11:00", IntervalMinutes: 50})
		require.NoError(t, err)
		assert.Equal(t, []string{"08:30", "09:20", "10:10"}, slots)
	})

	t.Run("StopsStrictlyBeforeClose", func(t *testing.T) {
		slots, err := Slots(Config{OpenTime: "08:00", CloseTime: "10:00", IntervalMinutes: 60})
		require.NoError(t, err)
		assert.Equal(t, []string{"08:00", "09:00"}, slots)
	})

	t.Run("Idempotent", func(t *testing.T) {
		first, err := Slots(DefaultConfig())
		require.NoError(t, err)
		second, err := Slots(DefaultConfig())
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})

	t.Run("InvalidWindow", func(t *testing.T) {
		_, err := Slots(Config{OpenTime: "22:00", CloseTime: "08:00", IntervalMinutes: 60})
		assert.ErrorIs(t, err, ErrInvalidWindow)

		_, err = Slots(Config{OpenTime: "08:00", CloseTime: "22:00", IntervalMinutes: 0})
		assert.ErrorIs(t, err, ErrInvalidWindow)

		_, err = Slots(Config{OpenTime: "bogus", CloseTime: "22:00", IntervalMinutes: 60})
		assert.ErrorIs(t, err, ErrInvalidWindow)
	})
}

func TestSlotEnd(t *testing.T) {
	cfg := DefaultConfig()

	t.Run("ZeroPadsComponents", func(t *testing.T) {
		end, err := SlotEnd("08:00", cfg)
		require.NoError(t, err)
		assert.Equal(t, "09:00", end)
	})

	t.Run("MinuteOverflow", func(t *testing.T) {
		end, err := SlotEnd("09:30", Config{OpenTime: "08:00", CloseTime: "22:00", IntervalMinutes: 45})
		require.NoError(t, err)
		assert.Equal(t, "10:15", end)
	})

	t.Run("RoundTripThroughGrid", func(t *testing.T) {
		slots, err := Slots(cfg)
		require.NoError(t, err)

		// Every slot's end is either the next slot or, for the last slot,
		// exactly the closing time.
		for i, slot := range slots {
			end, err := SlotEnd(slot, cfg)
			require.NoError(t, err)
			if i == len(slots)-1 {
				assert.Equal(t, cfg.CloseTime, end)
			} else {
				assert.Equal(t, slots[i+1], end)
			}
		}
	})
}

func TestSlotsInRange(t *testing.T) {
	grid, err := Slots(DefaultConfig())
	require.NoError(t, err)

	t.Run("EndExclusive", func(t *testing.T) {
		got := SlotsInRange(grid, "10:00", "13:00")
		assert.Equal(t, []string{"10:00", "11:00", "12:00"}, got)
	})

	t.Run("EndAtCloseTime", func(t *testing.T) {
		got := SlotsInRange(grid, "20:00", "22:00")
		assert.Equal(t, []string{"20:00", "21:00"}, got)
	})

	t.Run("OffGridStart", func(t *testing.T) {
		assert.Nil(t, SlotsInRange(grid, "10:15", "13:00"))
	})

	t.Run("EmptyWhenReversed", func(t *testing.T) {
		assert.Nil(t, SlotsInRange(grid, "13:00", "10:00"))
	})
}
