package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarketHoursWindow(t *testing.T) {
	h, err := NewMarketHours("09:15", "15:30", "Asia/Kolkata")
	require.NoError(t, err)

	ist, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)

	// 2026-08-28 — пятница
	friday := func(hh, mm int) time.Time {
		return time.Date(2026, 8, 28, hh, mm, 0, 0, ist)
	}

	assert.False(t, h.IsOpen(friday(9, 14)))
	assert.True(t, h.IsOpen(friday(9, 15)))
	assert.True(t, h.IsOpen(friday(12, 0)))
	assert.True(t, h.IsOpen(friday(15, 30)))
	assert.False(t, h.IsOpen(friday(15, 31)))
	assert.False(t, h.IsOpen(friday(20, 0)))
}

func TestMarketHoursWeekend(t *testing.T) {
	h, err := NewMarketHours("09:15", "15:30", "Asia/Kolkata")
	require.NoError(t, err)

	ist, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)

	saturday := time.Date(2026, 8, 29, 12, 0, 0, 0, ist)
	sunday := time.Date(2026, 8, 30, 12, 0, 0, 0, ist)
	assert.False(t, h.IsOpen(saturday))
	assert.False(t, h.IsOpen(sunday))
}

func TestMarketHoursTimezoneConversion(t *testing.T) {
	h, err := NewMarketHours("09:15", "15:30", "Asia/Kolkata")
	require.NoError(t, err)

	// 06:30 UTC == 12:00 IST, пятница
	utcNoonIST := time.Date(2026, 8, 28, 6, 30, 0, 0, time.UTC)
	assert.True(t, h.IsOpen(utcNoonIST))

	// 18:00 UTC == 23:30 IST
	utcEvening := time.Date(2026, 8, 28, 18, 0, 0, 0, time.UTC)
	assert.False(t, h.IsOpen(utcEvening))
}

func TestMarketHoursParseErrors(t *testing.T) {
	_, err := NewMarketHours("9am", "15:30", "Asia/Kolkata")
	assert.Error(t, err)

	_, err = NewMarketHours("09:15", "half past three", "Asia/Kolkata")
	assert.Error(t, err)

	_, err = NewMarketHours("09:15", "15:30", "Mars/Olympus")
	assert.Error(t, err)
}
