package service

import (
	"fmt"
	"time"
)

// MarketHours — торговое окно: будние дни, время биржи.
type MarketHours struct {
	openMin  int // минуты от полуночи
	closeMin int
	loc      *time.Location
}

// NewMarketHours парсит "09:15"/"15:30" и таймзону биржи.
func NewMarketHours(open, close, tz string) (MarketHours, error) {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return MarketHours{}, fmt.Errorf("load market timezone %q: %w", tz, err)
	}

	o, err := time.Parse("15:04", open)
	if err != nil {
		return MarketHours{}, fmt.Errorf("parse market open %q: %w", open, err)
	}
	c, err := time.Parse("15:04", close)
	if err != nil {
		return MarketHours{}, fmt.Errorf("parse market close %q: %w", close, err)
	}

	return MarketHours{
		openMin:  o.Hour()*60 + o.Minute(),
		closeMin: c.Hour()*60 + c.Minute(),
		loc:      loc,
	}, nil
}

func (h MarketHours) IsOpen(t time.Time) bool {
	if h.loc != nil {
		t = t.In(h.loc)
	}

	switch t.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}

	minute := t.Hour()*60 + t.Minute()
	return minute >= h.openMin && minute <= h.closeMin
}
