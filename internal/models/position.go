package models

import "time"

type PositionStatus string

const (
	PositionOpen    PositionStatus = "OPEN"
	PositionClosed  PositionStatus = "CLOSED"
	PositionPartial PositionStatus = "PARTIAL"
)

func (s PositionStatus) CanTransition(to PositionStatus) bool {
	switch s {
	case PositionOpen:
		return to == PositionClosed || to == PositionPartial
	case PositionPartial:
		return to == PositionClosed
	case PositionClosed:
		// позиция не закрывается дважды
		return false
	}
	return false
}

type Position struct {
	ID            string         `json:"position_id"`
	Strategy      string         `json:"strategy_name"`
	Symbol        string         `json:"symbol"`
	Quantity      int64          `json:"quantity"`
	EntryPrice    float64        `json:"entry_price"`
	CurrentPrice  float64        `json:"current_price"`
	EntryTime     time.Time      `json:"entry_time"`
	Status        PositionStatus `json:"status"`
	ExitPrice     float64        `json:"exit_price,omitempty"`
	ExitTime      time.Time      `json:"exit_time,omitempty"`
	RealizedPnl   float64        `json:"pnl"`
	UnrealizedPnl float64        `json:"unrealized_pnl"`
}

// UpdatePnL пересчитывает PnL по последней рыночной цене.
func (p *Position) UpdatePnL(current float64) {
	p.CurrentPrice = current
	switch p.Status {
	case PositionOpen, PositionPartial:
		p.UnrealizedPnl = (current - p.EntryPrice) * float64(p.Quantity)
	case PositionClosed:
		p.RealizedPnl = (p.ExitPrice - p.EntryPrice) * float64(p.Quantity)
	}
}

// Notional — сколько капитала зарезервировано под позицию.
func (p *Position) Notional() float64 {
	return p.EntryPrice * float64(p.Quantity)
}
