package models

import "time"

type TradingMode string

const (
	ModeBacktest TradingMode = "BACKTEST"
	ModePaper    TradingMode = "PAPER"
	ModeLive     TradingMode = "LIVE"
)

type StrategyStatus string

const (
	StrategyInactive  StrategyStatus = "INACTIVE"
	StrategyActive    StrategyStatus = "ACTIVE"
	StrategyPaused    StrategyStatus = "PAUSED"
	StrategyError     StrategyStatus = "ERROR"
	StrategyCompleted StrategyStatus = "COMPLETED"
)

// CanTransition описывает машину состояний инстанса стратегии.
// ERROR терминален для планировщика: выход только через явный reset,
// который здесь не определён.
func (s StrategyStatus) CanTransition(to StrategyStatus) bool {
	switch s {
	case StrategyInactive:
		return to == StrategyActive
	case StrategyActive:
		return to == StrategyInactive || to == StrategyPaused ||
			to == StrategyError || to == StrategyCompleted
	case StrategyPaused:
		return to == StrategyActive || to == StrategyInactive
	case StrategyCompleted:
		return to == StrategyInactive
	case StrategyError:
		return false
	}
	return false
}

// Signal — инструкция стратегии на вход в позицию.
type Signal struct {
	Symbol     string
	Quantity   int64
	EntryPrice float64
	Reason     string
}

// Performance — накопленная статистика по инстансу стратегии.
type Performance struct {
	CreatedAt     time.Time
	TotalTrades   int
	WinningTrades int
	LosingTrades  int
	TotalPnl      float64
	MaxDrawdown   float64 // худший убыток одной сделки, по модулю
	LastUpdated   time.Time
}
