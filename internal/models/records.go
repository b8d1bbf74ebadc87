package models

import "time"

// Записи для persistence-слоя. Ledger в памяти остаётся источником
// истины на время сессии, записи — append-only след для разбора.

type TradeRecord struct {
	Timestamp   time.Time
	Symbol      string
	Action      Side
	Quantity    int64
	Price       float64
	OrderID     string
	Status      OrderStatus
	Pnl         float64
	Strategy    string
	TradingMode TradingMode
}

type PositionRecord struct {
	Timestamp     time.Time
	PositionID    string
	Symbol        string
	Quantity      int64
	AveragePrice  float64
	CurrentPrice  float64
	Pnl           float64
	UnrealizedPnl float64
	Status        PositionStatus
	Strategy      string
	EntryTime     time.Time
	ExitTime      time.Time
	TradingMode   TradingMode
}

type SystemEvent struct {
	Timestamp   time.Time
	EventType   string // INFO/WARNING/ERROR/TRADE/RISK
	Message     string
	Details     map[string]any
	TradingMode TradingMode
}

// EngineState — периодический снапшот счётчиков движка.
// Перезаписывается каждый цикл, нужен только для инспекции,
// не для восстановления состояния после рестарта.
type EngineState struct {
	VirtualCapital   float64   `json:"virtual_capital"`
	AvailableCapital float64   `json:"available_capital"`
	TotalPnl         float64   `json:"total_pnl"`
	DailyPnl         float64   `json:"daily_pnl"`
	WinningTrades    int       `json:"winning_trades"`
	LosingTrades     int       `json:"losing_trades"`
	OrderCounter     int64     `json:"order_counter"`
	PositionCounter  int64     `json:"position_counter"`
	LastSaved        time.Time `json:"last_saved"`
}
