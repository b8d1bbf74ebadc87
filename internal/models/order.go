package models

import "time"

type Side string

const (
	SideNone Side = ""
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

type OrderKind string

const (
	OrderMarket OrderKind = "MARKET"
	OrderLimit  OrderKind = "LIMIT"
)

type OrderStatus string

const (
	OrderPending   OrderStatus = "PENDING"
	OrderExecuted  OrderStatus = "EXECUTED"
	OrderFailed    OrderStatus = "FAILED"
	OrderCancelled OrderStatus = "CANCELLED"
)

// CanTransition: PENDING — единственный нетерминальный статус ордера.
func (s OrderStatus) CanTransition(to OrderStatus) bool {
	switch s {
	case OrderPending:
		return to == OrderExecuted || to == OrderFailed || to == OrderCancelled
	case OrderExecuted, OrderFailed, OrderCancelled:
		return false
	}
	return false
}

// Order — бумажный ордер. После EXECUTED поля не меняются,
// ExecPrice/ExecTime выставляются атомарно при исполнении.
type Order struct {
	ID        string      `json:"order_id"`
	Strategy  string      `json:"strategy_name"`
	Symbol    string      `json:"symbol"`
	Side      Side        `json:"transaction_type"`
	Quantity  int64       `json:"quantity"`
	Price     float64     `json:"price"` // запрошенная цена из сигнала
	Kind      OrderKind   `json:"order_type"`
	CreatedAt time.Time   `json:"timestamp"`
	Status    OrderStatus `json:"status"`
	ExecPrice float64     `json:"execution_price"`
	ExecTime  time.Time   `json:"execution_time"`
}
