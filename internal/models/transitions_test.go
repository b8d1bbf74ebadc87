package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrderStatusTransitions(t *testing.T) {
	assert.True(t, OrderPending.CanTransition(OrderExecuted))
	assert.True(t, OrderPending.CanTransition(OrderCancelled))
	assert.True(t, OrderPending.CanTransition(OrderFailed))

	assert.False(t, OrderExecuted.CanTransition(OrderPending))
	assert.False(t, OrderExecuted.CanTransition(OrderCancelled))
	assert.False(t, OrderCancelled.CanTransition(OrderExecuted))
	assert.False(t, OrderFailed.CanTransition(OrderExecuted))
}

func TestPositionStatusTransitions(t *testing.T) {
	assert.True(t, PositionOpen.CanTransition(PositionClosed))
	assert.True(t, PositionOpen.CanTransition(PositionPartial))
	assert.True(t, PositionPartial.CanTransition(PositionClosed))

	assert.False(t, PositionClosed.CanTransition(PositionOpen))
	assert.False(t, PositionClosed.CanTransition(PositionClosed))
}

func TestStrategyStatusTransitions(t *testing.T) {
	assert.True(t, StrategyInactive.CanTransition(StrategyActive))
	assert.True(t, StrategyActive.CanTransition(StrategyInactive))
	assert.True(t, StrategyActive.CanTransition(StrategyPaused))
	assert.True(t, StrategyPaused.CanTransition(StrategyActive))
	assert.True(t, StrategyActive.CanTransition(StrategyError))

	// ERROR — терминальный статус
	assert.False(t, StrategyError.CanTransition(StrategyActive))
	assert.False(t, StrategyError.CanTransition(StrategyInactive))
}

func TestPositionPnl(t *testing.T) {
	p := Position{Symbol: "SYM", Quantity: 50, EntryPrice: 100, Status: PositionOpen}

	p.UpdatePnL(110)
	assert.Equal(t, 110.0, p.CurrentPrice)
	assert.Equal(t, 500.0, p.UnrealizedPnl)
	assert.Zero(t, p.RealizedPnl)

	p.Status = PositionClosed
	p.ExitPrice = 110
	p.UpdatePnL(110)
	assert.Equal(t, 500.0, p.RealizedPnl)

	assert.Equal(t, 5000.0, p.Notional())
}
