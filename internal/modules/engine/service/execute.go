package service

import (
	"context"
	"fmt"
	"time"

	"options_bot/internal/models"
	strategies "options_bot/internal/modules/strategy/service"
	"options_bot/pkg/logger"
)

// executeSignal превращает сигнал в EXECUTED-ордер и OPEN-позицию.
// Нехватка капитала и отсутствие цены — не ошибки цикла: сигнал просто
// пропускается (и, если стратегия повторит его, попробуется позже).
func (e *Engine) executeSignal(ctx context.Context, strategyName string, sig models.Signal) {
	if sig.Quantity <= 0 || sig.EntryPrice <= 0 {
		logger.Warn("engine: %s: malformed signal %+v", strategyName, sig)
		return
	}

	required := sig.EntryPrice * float64(sig.Quantity)
	e.mu.Lock()
	available := e.availableCapital
	e.mu.Unlock()
	if required > available {
		logger.Warn("engine: %s: insufficient capital for %s: required %.2f, available %.2f",
			strategyName, sig.Symbol, required, available)
		return
	}

	execPrice, err := e.gateway.LastPrice(ctx, sig.Symbol)
	if err != nil {
		logger.Warn("engine: %s: no price for %s, signal skipped: %v", strategyName, sig.Symbol, err)
		return
	}

	// ордер и позиция рождаются вместе, под одним локом: либо в ledger
	// попадают оба, либо ни один. Id выдаются здесь же и больше нигде
	// не перевычисляются.
	e.mu.Lock()
	cost := execPrice * float64(sig.Quantity)
	if cost > e.availableCapital {
		e.mu.Unlock()
		logger.Warn("engine: %s: insufficient capital at execution price for %s", strategyName, sig.Symbol)
		return
	}

	now := time.Now()
	e.orderSeq++
	order := &models.Order{
		ID:        fmt.Sprintf("PAPER_%06d", e.orderSeq),
		Strategy:  strategyName,
		Symbol:    sig.Symbol,
		Side:      models.SideBuy,
		Quantity:  sig.Quantity,
		Price:     sig.EntryPrice,
		Kind:      models.OrderMarket,
		CreatedAt: now,
		Status:    models.OrderExecuted,
		ExecPrice: execPrice,
		ExecTime:  now,
	}
	e.positionSeq++
	pos := &models.Position{
		ID:           fmt.Sprintf("POS_%06d", e.positionSeq),
		Strategy:     strategyName,
		Symbol:       sig.Symbol,
		Quantity:     sig.Quantity,
		EntryPrice:   execPrice,
		CurrentPrice: execPrice,
		// канонично время исполнения ордера, не время конструирования
		EntryTime: order.ExecTime,
		Status:    models.PositionOpen,
	}

	e.orders[order.ID] = order
	e.positions[pos.ID] = pos
	e.availableCapital -= cost
	e.lastUpdated = now
	e.mu.Unlock()

	logger.Info("engine: %s: entered %s x%d @ %.2f (order %s, position %s)",
		strategyName, sig.Symbol, sig.Quantity, execPrice, order.ID, pos.ID)
	e.n.Sendf("✅ ENTRY %s x%d @ %.2f | %s", sig.Symbol, sig.Quantity, execPrice, strategyName)

	e.persistEntry(ctx, order, pos)
}

// checkExits спрашивает стратегию про каждую её открытую позицию.
// Нет цены — позиция ждёт следующего цикла.
func (e *Engine) checkExits(ctx context.Context, strategyName string, stg strategies.Strategy) {
	e.mu.Lock()
	open := make([]models.Position, 0)
	for _, p := range e.positions {
		if p.Strategy == strategyName && p.Status == models.PositionOpen {
			open = append(open, *p)
		}
	}
	e.mu.Unlock()

	for _, snapshot := range open {
		price, err := e.gateway.LastPrice(ctx, snapshot.Symbol)
		if err != nil {
			logger.Debug("engine: no price for %s, exit check skipped", snapshot.Symbol)
			continue
		}
		snapshot.UpdatePnL(price)

		if stg.ShouldExitPosition(snapshot) {
			e.executeExit(ctx, snapshot.ID, price)
		}
	}
}

// executeExit закрывает позицию по текущей цене. Переход OPEN→CLOSED
// проверяется под локом, так что закрыть дважды нельзя.
func (e *Engine) executeExit(ctx context.Context, positionID string, exitPrice float64) {
	e.mu.Lock()
	pos, ok := e.positions[positionID]
	if !ok || !pos.Status.CanTransition(models.PositionClosed) {
		e.mu.Unlock()
		return
	}

	now := time.Now()
	e.orderSeq++
	order := &models.Order{
		ID:        fmt.Sprintf("PAPER_%06d", e.orderSeq),
		Strategy:  pos.Strategy,
		Symbol:    pos.Symbol,
		Side:      models.SideSell,
		Quantity:  pos.Quantity,
		Price:     exitPrice,
		Kind:      models.OrderMarket,
		CreatedAt: now,
		Status:    models.OrderExecuted,
		ExecPrice: exitPrice,
		ExecTime:  now,
	}

	pos.Status = models.PositionClosed
	pos.ExitPrice = exitPrice
	pos.ExitTime = now
	pos.UpdatePnL(exitPrice)
	pnl := pos.RealizedPnl

	e.orders[order.ID] = order
	e.availableCapital += exitPrice * float64(pos.Quantity)
	e.totalPnl += pnl
	e.dailyPnl += pnl
	if pnl > 0 {
		e.winningTrades++
	} else {
		e.losingTrades++
	}
	e.lastUpdated = now

	posCopy := *pos
	e.mu.Unlock()

	logger.Info("engine: %s: exited %s x%d @ %.2f | pnl %.2f",
		posCopy.Strategy, posCopy.Symbol, posCopy.Quantity, exitPrice, pnl)
	e.n.Sendf("🚪 EXIT %s x%d @ %.2f | P&L %.2f | %s",
		posCopy.Symbol, posCopy.Quantity, exitPrice, pnl, posCopy.Strategy)

	e.manager.RecordTradeOutcome(posCopy.Strategy, pnl)
	e.persistExit(ctx, order, &posCopy)
}

// refreshPrices — батч mark-to-market по всем открытым позициям.
// Символы без цены в ответе сохраняют прежние значения.
func (e *Engine) refreshPrices(ctx context.Context) {
	e.mu.Lock()
	seen := make(map[string]struct{})
	symbols := make([]string, 0)
	for _, p := range e.positions {
		if p.Status != models.PositionOpen {
			continue
		}
		if _, ok := seen[p.Symbol]; !ok {
			seen[p.Symbol] = struct{}{}
			symbols = append(symbols, p.Symbol)
		}
	}
	e.mu.Unlock()

	if len(symbols) == 0 {
		return
	}

	prices, err := e.gateway.LastPrices(ctx, symbols)
	if err != nil {
		logger.Warn("engine: mark-to-market fetch failed: %v", err)
		return
	}

	e.mu.Lock()
	for _, p := range e.positions {
		if p.Status != models.PositionOpen {
			continue
		}
		if px, ok := prices[p.Symbol]; ok {
			p.UpdatePnL(px)
		}
	}
	e.lastUpdated = time.Now()
	e.mu.Unlock()
}

// persistSnapshot перезаписывает снапшот счётчиков для инспекции.
func (e *Engine) persistSnapshot() {
	if e.snapshot == nil {
		return
	}

	e.mu.Lock()
	state := models.EngineState{
		VirtualCapital:   e.cfg.VirtualCapital,
		AvailableCapital: e.availableCapital,
		TotalPnl:         e.totalPnl,
		DailyPnl:         e.dailyPnl,
		WinningTrades:    e.winningTrades,
		LosingTrades:     e.losingTrades,
		OrderCounter:     e.orderSeq,
		PositionCounter:  e.positionSeq,
		LastSaved:        time.Now(),
	}
	e.mu.Unlock()

	if err := e.snapshot.Save(state); err != nil {
		logger.Error("engine: save snapshot: %v", err)
	}
}

// Персист ledger-записей fire-and-forget: ошибка записи не откатывает
// ledger, он остаётся источником истины на время сессии.

func (e *Engine) persistEntry(ctx context.Context, order *models.Order, pos *models.Position) {
	if err := e.sink.SaveTrade(ctx, tradeRecord(order, 0)); err != nil {
		logger.Error("engine: persist entry order %s: %v", order.ID, err)
	}
	if err := e.sink.SavePosition(ctx, positionRecord(pos)); err != nil {
		logger.Error("engine: persist position %s: %v", pos.ID, err)
	}
}

func (e *Engine) persistExit(ctx context.Context, order *models.Order, pos *models.Position) {
	if err := e.sink.SaveTrade(ctx, tradeRecord(order, pos.RealizedPnl)); err != nil {
		logger.Error("engine: persist exit order %s: %v", order.ID, err)
	}
	if err := e.sink.SavePosition(ctx, positionRecord(pos)); err != nil {
		logger.Error("engine: persist position %s: %v", pos.ID, err)
	}
}

func tradeRecord(o *models.Order, pnl float64) models.TradeRecord {
	return models.TradeRecord{
		Timestamp:   o.ExecTime,
		Symbol:      o.Symbol,
		Action:      o.Side,
		Quantity:    o.Quantity,
		Price:       o.ExecPrice,
		OrderID:     o.ID,
		Status:      o.Status,
		Pnl:         pnl,
		Strategy:    o.Strategy,
		TradingMode: models.ModePaper,
	}
}

func positionRecord(p *models.Position) models.PositionRecord {
	return models.PositionRecord{
		Timestamp:     time.Now(),
		PositionID:    p.ID,
		Symbol:        p.Symbol,
		Quantity:      p.Quantity,
		AveragePrice:  p.EntryPrice,
		CurrentPrice:  p.CurrentPrice,
		Pnl:           p.RealizedPnl,
		UnrealizedPnl: p.UnrealizedPnl,
		Status:        p.Status,
		Strategy:      p.Strategy,
		EntryTime:     p.EntryTime,
		ExitTime:      p.ExitTime,
		TradingMode:   models.ModePaper,
	}
}
