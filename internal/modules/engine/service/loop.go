package service

import (
	"context"
	"time"

	"github.com/opentracing/opentracing-go"

	"options_bot/internal/models"
	"options_bot/pkg/logger"
)

// run — единственный воркер движка. Живёт до внешнего stop;
// упавший цикл логируется и повторяется после бэкоффа, сам цикл
// никогда не валит воркер.
func (e *Engine) run(ctx context.Context, done chan struct{}) {
	defer func() {
		// если воркер умер сам (не через Stop), снаружи это должно
		// быть видно по IsRunning
		e.running.Store(false)
		close(done)
	}()

	logger.Info("engine: trading loop started")

	for {
		select {
		case <-ctx.Done():
			logger.Info("engine: trading loop stopped")
			return
		default:
		}

		if !e.cfg.Hours.IsOpen(time.Now()) {
			logger.Debug("engine: market closed, idling")
			if !sleepCtx(ctx, e.cfg.IdleInterval) {
				return
			}
			continue
		}

		if ok := e.safeCycle(ctx); !ok {
			if !sleepCtx(ctx, e.cfg.ErrorBackoff) {
				return
			}
			continue
		}

		if !sleepCtx(ctx, e.cfg.CycleInterval) {
			return
		}
	}
}

// sleepCtx спит интервал, просыпаясь раньше по отмене. false == отменили.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// safeCycle выполняет один торговый цикл, гася паники.
func (e *Engine) safeCycle(ctx context.Context) (ok bool) {
	defer func() {
		if p := recover(); p != nil {
			logger.Error("engine: cycle panic: %v", p)
			ok = false
		}
	}()

	span := opentracing.StartSpan("trading_cycle")
	defer span.Finish()
	ctx = opentracing.ContextWithSpan(ctx, span)

	e.rollDailyPnl(time.Now())

	active := e.manager.ActiveInstances(models.ModePaper)
	if len(active) > 0 {
		logger.Debug("engine: cycle for %d active strategies", len(active))
	}
	for _, name := range active {
		e.processStrategy(ctx, name)
	}

	e.refreshPrices(ctx)
	e.persistSnapshot()

	return true
}

// processStrategy изолирует ошибки одной стратегии: остальные
// в этом же цикле продолжают работать.
func (e *Engine) processStrategy(ctx context.Context, name string) {
	defer func() {
		if p := recover(); p != nil {
			logger.Error("engine: strategy %s panic: %v", name, p)
		}
	}()

	stg, ok := e.manager.Strategy(name)
	if !ok {
		return
	}

	signals, err := stg.GenerateSignals(ctx)
	if err != nil {
		logger.Error("engine: strategy %s signals: %v", name, err)
	} else {
		if len(signals) > 0 {
			logger.Info("engine: strategy %s generated %d signals", name, len(signals))
		}
		for _, sig := range signals {
			e.executeSignal(ctx, name, sig)
		}
	}

	e.checkExits(ctx, name, stg)
}

// rollDailyPnl сбрасывает дневной PnL на границе календарного дня.
func (e *Engine) rollDailyPnl(now time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()

	py, pm, pd := e.pnlDay.Date()
	ny, nm, nd := now.Date()
	if py != ny || pm != nm || pd != nd {
		e.dailyPnl = 0
		e.pnlDay = now
	}
}
