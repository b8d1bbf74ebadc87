package service

import (
	"context"
	"sync"
	"time"

	"options_bot/internal/models"
	"options_bot/pkg/logger"
)

// Straddle — покупка ATM-пары (колл + пут) в утреннее окно входа.
// Выход по проценту прибыли/убытка от премии либо по времени.
type Straddle struct {
	deps Deps

	callSymbol string
	putSymbol  string
	quantity   int64

	entryStartMin int // минуты от полуночи
	entryEndMin   int
	exitMin       int

	targetProfitPct float64
	stopLossPct     float64

	mu        sync.Mutex
	lastEntry time.Time // день последнего входа — не входим дважды за день
}

func NewStraddle(deps Deps, params map[string]interface{}) (Strategy, error) {
	return &Straddle{
		deps:            deps,
		callSymbol:      stringParam(params, "call_symbol", ""),
		putSymbol:       stringParam(params, "put_symbol", ""),
		quantity:        intParam(params, "quantity", 75), // лот Nifty
		entryStartMin:   clockParam(params, "entry_time_start", "09:20"),
		entryEndMin:     clockParam(params, "entry_time_end", "10:00"),
		exitMin:         clockParam(params, "exit_time", "15:15"),
		targetProfitPct: floatParam(params, "profit_target_percent", 35),
		stopLossPct:     floatParam(params, "max_loss_percent", 40),
	}, nil
}

func (s *Straddle) SupportedModes() []models.TradingMode {
	return []models.TradingMode{models.ModeBacktest, models.ModePaper}
}

func (s *Straddle) GenerateSignals(ctx context.Context) ([]models.Signal, error) {
	now := time.Now()
	minute := now.Hour()*60 + now.Minute()
	if minute < s.entryStartMin || minute > s.entryEndMin {
		return nil, nil
	}

	s.mu.Lock()
	entered := sameDay(s.lastEntry, now)
	s.mu.Unlock()
	if entered {
		return nil, nil
	}
	if s.callSymbol == "" || s.putSymbol == "" {
		return nil, nil
	}

	prices, err := s.deps.Gateway.LastPrices(ctx, []string{s.callSymbol, s.putSymbol})
	if err != nil {
		return nil, err
	}
	callPx, okCall := prices[s.callSymbol]
	putPx, okPut := prices[s.putSymbol]
	if !okCall || !okPut {
		// вход только парой, одной ноги мало
		return nil, nil
	}

	s.mu.Lock()
	s.lastEntry = now
	s.mu.Unlock()

	logger.Info("straddle: entry pair %s=%.2f %s=%.2f", s.callSymbol, callPx, s.putSymbol, putPx)
	return []models.Signal{
		{Symbol: s.callSymbol, Quantity: s.quantity, EntryPrice: callPx, Reason: "straddle call leg"},
		{Symbol: s.putSymbol, Quantity: s.quantity, EntryPrice: putPx, Reason: "straddle put leg"},
	}, nil
}

func (s *Straddle) ShouldExitPosition(pos models.Position) bool {
	// принудительный выход перед закрытием рынка
	now := time.Now()
	if now.Hour()*60+now.Minute() >= s.exitMin {
		return true
	}

	notional := pos.EntryPrice * float64(pos.Quantity)
	if notional <= 0 {
		return false
	}
	pnlPct := pos.UnrealizedPnl / notional * 100

	return pnlPct >= s.targetProfitPct || pnlPct <= -s.stopLossPct
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
