package service

import (
	"context"
	"sync"

	"options_bot/internal/models"
	"options_bot/pkg/logger"
)

// Scalper — короткий моментум по премии опциона: вход, когда премия
// выросла больше порога между циклами, выход по таргету/стопу.
type Scalper struct {
	deps Deps

	symbols     []string
	quantity    int64
	momentumPct float64 // порог движения между циклами, %

	targetProfitPct float64
	stopLossPct     float64

	mu       sync.Mutex
	lastSeen map[string]float64
}

func NewScalper(deps Deps, params map[string]interface{}) (Strategy, error) {
	return &Scalper{
		deps:            deps,
		symbols:         stringsParam(params, "symbols"),
		quantity:        intParam(params, "quantity", 75),
		momentumPct:     floatParam(params, "momentum_percent", 2),
		targetProfitPct: floatParam(params, "profit_target_percent", 20),
		stopLossPct:     floatParam(params, "max_loss_percent", 25),
		lastSeen:        make(map[string]float64),
	}, nil
}

func (s *Scalper) SupportedModes() []models.TradingMode {
	return []models.TradingMode{models.ModeBacktest, models.ModePaper, models.ModeLive}
}

func (s *Scalper) GenerateSignals(ctx context.Context) ([]models.Signal, error) {
	if len(s.symbols) == 0 {
		return nil, nil
	}

	prices, err := s.deps.Gateway.LastPrices(ctx, s.symbols)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var signals []models.Signal
	for _, sym := range s.symbols {
		px, ok := prices[sym]
		if !ok {
			continue
		}
		prev, seen := s.lastSeen[sym]
		s.lastSeen[sym] = px
		if !seen || prev <= 0 {
			continue
		}

		movePct := (px - prev) / prev * 100
		if movePct >= s.momentumPct {
			logger.Info("scalper: %s moved %.2f%% (%.2f -> %.2f)", sym, movePct, prev, px)
			signals = append(signals, models.Signal{
				Symbol:     sym,
				Quantity:   s.quantity,
				EntryPrice: px,
				Reason:     "premium momentum",
			})
		}
	}
	return signals, nil
}

func (s *Scalper) ShouldExitPosition(pos models.Position) bool {
	notional := pos.EntryPrice * float64(pos.Quantity)
	if notional <= 0 {
		return false
	}
	pnlPct := pos.UnrealizedPnl / notional * 100

	return pnlPct >= s.targetProfitPct || pnlPct <= -s.stopLossPct
}
