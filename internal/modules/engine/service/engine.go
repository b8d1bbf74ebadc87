package service

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"

	"options_bot/internal/models"
	gw "options_bot/internal/modules/gateway/service"
	persistence "options_bot/internal/modules/persistence/service"
	strategies "options_bot/internal/modules/strategy/service"
	"options_bot/internal/notify"
	"options_bot/pkg/logger"
)

var (
	ErrAlreadyRunning = errors.New("paper trading already running")
	ErrNotRunning     = errors.New("paper trading not running")
)

// Config — параметры движка, собираются из общего конфига в module.go.
type Config struct {
	VirtualCapital  float64
	CycleInterval   time.Duration
	IdleInterval    time.Duration
	ErrorBackoff    time.Duration
	StopJoinTimeout time.Duration
	Hours           MarketHours
}

// Status — снапшот движка для внешних вызовов.
type Status struct {
	IsRunning        bool
	VirtualCapital   float64
	AvailableCapital float64
	TotalPnl         float64
	DailyPnl         float64
	WinningTrades    int
	LosingTrades     int
	TotalTrades      int
	WinRate          float64
	ActivePositions  int
	MarketOpen       bool
	LastUpdated      time.Time
}

// Engine исполняет сигналы активных PAPER-стратегий виртуальными
// деньгами. Все мутации ledger'а происходят на единственном фоновом
// воркере; mu берётся только на время мутации или копирования, так что
// внешние Status/Positions/Orders читают консистентный снапшот,
// не мешая циклу.
type Engine struct {
	cfg      Config
	manager  *strategies.Manager
	gateway  gw.PriceGateway
	sink     persistence.Sink
	snapshot *persistence.SnapshotStore
	n        notify.Notifier

	// ledger
	mu               sync.Mutex
	orders           map[string]*models.Order
	positions        map[string]*models.Position
	orderSeq         int64
	positionSeq      int64
	availableCapital float64
	totalPnl         float64
	dailyPnl         float64
	pnlDay           time.Time // день, к которому относится dailyPnl
	winningTrades    int
	losingTrades     int
	lastUpdated      time.Time

	// управление воркером
	runMu   sync.Mutex
	running atomic.Bool
	cancel  context.CancelFunc
	done    chan struct{}
}

func NewEngine(
	cfg Config,
	manager *strategies.Manager,
	gateway gw.PriceGateway,
	sink persistence.Sink,
	snapshot *persistence.SnapshotStore,
	n notify.Notifier,
) *Engine {
	return &Engine{
		cfg:              cfg,
		manager:          manager,
		gateway:          gateway,
		sink:             sink,
		snapshot:         snapshot,
		n:                n,
		orders:           make(map[string]*models.Order),
		positions:        make(map[string]*models.Position),
		availableCapital: cfg.VirtualCapital,
		pnlDay:           time.Now(),
	}
}

// Start поднимает воркер. Повторный запуск — ошибка без побочных эффектов.
func (e *Engine) Start() error {
	e.runMu.Lock()
	defer e.runMu.Unlock()

	if e.running.Load() {
		return ErrAlreadyRunning
	}

	ctx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel
	e.done = make(chan struct{})
	e.running.Store(true)

	go e.run(ctx, e.done)

	logger.Info("engine: started with virtual capital %.2f", e.cfg.VirtualCapital)
	e.n.Sendf("🚀 Paper trading started | capital %.2f", e.cfg.VirtualCapital)
	e.saveEvent("INFO", "paper trading started")
	return nil
}

// Stop — кооперативная остановка: cancel + join с таймаутом.
// Не запущен или второй вызов подряд — безопасный отказ.
func (e *Engine) Stop() error {
	e.runMu.Lock()
	defer e.runMu.Unlock()

	if !e.running.Load() {
		return ErrNotRunning
	}

	e.cancel()
	select {
	case <-e.done:
	case <-time.After(e.cfg.StopJoinTimeout):
		logger.Error("engine: worker did not stop within %s", e.cfg.StopJoinTimeout)
	}
	e.running.Store(false)

	logger.Info("engine: stopped")
	e.n.Send("⏹️ Paper trading stopped")
	e.saveEvent("INFO", "paper trading stopped")
	return nil
}

func (e *Engine) IsRunning() bool { return e.running.Load() }

func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()

	open := 0
	for _, p := range e.positions {
		if p.Status == models.PositionOpen {
			open++
		}
	}

	total := e.winningTrades + e.losingTrades
	winRate := 0.0
	if total > 0 {
		winRate = float64(e.winningTrades) / float64(total) * 100
	}

	return Status{
		IsRunning:        e.running.Load(),
		VirtualCapital:   e.cfg.VirtualCapital,
		AvailableCapital: e.availableCapital,
		TotalPnl:         e.totalPnl,
		DailyPnl:         e.dailyPnl,
		WinningTrades:    e.winningTrades,
		LosingTrades:     e.losingTrades,
		TotalTrades:      total,
		WinRate:          winRate,
		ActivePositions:  open,
		MarketOpen:       e.cfg.Hours.IsOpen(time.Now()),
		LastUpdated:      e.lastUpdated,
	}
}

// Positions отдаёт копии — ledger наружу не утекает.
func (e *Engine) Positions() []models.Position {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]models.Position, 0, len(e.positions))
	for _, p := range e.positions {
		out = append(out, *p)
	}
	return out
}

func (e *Engine) Orders() []models.Order {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]models.Order, 0, len(e.orders))
	for _, o := range e.orders {
		out = append(out, *o)
	}
	return out
}

func (e *Engine) saveEvent(eventType, msg string) {
	ev := models.SystemEvent{
		Timestamp:   time.Now(),
		EventType:   eventType,
		Message:     msg,
		TradingMode: models.ModePaper,
	}
	if err := e.sink.SaveEvent(context.Background(), ev); err != nil {
		logger.Error("engine: save event: %v", err)
	}
}
