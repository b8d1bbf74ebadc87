package service

import (
	"fmt"
	"sync"
	"time"

	"github.com/pkg/errors"

	"options_bot/internal/models"
	gw "options_bot/internal/modules/gateway/service"
	"options_bot/pkg/logger"
)

// Ошибки конфигурации — единственные, которые возвращаются вызывающему
// синхронно. Всё остальное (цены, персист) движок глотает и логирует.
var (
	ErrInvalidImplementation = errors.New("strategy implementation does not satisfy capability set")
	ErrDuplicateName         = errors.New("strategy name already exists")
	ErrUnknownClass          = errors.New("strategy class not registered")
	ErrInvalidCapital        = errors.New("capital allocation must be positive")
	ErrModeNotReady          = errors.New("trading mode prerequisites not met")
	ErrNotFound              = errors.New("strategy not found")
	ErrBadTransition         = errors.New("invalid strategy status transition")
)

// Instance — конфигурация + живой объект стратегии + её статистика.
// Мутируется только операциями менеджера.
type Instance struct {
	Name              string
	Class             string
	Parameters        map[string]interface{}
	Mode              models.TradingMode
	CapitalAllocation float64
	RiskLimits        map[string]float64
	Status            models.StrategyStatus
	CreatedAt         time.Time
	Strategy          Strategy
	Performance       models.Performance
}

// InstanceInfo — копия для выдачи наружу.
type InstanceInfo struct {
	Name              string
	Class             string
	Mode              models.TradingMode
	Status            models.StrategyStatus
	CapitalAllocation float64
	CreatedAt         time.Time
	Performance       models.Performance
}

// Manager — реестр классов стратегий и их инстансов.
type Manager struct {
	mu        sync.RWMutex
	registry  map[string]Factory
	instances map[string]*Instance

	gateway gw.PriceGateway
}

func NewManager(gateway gw.PriceGateway) *Manager {
	return &Manager{
		registry:  make(map[string]Factory),
		instances: make(map[string]*Instance),
		gateway:   gateway,
	}
}

// RegisterClass идемпотентен по имени класса: повторная регистрация
// заменяет фабрику.
func (m *Manager) RegisterClass(className string, f Factory) error {
	if className == "" || f == nil {
		return ErrInvalidImplementation
	}

	m.mu.Lock()
	m.registry[className] = f
	m.mu.Unlock()

	logger.Info("strategy: registered class %s", className)
	return nil
}

func (m *Manager) CreateInstance(
	name string,
	className string,
	parameters map[string]interface{},
	mode models.TradingMode,
	capitalAllocation float64,
	riskLimits map[string]float64,
) error {
	if capitalAllocation <= 0 {
		return ErrInvalidCapital
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.instances[name]; exists {
		return errors.Wrap(ErrDuplicateName, name)
	}
	factory, ok := m.registry[className]
	if !ok {
		return errors.Wrap(ErrUnknownClass, className)
	}

	stg, err := factory(Deps{Gateway: m.gateway}, parameters)
	if err != nil {
		return fmt.Errorf("construct strategy %q: %w", name, err)
	}

	now := time.Now()
	m.instances[name] = &Instance{
		Name:              name,
		Class:             className,
		Parameters:        parameters,
		Mode:              mode,
		CapitalAllocation: capitalAllocation,
		RiskLimits:        riskLimits,
		Status:            models.StrategyInactive,
		CreatedAt:         now,
		Strategy:          stg,
		Performance:       models.Performance{CreatedAt: now, LastUpdated: now},
	}

	logger.Info("strategy: created instance %s (%s, %s)", name, className, mode)
	return nil
}

// Activate переводит INACTIVE → ACTIVE. Повторная активация — no-op
// без сброса состояния. LIVE требует аутентифицированного гейтвея.
func (m *Manager) Activate(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	inst, ok := m.instances[name]
	if !ok {
		return errors.Wrap(ErrNotFound, name)
	}
	if inst.Status == models.StrategyActive {
		return nil
	}
	if inst.Mode == models.ModeLive && !m.gateway.IsAuthenticated() {
		return errors.Wrap(ErrModeNotReady, "live mode requires authenticated gateway")
	}
	if !inst.Status.CanTransition(models.StrategyActive) {
		return errors.Wrapf(ErrBadTransition, "%s -> ACTIVE", inst.Status)
	}

	inst.Status = models.StrategyActive
	logger.Info("strategy: activated %s", name)
	return nil
}

func (m *Manager) Deactivate(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	inst, ok := m.instances[name]
	if !ok {
		return errors.Wrap(ErrNotFound, name)
	}
	if inst.Status == models.StrategyInactive {
		return nil
	}
	if !inst.Status.CanTransition(models.StrategyInactive) {
		return errors.Wrapf(ErrBadTransition, "%s -> INACTIVE", inst.Status)
	}

	inst.Status = models.StrategyInactive
	logger.Info("strategy: deactivated %s", name)
	return nil
}

// Transition — для переходов, инициируемых движком (PAUSED/ERROR/COMPLETED).
func (m *Manager) Transition(name string, to models.StrategyStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	inst, ok := m.instances[name]
	if !ok {
		return errors.Wrap(ErrNotFound, name)
	}
	if inst.Status == to {
		return nil
	}
	if !inst.Status.CanTransition(to) {
		return errors.Wrapf(ErrBadTransition, "%s -> %s", inst.Status, to)
	}
	inst.Status = to
	return nil
}

// Remove выносит конфигурацию, инстанс и статистику разом.
func (m *Manager) Remove(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.instances[name]; !ok {
		return errors.Wrap(ErrNotFound, name)
	}
	delete(m.instances, name)

	logger.Info("strategy: removed %s", name)
	return nil
}

// RecordTradeOutcome обновляет счётчики сделок. Неизвестное имя —
// не фатально: сделка уже закрыта, терять её из-за гонки с Remove глупо.
func (m *Manager) RecordTradeOutcome(name string, pnl float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	inst, ok := m.instances[name]
	if !ok {
		logger.Warn("strategy: trade outcome for unknown instance %s (pnl=%.2f)", name, pnl)
		return
	}

	perf := &inst.Performance
	perf.TotalTrades++
	if pnl > 0 {
		perf.WinningTrades++
	} else if pnl < 0 {
		perf.LosingTrades++
	}
	perf.TotalPnl += pnl
	if pnl < 0 && -pnl > perf.MaxDrawdown {
		perf.MaxDrawdown = -pnl
	}
	perf.LastUpdated = time.Now()
}

// ActiveInstances возвращает ACTIVE-инстансы режима. Порядок не
// гарантирован — это итерация по мапе.
func (m *Manager) ActiveInstances(mode models.TradingMode) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.instances))
	for name, inst := range m.instances {
		if inst.Mode == mode && inst.Status == models.StrategyActive {
			names = append(names, name)
		}
	}
	return names
}

func (m *Manager) Strategy(name string) (Strategy, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	inst, ok := m.instances[name]
	if !ok {
		return nil, false
	}
	return inst.Strategy, true
}

func (m *Manager) ValidateModeSupport(name string, mode models.TradingMode) bool {
	m.mu.RLock()
	inst, ok := m.instances[name]
	m.mu.RUnlock()
	if !ok {
		return false
	}

	for _, supported := range inst.Strategy.SupportedModes() {
		if supported == mode {
			return true
		}
	}
	return false
}

func (m *Manager) ListInstances() []InstanceInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]InstanceInfo, 0, len(m.instances))
	for _, inst := range m.instances {
		out = append(out, InstanceInfo{
			Name:              inst.Name,
			Class:             inst.Class,
			Mode:              inst.Mode,
			Status:            inst.Status,
			CapitalAllocation: inst.CapitalAllocation,
			CreatedAt:         inst.CreatedAt,
			Performance:       inst.Performance,
		})
	}
	return out
}
