package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"options_bot/internal/models"
	gw "options_bot/internal/modules/gateway/service"
	"options_bot/pkg/logger"
)

func TestMain(m *testing.M) {
	logger.InfoLogger = zap.NewNop()
	logger.FatalLogger = zap.NewNop()
	m.Run()
}

type stubGateway struct {
	prices map[string]float64
	authed bool
}

func (g *stubGateway) LastPrice(_ context.Context, symbol string) (float64, error) {
	px, ok := g.prices[symbol]
	if !ok {
		return 0, gw.ErrPriceUnavailable
	}
	return px, nil
}

func (g *stubGateway) LastPrices(_ context.Context, symbols []string) (map[string]float64, error) {
	out := make(map[string]float64)
	for _, s := range symbols {
		if px, ok := g.prices[s]; ok {
			out[s] = px
		}
	}
	return out, nil
}

func (g *stubGateway) IsAuthenticated() bool { return g.authed }

type noopStrategy struct {
	modes []models.TradingMode
}

func (noopStrategy) GenerateSignals(context.Context) ([]models.Signal, error) { return nil, nil }
func (noopStrategy) ShouldExitPosition(models.Position) bool                  { return false }
func (s noopStrategy) SupportedModes() []models.TradingMode {
	if s.modes != nil {
		return s.modes
	}
	return []models.TradingMode{models.ModePaper}
}

func noopFactory(Deps, map[string]interface{}) (Strategy, error) {
	return noopStrategy{}, nil
}

func newManagerWithClass(t *testing.T, g *stubGateway) *Manager {
	t.Helper()
	if g == nil {
		g = &stubGateway{}
	}
	m := NewManager(g)
	require.NoError(t, m.RegisterClass("Noop", noopFactory))
	return m
}

func TestRegisterClassValidation(t *testing.T) {
	m := NewManager(&stubGateway{})

	assert.ErrorIs(t, m.RegisterClass("", noopFactory), ErrInvalidImplementation)
	assert.ErrorIs(t, m.RegisterClass("Noop", nil), ErrInvalidImplementation)
	assert.NoError(t, m.RegisterClass("Noop", noopFactory))
	// повторная регистрация заменяет фабрику
	assert.NoError(t, m.RegisterClass("Noop", noopFactory))
}

func TestCreateInstanceValidation(t *testing.T) {
	m := newManagerWithClass(t, nil)

	assert.ErrorIs(t, m.CreateInstance("a", "Noop", nil, models.ModePaper, 0, nil), ErrInvalidCapital)
	assert.ErrorIs(t, m.CreateInstance("a", "Noop", nil, models.ModePaper, -5, nil), ErrInvalidCapital)
	assert.ErrorIs(t, m.CreateInstance("a", "Missing", nil, models.ModePaper, 1000, nil), ErrUnknownClass)

	require.NoError(t, m.CreateInstance("a", "Noop", nil, models.ModePaper, 1000, nil))
	assert.ErrorIs(t, m.CreateInstance("a", "Noop", nil, models.ModePaper, 1000, nil), ErrDuplicateName)

	infos := m.ListInstances()
	require.Len(t, infos, 1)
	assert.Equal(t, models.StrategyInactive, infos[0].Status)
	assert.Equal(t, 1000.0, infos[0].CapitalAllocation)
	assert.Zero(t, infos[0].Performance.TotalTrades)
}

func TestActivationStateMachine(t *testing.T) {
	m := newManagerWithClass(t, nil)
	require.NoError(t, m.CreateInstance("a", "Noop", nil, models.ModePaper, 1000, nil))

	assert.ErrorIs(t, m.Activate("missing"), ErrNotFound)

	require.NoError(t, m.Activate("a"))
	// повторная активация — no-op
	require.NoError(t, m.Activate("a"))
	assert.Equal(t, []string{"a"}, m.ActiveInstances(models.ModePaper))

	require.NoError(t, m.Deactivate("a"))
	require.NoError(t, m.Deactivate("a"))
	assert.Empty(t, m.ActiveInstances(models.ModePaper))
}

func TestLiveModeRequiresAuthentication(t *testing.T) {
	g := &stubGateway{}
	m := NewManager(g)
	require.NoError(t, m.RegisterClass("Noop", noopFactory))
	require.NoError(t, m.CreateInstance("live-1", "Noop", nil, models.ModeLive, 1000, nil))

	assert.ErrorIs(t, m.Activate("live-1"), ErrModeNotReady)

	g.authed = true
	assert.NoError(t, m.Activate("live-1"))
}

func TestErrorStatusIsTerminal(t *testing.T) {
	m := newManagerWithClass(t, nil)
	require.NoError(t, m.CreateInstance("a", "Noop", nil, models.ModePaper, 1000, nil))
	require.NoError(t, m.Activate("a"))

	require.NoError(t, m.Transition("a", models.StrategyError))
	assert.Empty(t, m.ActiveInstances(models.ModePaper))

	assert.ErrorIs(t, m.Activate("a"), ErrBadTransition)
	assert.ErrorIs(t, m.Deactivate("a"), ErrBadTransition)
}

func TestActiveInstancesFiltersByMode(t *testing.T) {
	m := newManagerWithClass(t, &stubGateway{authed: true})
	require.NoError(t, m.CreateInstance("paper-1", "Noop", nil, models.ModePaper, 1000, nil))
	require.NoError(t, m.CreateInstance("live-1", "Noop", nil, models.ModeLive, 1000, nil))
	require.NoError(t, m.CreateInstance("paper-idle", "Noop", nil, models.ModePaper, 1000, nil))

	require.NoError(t, m.Activate("paper-1"))
	require.NoError(t, m.Activate("live-1"))

	assert.Equal(t, []string{"paper-1"}, m.ActiveInstances(models.ModePaper))
	assert.Equal(t, []string{"live-1"}, m.ActiveInstances(models.ModeLive))
}

func TestRemove(t *testing.T) {
	m := newManagerWithClass(t, nil)
	require.NoError(t, m.CreateInstance("a", "Noop", nil, models.ModePaper, 1000, nil))

	require.NoError(t, m.Remove("a"))
	assert.ErrorIs(t, m.Remove("a"), ErrNotFound)
	assert.Empty(t, m.ListInstances())

	_, ok := m.Strategy("a")
	assert.False(t, ok)
}

func TestRecordTradeOutcome(t *testing.T) {
	m := newManagerWithClass(t, nil)
	require.NoError(t, m.CreateInstance("a", "Noop", nil, models.ModePaper, 1000, nil))

	m.RecordTradeOutcome("a", 500)
	m.RecordTradeOutcome("a", -200)
	m.RecordTradeOutcome("a", -700)
	m.RecordTradeOutcome("a", 100)
	// неизвестное имя не паникует и не падает
	m.RecordTradeOutcome("ghost", 42)

	infos := m.ListInstances()
	require.Len(t, infos, 1)
	perf := infos[0].Performance
	assert.Equal(t, 4, perf.TotalTrades)
	assert.Equal(t, 2, perf.WinningTrades)
	assert.Equal(t, 2, perf.LosingTrades)
	assert.InDelta(t, -300.0, perf.TotalPnl, 1e-6)
	assert.Equal(t, 700.0, perf.MaxDrawdown)
}

func TestValidateModeSupport(t *testing.T) {
	m := NewManager(&stubGateway{})
	require.NoError(t, m.RegisterClass("PaperOnly", func(Deps, map[string]interface{}) (Strategy, error) {
		return noopStrategy{modes: []models.TradingMode{models.ModePaper}}, nil
	}))
	require.NoError(t, m.CreateInstance("a", "PaperOnly", nil, models.ModePaper, 1000, nil))

	assert.True(t, m.ValidateModeSupport("a", models.ModePaper))
	assert.False(t, m.ValidateModeSupport("a", models.ModeLive))
	assert.False(t, m.ValidateModeSupport("missing", models.ModePaper))
}
