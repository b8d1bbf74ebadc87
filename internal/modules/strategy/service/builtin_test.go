package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"options_bot/internal/models"
)

func TestScalperMomentumEntry(t *testing.T) {
	g := &stubGateway{prices: map[string]float64{"SYM": 100}}
	stg, err := NewScalper(Deps{Gateway: g}, map[string]interface{}{
		"symbols":          []interface{}{"SYM"},
		"quantity":         10,
		"momentum_percent": 2.0,
	})
	require.NoError(t, err)

	// первый цикл только запоминает цену
	signals, err := stg.GenerateSignals(context.Background())
	require.NoError(t, err)
	assert.Empty(t, signals)

	// движение ниже порога — входа нет
	g.prices["SYM"] = 101
	signals, err = stg.GenerateSignals(context.Background())
	require.NoError(t, err)
	assert.Empty(t, signals)

	// +3% от последнего наблюдения — вход
	g.prices["SYM"] = 104.1
	signals, err = stg.GenerateSignals(context.Background())
	require.NoError(t, err)
	require.Len(t, signals, 1)
	assert.Equal(t, "SYM", signals[0].Symbol)
	assert.Equal(t, int64(10), signals[0].Quantity)
	assert.Equal(t, 104.1, signals[0].EntryPrice)
}

func TestScalperExitThresholds(t *testing.T) {
	stg, err := NewScalper(Deps{}, map[string]interface{}{
		"profit_target_percent": 20.0,
		"max_loss_percent":      25.0,
	})
	require.NoError(t, err)

	pos := models.Position{Symbol: "SYM", Quantity: 10, EntryPrice: 100, Status: models.PositionOpen}

	pos.UpdatePnL(110) // +10%
	assert.False(t, stg.ShouldExitPosition(pos))

	pos.UpdatePnL(120) // +20%
	assert.True(t, stg.ShouldExitPosition(pos))

	pos.UpdatePnL(80) // -20%
	assert.False(t, stg.ShouldExitPosition(pos))

	pos.UpdatePnL(75) // -25%
	assert.True(t, stg.ShouldExitPosition(pos))
}

func TestStraddleExitThresholds(t *testing.T) {
	stg, err := NewStraddle(Deps{}, map[string]interface{}{
		"call_symbol":           "NIFTY25SEP24800CE",
		"put_symbol":            "NIFTY25SEP24800PE",
		"profit_target_percent": 35.0,
		"max_loss_percent":      40.0,
		"exit_time":             "23:59", // не мешаем pnl-порогам в тесте
	})
	require.NoError(t, err)

	pos := models.Position{Symbol: "NIFTY25SEP24800CE", Quantity: 75, EntryPrice: 200, Status: models.PositionOpen}

	pos.UpdatePnL(240) // +20%
	assert.False(t, stg.ShouldExitPosition(pos))

	pos.UpdatePnL(270) // +35%
	assert.True(t, stg.ShouldExitPosition(pos))

	pos.UpdatePnL(130) // -35%
	assert.False(t, stg.ShouldExitPosition(pos))

	pos.UpdatePnL(120) // -40%
	assert.True(t, stg.ShouldExitPosition(pos))
}

func TestParamHelpers(t *testing.T) {
	params := map[string]interface{}{
		"f_float":  1.5,
		"f_int":    3,
		"i_int":    int64(7),
		"s":        "hello",
		"list":     []interface{}{"a", "b"},
		"strs":     []string{"x", "y"},
		"clock":    "09:20",
		"badclock": "морning",
	}

	assert.Equal(t, 1.5, floatParam(params, "f_float", 0))
	assert.Equal(t, 3.0, floatParam(params, "f_int", 0))
	assert.Equal(t, 9.0, floatParam(params, "missing", 9))

	assert.Equal(t, int64(7), intParam(params, "i_int", 0))
	assert.Equal(t, int64(42), intParam(params, "missing", 42))

	assert.Equal(t, "hello", stringParam(params, "s", ""))
	assert.Equal(t, "dflt", stringParam(params, "missing", "dflt"))

	assert.Equal(t, []string{"a", "b"}, stringsParam(params, "list"))
	assert.Equal(t, []string{"x", "y"}, stringsParam(params, "strs"))
	assert.Nil(t, stringsParam(params, "missing"))

	assert.Equal(t, 9*60+20, clockParam(params, "clock", "00:00"))
	assert.Equal(t, 0, clockParam(params, "badclock", "00:00"))
}

func TestRegisterBuiltins(t *testing.T) {
	m := NewManager(&stubGateway{})
	require.NoError(t, RegisterBuiltins(m))

	require.NoError(t, m.CreateInstance("straddle-1", "Straddle", nil, models.ModePaper, 100000, nil))
	require.NoError(t, m.CreateInstance("scalper-1", "Scalper", nil, models.ModePaper, 100000, nil))

	assert.True(t, m.ValidateModeSupport("scalper-1", models.ModeLive))
	assert.False(t, m.ValidateModeSupport("straddle-1", models.ModeLive))
}
