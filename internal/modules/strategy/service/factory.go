package service

// RegisterBuiltins регистрирует встроенные классы стратегий.
func RegisterBuiltins(m *Manager) error {
	if err := m.RegisterClass("Straddle", NewStraddle); err != nil {
		return err
	}
	return m.RegisterClass("Scalper", NewScalper)
}
