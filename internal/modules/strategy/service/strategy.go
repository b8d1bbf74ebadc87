package service

import (
	"context"

	"options_bot/internal/models"
	gw "options_bot/internal/modules/gateway/service"
)

// Strategy — минимальный набор способностей, который нужен движку:
// генерация сигналов на вход и решение о выходе из позиции.
type Strategy interface {
	// GenerateSignals может вернуть пустой список — это не ошибка.
	GenerateSignals(ctx context.Context) ([]models.Signal, error)
	// ShouldExitPosition получает снапшот позиции (копию по значению).
	ShouldExitPosition(pos models.Position) bool
	SupportedModes() []models.TradingMode
}

// Deps — коллабораторы, которые менеджер прокидывает в стратегию
// при создании инстанса.
type Deps struct {
	Gateway gw.PriceGateway
}

// Factory конструирует стратегию из параметров инстанса.
type Factory func(deps Deps, params map[string]interface{}) (Strategy, error)
