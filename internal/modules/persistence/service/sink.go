package service

import (
	"context"

	"options_bot/internal/models"
	"options_bot/pkg/logger"
)

// Sink — durable append торговых записей. Для движка это fire-and-forget:
// ошибка записи логируется, in-memory ledger не откатывается.
type Sink interface {
	SaveTrade(ctx context.Context, rec models.TradeRecord) error
	SavePosition(ctx context.Context, rec models.PositionRecord) error
	SaveEvent(ctx context.Context, ev models.SystemEvent) error
}

// LogSink — фолбэк без базы: всё в лог. Удобно для локального запуска.
type LogSink struct{}

func NewLogSink() *LogSink { return &LogSink{} }

func (s *LogSink) SaveTrade(_ context.Context, rec models.TradeRecord) error {
	logger.Info("trade: %s %s x%d @ %.2f (%s, pnl=%.2f)",
		rec.Action, rec.Symbol, rec.Quantity, rec.Price, rec.Strategy, rec.Pnl)
	return nil
}

func (s *LogSink) SavePosition(_ context.Context, rec models.PositionRecord) error {
	logger.Info("position: %s %s x%d avg=%.2f status=%s",
		rec.PositionID, rec.Symbol, rec.Quantity, rec.AveragePrice, rec.Status)
	return nil
}

func (s *LogSink) SaveEvent(_ context.Context, ev models.SystemEvent) error {
	logger.Info("event: [%s] %s", ev.EventType, ev.Message)
	return nil
}
