package service

import (
	"context"
	"time"

	"github.com/bytedance/sonic"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"

	"options_bot/internal/models"
	"options_bot/pkg/db"
)

// ErrIDNotReturned — запись легла в базу, но идентификатор назад не
// доехал. Отдельная категория: сама запись на месте, падать из-за неё
// нельзя, но связку order/position по этому id строить уже нельзя.
var ErrIDNotReturned = errors.New("record persisted but id was not returned")

// PgSink пишет торговые записи в Postgres через TxManager.
type PgSink struct {
	tm db.TxManager
}

func NewPgSink(tm db.TxManager) *PgSink {
	return &PgSink{tm: tm}
}

func (s *PgSink) SaveTrade(ctx context.Context, rec models.TradeRecord) (err error) {
	defer func() {
		if err != nil {
			err = errors.Wrap(err, "PgSink.SaveTrade")
		}
	}()

	return s.tm.RunMaster(ctx, func(ctxTx context.Context, tx pgx.Tx) error {
		var id int64
		err := tx.QueryRow(ctxTx, `
			INSERT INTO trades (ts, symbol, action, quantity, price, order_id, status, pnl, strategy, trading_mode)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			RETURNING id`,
			rec.Timestamp, rec.Symbol, string(rec.Action), rec.Quantity, rec.Price,
			rec.OrderID, string(rec.Status), rec.Pnl, rec.Strategy, string(rec.TradingMode),
		).Scan(&id)
		if err != nil {
			return err
		}
		if id == 0 {
			return ErrIDNotReturned
		}
		return nil
	})
}

func (s *PgSink) SavePosition(ctx context.Context, rec models.PositionRecord) (err error) {
	defer func() {
		if err != nil {
			err = errors.Wrap(err, "PgSink.SavePosition")
		}
	}()

	return s.tm.RunMaster(ctx, func(ctxTx context.Context, tx pgx.Tx) error {
		var id int64
		err := tx.QueryRow(ctxTx, `
			INSERT INTO positions (ts, position_id, symbol, quantity, average_price, current_price,
				pnl, unrealized_pnl, status, strategy, entry_time, exit_time, trading_mode)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
			ON CONFLICT (position_id) DO UPDATE SET
				ts = EXCLUDED.ts,
				current_price = EXCLUDED.current_price,
				pnl = EXCLUDED.pnl,
				unrealized_pnl = EXCLUDED.unrealized_pnl,
				status = EXCLUDED.status,
				exit_time = EXCLUDED.exit_time
			RETURNING id`,
			rec.Timestamp, rec.PositionID, rec.Symbol, rec.Quantity, rec.AveragePrice, rec.CurrentPrice,
			rec.Pnl, rec.UnrealizedPnl, string(rec.Status), rec.Strategy,
			rec.EntryTime, nullableTime(rec.ExitTime), string(rec.TradingMode),
		).Scan(&id)
		if err != nil {
			return err
		}
		if id == 0 {
			return ErrIDNotReturned
		}
		return nil
	})
}

func (s *PgSink) SaveEvent(ctx context.Context, ev models.SystemEvent) (err error) {
	defer func() {
		if err != nil {
			err = errors.Wrap(err, "PgSink.SaveEvent")
		}
	}()

	details, err := sonic.Marshal(ev.Details)
	if err != nil {
		return err
	}

	return s.tm.RunMaster(ctx, func(ctxTx context.Context, tx pgx.Tx) error {
		_, err := tx.Exec(ctxTx, `
			INSERT INTO system_events (ts, event_type, message, details, trading_mode)
			VALUES ($1, $2, $3, $4, $5)`,
			ev.Timestamp, ev.EventType, ev.Message, details, string(ev.TradingMode),
		)
		return err
	})
}

func nullableTime(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t
}
