package service

import (
	"context"
	"time"

	"options_bot/pkg/logger"
)

// StreamTicks держит ws-подписку на тики инструментов и складывает
// последние цены в кеш клиента. Subscribe вызывается движком по мере
// появления открытых позиций.
func (c *Client) StreamTicks(ctx context.Context, symbols []string) {
	if c.wsURL == "" || len(symbols) == 0 {
		return
	}

	args := make([]string, 0, len(symbols))
	for _, s := range symbols {
		args = append(args, c.instrumentKey(s))
	}

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		logger.Info("gateway ws: connect, %d symbols", len(symbols))
		conn, _, err := c.wsDialer.Dial(c.wsURL, nil)
		if err != nil {
			logger.Error("gateway ws: dial: %v", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}

		sub := map[string]any{
			"op":   "subscribe",
			"args": args,
		}
		if err := conn.WriteJSON(sub); err != nil {
			logger.Error("gateway ws: subscribe: %v", err)
			_ = conn.Close()
			continue
		}

		// keepalive ping каждые 20s — иначе сервер рвёт соединение
		stopPing := make(chan struct{})
		go func() {
			t := time.NewTicker(20 * time.Second)
			defer t.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-stopPing:
					return
				case <-t.C:
					_ = conn.WriteJSON(map[string]string{"op": "ping"})
				}
			}
		}()

		// основной read-loop
		for {
			var frame struct {
				Channel string  `json:"channel"`
				InstID  string  `json:"instId"`
				Last    float64 `json:"last"`
				Ts      int64   `json:"ts"`
			}
			if err := conn.ReadJSON(&frame); err != nil {
				logger.Error("gateway ws: read: %v", err)
				_ = conn.Close()
				close(stopPing)
				break
			}
			if frame.Last <= 0 || frame.InstID == "" {
				continue
			}
			c.storeTick(c.stripInstrumentKey(frame.InstID), frame.Last, time.Now())
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Second):
		}
	}
}
