package health

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"time"

	"go.uber.org/fx"

	"options_bot/internal/modules/config"
	engine "options_bot/internal/modules/engine/service"
)

// HTTP-срез наружу: статус движка, позиции, ордера.

func NewMux(e *engine.Engine) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/livez", func(w http.ResponseWriter, r *http.Request) {
		// liveness: процесс жив
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		// readiness: воркер движка жив
		if !e.IsRunning() {
			http.Error(w, "not running", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	mux.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		st := e.Status()
		resp := map[string]any{
			"is_running":        st.IsRunning,
			"virtual_capital":   st.VirtualCapital,
			"available_capital": st.AvailableCapital,
			"used_capital":      st.VirtualCapital - st.AvailableCapital,
			"total_pnl":         st.TotalPnl,
			"daily_pnl":         st.DailyPnl,
			"winning_trades":    st.WinningTrades,
			"losing_trades":     st.LosingTrades,
			"total_trades":      st.TotalTrades,
			"win_rate":          st.WinRate,
			"active_positions":  st.ActivePositions,
			"market_open":       st.MarketOpen,
			"last_updated":      st.LastUpdated,
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	})

	mux.HandleFunc("/positions", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(e.Positions())
	})

	mux.HandleFunc("/orders", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(e.Orders())
	})

	return mux
}

func RunHTTP(lc fx.Lifecycle, cfg *config.Config, mux *http.ServeMux) {
	srv := &http.Server{
		Addr:              cfg.Service.HealthAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", srv.Addr)
			if err != nil {
				return err
			}
			go func() { _ = srv.Serve(ln) }()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}

func Module() fx.Option {
	return fx.Module("health",
		fx.Provide(
			NewMux,
		),
		fx.Invoke(RunHTTP),
	)
}
