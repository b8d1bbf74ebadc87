package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"options_bot/internal/modules/config"
	"options_bot/pkg/logger"
)

// Client — REST-клиент котировок + ws-стрим тиков в кеш последних цен.
// LastPrice/LastPrices сначала смотрят в кеш, потом добирают по REST.
type Client struct {
	cfg *config.Config

	http     *http.Client
	wsDialer *websocket.Dialer

	baseURL   string
	wsURL     string
	exchange  string // префикс инструмента в ltp-ключах, напр. "NFO"
	apiKey    string
	apiSecret string

	mu    sync.RWMutex
	last  map[string]tickEntry
	authd bool
}

type tickEntry struct {
	price float64
	at    time.Time
}

// тик в кеше считаем свежим столько времени; дальше — REST
const cacheTTL = 15 * time.Second

func NewClient(cfg *config.Config) *Client {
	return &Client{
		cfg:       cfg,
		http:      &http.Client{Timeout: 10 * time.Second},
		wsDialer:  &websocket.Dialer{},
		baseURL:   cfg.Gateway.BaseURL,
		wsURL:     cfg.Gateway.WSURL,
		exchange:  cfg.Gateway.Exchange,
		apiKey:    cfg.Gateway.APIKey,
		apiSecret: cfg.Gateway.APISecret,
		last:      make(map[string]tickEntry),
	}
}

func (c *Client) IsAuthenticated() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.authd
}

// Authenticate дергает профиль — заодно валидирует ключи.
func (c *Client) Authenticate(ctx context.Context) error {
	resp, err := c.http.Do(c.generateRequest(ctx, http.MethodGet, "/user/profile", ""))
	if err != nil {
		return errors.Wrap(err, "gateway profile request")
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		rb, _ := io.ReadAll(resp.Body)
		return errors.Errorf("gateway auth http %d: %s", resp.StatusCode, string(rb))
	}

	c.mu.Lock()
	c.authd = true
	c.mu.Unlock()
	return nil
}

func (c *Client) LastPrice(ctx context.Context, symbol string) (float64, error) {
	if px, ok := c.cached(symbol); ok {
		return px, nil
	}

	prices, err := c.fetchLTP(ctx, []string{symbol})
	if err != nil {
		return 0, err
	}
	px, ok := prices[symbol]
	if !ok {
		return 0, ErrPriceUnavailable
	}
	return px, nil
}

func (c *Client) LastPrices(ctx context.Context, symbols []string) (map[string]float64, error) {
	out := make(map[string]float64, len(symbols))
	missing := make([]string, 0, len(symbols))

	for _, s := range symbols {
		if px, ok := c.cached(s); ok {
			out[s] = px
		} else {
			missing = append(missing, s)
		}
	}
	if len(missing) == 0 {
		return out, nil
	}

	fetched, err := c.fetchLTP(ctx, missing)
	if err != nil {
		// частичный ответ из кеша лучше, чем ничего
		if len(out) > 0 {
			logger.Warn("gateway: ltp fetch failed, serving %d/%d from cache: %v", len(out), len(symbols), err)
			return out, nil
		}
		return nil, err
	}
	for s, px := range fetched {
		out[s] = px
	}
	return out, nil
}

func (c *Client) cached(symbol string) (float64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.last[symbol]
	if !ok || time.Since(e.at) > cacheTTL {
		return 0, false
	}
	return e.price, true
}

func (c *Client) storeTick(symbol string, price float64, at time.Time) {
	c.mu.Lock()
	c.last[symbol] = tickEntry{price: price, at: at}
	c.mu.Unlock()
}

type ltpResponse struct {
	Status string `json:"status"`
	Data   map[string]struct {
		LastPrice float64 `json:"last_price"`
	} `json:"data"`
}

// fetchLTP — батч-запрос last traded price: /quote/ltp?i=NFO:SYM1&i=NFO:SYM2
func (c *Client) fetchLTP(ctx context.Context, symbols []string) (map[string]float64, error) {
	q := url.Values{}
	for _, s := range symbols {
		q.Add("i", c.instrumentKey(s))
	}
	path := "/quote/ltp?" + q.Encode()

	resp, err := c.http.Do(c.generateRequest(ctx, http.MethodGet, path, ""))
	if err != nil {
		return nil, errors.Wrap(err, "gateway ltp request")
	}
	defer resp.Body.Close()

	rb, _ := io.ReadAll(resp.Body)
	if resp.StatusCode/100 != 2 {
		return nil, errors.Errorf("gateway ltp http %d: %s", resp.StatusCode, string(rb))
	}

	var respData ltpResponse
	if err := sonic.Unmarshal(rb, &respData); err != nil {
		return nil, errors.Wrap(err, "gateway ltp decode")
	}
	if respData.Status != "success" {
		return nil, errors.Errorf("gateway ltp status=%s", respData.Status)
	}

	out := make(map[string]float64, len(respData.Data))
	now := time.Now()
	for key, d := range respData.Data {
		if d.LastPrice <= 0 {
			continue
		}
		sym := c.stripInstrumentKey(key)
		out[sym] = d.LastPrice
		c.storeTick(sym, d.LastPrice, now)
	}
	return out, nil
}

func (c *Client) instrumentKey(symbol string) string {
	return c.exchange + ":" + symbol
}

func (c *Client) stripInstrumentKey(key string) string {
	if i := strings.IndexByte(key, ':'); i >= 0 {
		return key[i+1:]
	}
	return key
}

func (c *Client) generateRequest(ctx context.Context, method string, requestPath string, body string) *http.Request {
	ts := time.Now().UTC().Format("2006-01-02T15:04:05.000Z")
	msg := ts + strings.ToUpper(method) + requestPath + body
	h := hmac.New(sha256.New, []byte(c.apiSecret))
	h.Write([]byte(msg))
	req, _ := http.NewRequestWithContext(ctx, method, c.baseURL+requestPath, nil)
	req.Header.Set("X-API-KEY", c.apiKey)
	req.Header.Set("X-API-SIGN", hex.EncodeToString(h.Sum(nil)))
	req.Header.Set("X-API-TIMESTAMP", ts)
	req.Header.Set("Authorization", fmt.Sprintf("token %s:%s", c.apiKey, c.apiSecret))
	return req
}
