package service

import (
	"context"

	"github.com/pkg/errors"
)

// ErrPriceUnavailable — цены по символу сейчас нет (нет тика в кеше и
// REST не ответил). Для движка это transient: сигнал/выход просто
// пропускается до следующего цикла.
var ErrPriceUnavailable = errors.New("price unavailable")

// PriceGateway — то, что движку нужно от маркет-даты.
type PriceGateway interface {
	// LastPrice возвращает последнюю цену символа.
	LastPrice(ctx context.Context, symbol string) (float64, error)
	// LastPrices — батч: в ответе только символы, по которым цена есть.
	LastPrices(ctx context.Context, symbols []string) (map[string]float64, error)
	IsAuthenticated() bool
}
