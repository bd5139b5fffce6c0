package binance

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"PriceWindow/internal/domain/models"
	drepo "PriceWindow/internal/domain/repository"
	"PriceWindow/pkg/util"

	"github.com/adshao/go-binance/v2"
)

const Name = "binance"

// Source reads spot prices from the Binance REST API.
type Source struct {
	client  *binance.Client
	symbols models.SymbolTable
}

type Option func(*binance.Client)

// WithBaseURL points the client at another host, e.g. a test server.
func WithBaseURL(base string) Option {
	return func(c *binance.Client) {
		if base != "" {
			c.BaseURL = strings.TrimRight(base, "/")
		}
	}
}

func New(symbols models.SymbolTable, timeout time.Duration, opts ...Option) *Source {
	client := binance.NewClient("", "")
	client.HTTPClient = &http.Client{Timeout: timeout}
	for _, opt := range opts {
		opt(client)
	}
	return &Source{client: client, symbols: symbols}
}

func (s *Source) Name() string { return Name }

func (s *Source) Symbol(asset models.Asset) (string, bool) { return s.symbols.Lookup(asset) }

func (s *Source) LastPrice(ctx context.Context, symbol string) (float64, error) {
	prices, err := s.client.NewListPricesService().Symbol(symbol).Do(ctx)
	if err != nil {
		return 0, &models.FetchError{Source: Name, Op: models.OpLastPrice, Err: err}
	}
	for _, p := range prices {
		if p == nil || p.Symbol != symbol {
			continue
		}
		v, err := util.ParsePrice(p.Price)
		if err != nil {
			return 0, &models.FetchError{Source: Name, Op: models.OpLastPrice, Msg: err.Error(), Err: models.ErrMalformed}
		}
		return v, nil
	}
	return 0, &models.FetchError{Source: Name, Op: models.OpLastPrice, Msg: "no price for " + symbol, Err: models.ErrMissingField}
}

// WindowOpen reads the open of the candle starting exactly at start.
func (s *Source) WindowOpen(ctx context.Context, symbol string, window models.WindowSpec, start time.Time) (float64, error) {
	interval, ok := drepo.CandleInterval(Name, window)
	if !ok {
		return 0, &models.FetchError{Source: Name, Op: models.OpWindowOpen, Msg: "no candle interval for window " + window.Label}
	}

	startMs := start.UnixMilli()
	klines, err := s.client.NewKlinesService().
		Symbol(symbol).
		Interval(interval).
		StartTime(startMs).
		Limit(1).
		Do(ctx)
	if err != nil {
		return 0, &models.FetchError{Source: Name, Op: models.OpWindowOpen, Err: err}
	}
	if len(klines) == 0 || klines[0] == nil {
		return 0, &models.FetchError{Source: Name, Op: models.OpWindowOpen, Msg: "no candle", Err: models.ErrMissingField}
	}
	k := klines[0]
	if k.OpenTime != startMs {
		return 0, &models.FetchError{
			Source: Name,
			Op:     models.OpWindowOpen,
			Msg:    fmt.Sprintf("candle opens at %d, want %d", k.OpenTime, startMs),
			Err:    models.ErrMissingField,
		}
	}
	v, err := util.ParsePrice(k.Open)
	if err != nil {
		return 0, &models.FetchError{Source: Name, Op: models.OpWindowOpen, Msg: err.Error(), Err: models.ErrMalformed}
	}
	return v, nil
}

var _ drepo.PriceSource = (*Source)(nil)
