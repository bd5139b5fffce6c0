package bybit

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"PriceWindow/internal/domain/models"
	drepo "PriceWindow/internal/domain/repository"
	"PriceWindow/pkg/util"

	bybit "github.com/bybit-exchange/bybit.go.api"
)

const (
	Name            = "bybit"
	DefaultBaseURL  = "https://api.bybit.com"
	defaultCategory = "spot"
)

// Source reads spot prices from the Bybit v5 market endpoints.
type Source struct {
	client   *bybit.Client
	symbols  models.SymbolTable
	category string
}

func New(symbols models.SymbolTable, baseURL string, timeout time.Duration) *Source {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	client := bybit.NewBybitHttpClient("", "", bybit.WithBaseURL(strings.TrimRight(baseURL, "/")))
	client.HTTPClient = &http.Client{Timeout: timeout}
	return &Source{client: client, symbols: symbols, category: defaultCategory}
}

func (s *Source) Name() string { return Name }

func (s *Source) Symbol(asset models.Asset) (string, bool) { return s.symbols.Lookup(asset) }

type tickersResult struct {
	List []struct {
		Symbol    string `json:"symbol"`
		LastPrice string `json:"lastPrice"`
	} `json:"list"`
}

type klineResult struct {
	Symbol string     `json:"symbol"`
	List   [][]string `json:"list"` // startTime, open, high, low, close, volume, turnover
}

func (s *Source) LastPrice(ctx context.Context, symbol string) (float64, error) {
	params := map[string]interface{}{
		"category": s.category,
		"symbol":   symbol,
	}
	resp, err := s.client.NewUtaBybitServiceWithParams(params).GetMarketTickers(ctx)
	if err != nil {
		return 0, &models.FetchError{Source: Name, Op: models.OpLastPrice, Err: err}
	}
	var res tickersResult
	if err := decodeResult(resp, &res); err != nil {
		return 0, &models.FetchError{Source: Name, Op: models.OpLastPrice, Msg: err.Error(), Err: models.ErrMalformed}
	}
	for _, t := range res.List {
		if t.Symbol != symbol {
			continue
		}
		v, err := util.ParsePrice(t.LastPrice)
		if err != nil {
			return 0, &models.FetchError{Source: Name, Op: models.OpLastPrice, Msg: err.Error(), Err: models.ErrMalformed}
		}
		return v, nil
	}
	return 0, &models.FetchError{Source: Name, Op: models.OpLastPrice, Msg: "no ticker for " + symbol, Err: models.ErrMissingField}
}

func (s *Source) WindowOpen(ctx context.Context, symbol string, window models.WindowSpec, start time.Time) (float64, error) {
	interval, ok := drepo.CandleInterval(Name, window)
	if !ok {
		return 0, &models.FetchError{Source: Name, Op: models.OpWindowOpen, Msg: "no candle interval for window " + window.Label}
	}

	startMs := start.UnixMilli()
	params := map[string]interface{}{
		"category": s.category,
		"symbol":   symbol,
		"interval": interval,
		"start":    startMs,
		"end":      startMs + window.Size.Milliseconds() - 1,
		"limit":    1,
	}
	resp, err := s.client.NewUtaBybitServiceWithParams(params).GetMarketKline(ctx)
	if err != nil {
		return 0, &models.FetchError{Source: Name, Op: models.OpWindowOpen, Err: err}
	}
	var res klineResult
	if err := decodeResult(resp, &res); err != nil {
		return 0, &models.FetchError{Source: Name, Op: models.OpWindowOpen, Msg: err.Error(), Err: models.ErrMalformed}
	}

	want := strconv.FormatInt(startMs, 10)
	for _, row := range res.List {
		if len(row) < 2 || row[0] != want {
			continue
		}
		v, err := util.ParsePrice(row[1])
		if err != nil {
			return 0, &models.FetchError{Source: Name, Op: models.OpWindowOpen, Msg: err.Error(), Err: models.ErrMalformed}
		}
		return v, nil
	}
	return 0, &models.FetchError{Source: Name, Op: models.OpWindowOpen, Msg: "no candle starting at " + want, Err: models.ErrMissingField}
}

// decodeResult re-encodes the SDK's untyped result into dest.
func decodeResult(resp *bybit.ServerResponse, dest interface{}) error {
	if resp == nil {
		return fmt.Errorf("empty response")
	}
	if resp.RetCode != 0 {
		return fmt.Errorf("retCode %d: %s", resp.RetCode, resp.RetMsg)
	}
	payload, err := json.Marshal(resp.Result)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	if err := json.Unmarshal(payload, dest); err != nil {
		return fmt.Errorf("decode result: %w", err)
	}
	return nil
}

var _ drepo.PriceSource = (*Source)(nil)
