package coinbase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"PriceWindow/internal/domain/models"
	drepo "PriceWindow/internal/domain/repository"
	xhttp "PriceWindow/pkg/http"
	"PriceWindow/pkg/util"
)

const (
	Name           = "coinbase"
	DefaultBaseURL = "https://api.exchange.coinbase.com"
)

// Source reads prices from the Coinbase Exchange public API.
type Source struct {
	baseURL string
	client  *xhttp.Client
	symbols models.SymbolTable
}

func New(symbols models.SymbolTable, baseURL string, timeout time.Duration) *Source {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Source{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  xhttp.NewClient(xhttp.WithTimeout(timeout), xhttp.WithUserAgent("pricewindow/1.0")),
		symbols: symbols,
	}
}

func (s *Source) Name() string { return Name }

func (s *Source) Symbol(asset models.Asset) (string, bool) { return s.symbols.Lookup(asset) }

type ticker struct {
	Price string `json:"price"`
}

func (s *Source) LastPrice(ctx context.Context, symbol string) (float64, error) {
	var t ticker
	if err := s.client.GetJSON(ctx, s.productURL(symbol, "ticker"), nil, &t); err != nil {
		return 0, wrap(models.OpLastPrice, err)
	}
	if t.Price == "" {
		return 0, &models.FetchError{Source: Name, Op: models.OpLastPrice, Msg: "price missing", Err: models.ErrMissingField}
	}
	v, err := util.ParsePrice(t.Price)
	if err != nil {
		return 0, &models.FetchError{Source: Name, Op: models.OpLastPrice, Msg: err.Error(), Err: models.ErrMalformed}
	}
	return v, nil
}

// WindowOpen reads candles as [time, low, high, open, close, volume] rows.
func (s *Source) WindowOpen(ctx context.Context, symbol string, window models.WindowSpec, start time.Time) (float64, error) {
	gran, ok := drepo.CandleInterval(Name, window)
	if !ok {
		return 0, &models.FetchError{Source: Name, Op: models.OpWindowOpen, Msg: "no candle granularity for window " + window.Label}
	}

	query := map[string][]string{
		"granularity": {gran},
		"start":       {start.UTC().Format(time.RFC3339)},
		"end":         {start.Add(window.Size - time.Second).UTC().Format(time.RFC3339)},
	}
	var rows [][]float64
	if err := s.client.GetJSON(ctx, s.productURL(symbol, "candles"), query, &rows); err != nil {
		return 0, wrap(models.OpWindowOpen, err)
	}

	want := start.Unix()
	for _, row := range rows {
		if len(row) < 4 || int64(row[0]) != want {
			continue
		}
		if row[3] <= 0 {
			return 0, &models.FetchError{Source: Name, Op: models.OpWindowOpen, Msg: "non-positive open", Err: models.ErrMalformed}
		}
		return row[3], nil
	}
	return 0, &models.FetchError{
		Source: Name,
		Op:     models.OpWindowOpen,
		Msg:    "no candle starting at " + strconv.FormatInt(want, 10),
		Err:    models.ErrMissingField,
	}
}

func (s *Source) productURL(symbol, leaf string) string {
	return fmt.Sprintf("%s/products/%s/%s", s.baseURL, url.PathEscape(symbol), leaf)
}

func wrap(op string, err error) *models.FetchError {
	var se *xhttp.StatusError
	if errors.As(err, &se) {
		return &models.FetchError{Source: Name, Op: op, Msg: http.StatusText(se.Code), Err: models.ErrBadStatus}
	}
	if strings.Contains(err.Error(), "decode json") {
		return &models.FetchError{Source: Name, Op: op, Msg: err.Error(), Err: models.ErrMalformed}
	}
	return &models.FetchError{Source: Name, Op: op, Err: err}
}

var _ drepo.PriceSource = (*Source)(nil)
