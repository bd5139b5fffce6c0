package okx

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"PriceWindow/internal/domain/models"
	drepo "PriceWindow/internal/domain/repository"
	xhttp "PriceWindow/pkg/http"
	"PriceWindow/pkg/util"
)

const (
	Name           = "okx"
	DefaultBaseURL = "https://www.okx.com"
)

// Source reads spot prices from the OKX v5 public market API.
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
		client:  xhttp.NewClient(xhttp.WithTimeout(timeout)),
		symbols: symbols,
	}
}

func (s *Source) Name() string { return Name }

func (s *Source) Symbol(asset models.Asset) (string, bool) { return s.symbols.Lookup(asset) }

type envelope[T any] struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
	Data []T    `json:"data"`
}

type ticker struct {
	InstID string `json:"instId"`
	Last   string `json:"last"`
}

func (s *Source) LastPrice(ctx context.Context, symbol string) (float64, error) {
	var env envelope[ticker]
	err := s.client.GetJSON(ctx, s.baseURL+"/api/v5/market/ticker", map[string][]string{"instId": {symbol}}, &env)
	if err != nil {
		return 0, wrap(models.OpLastPrice, err)
	}
	if env.Code != "0" {
		return 0, &models.FetchError{Source: Name, Op: models.OpLastPrice, Msg: "code " + env.Code + ": " + env.Msg, Err: models.ErrBadStatus}
	}
	for _, t := range env.Data {
		if t.InstID != symbol {
			continue
		}
		v, err := util.ParsePrice(t.Last)
		if err != nil {
			return 0, &models.FetchError{Source: Name, Op: models.OpLastPrice, Msg: err.Error(), Err: models.ErrMalformed}
		}
		return v, nil
	}
	return 0, &models.FetchError{Source: Name, Op: models.OpLastPrice, Msg: "no ticker for " + symbol, Err: models.ErrMissingField}
}

// WindowOpen asks for the newest candle older than the window end, which is
// the candle that starts at start if the venue has it.
func (s *Source) WindowOpen(ctx context.Context, symbol string, window models.WindowSpec, start time.Time) (float64, error) {
	bar, ok := drepo.CandleInterval(Name, window)
	if !ok {
		return 0, &models.FetchError{Source: Name, Op: models.OpWindowOpen, Msg: "no candle interval for window " + window.Label}
	}

	startMs := start.UnixMilli()
	query := map[string][]string{
		"instId": {symbol},
		"bar":    {bar},
		"after":  {strconv.FormatInt(startMs+window.Size.Milliseconds(), 10)},
		"limit":  {"1"},
	}
	var env envelope[[]string] // ts, o, h, l, c, vol, volCcy, volCcyQuote, confirm
	if err := s.client.GetJSON(ctx, s.baseURL+"/api/v5/market/candles", query, &env); err != nil {
		return 0, wrap(models.OpWindowOpen, err)
	}
	if env.Code != "0" {
		return 0, &models.FetchError{Source: Name, Op: models.OpWindowOpen, Msg: "code " + env.Code + ": " + env.Msg, Err: models.ErrBadStatus}
	}

	want := strconv.FormatInt(startMs, 10)
	for _, row := range env.Data {
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

func wrap(op string, err error) *models.FetchError {
	var se *xhttp.StatusError
	if errors.As(err, &se) {
		return &models.FetchError{Source: Name, Op: op, Msg: http.StatusText(se.Code), Err: models.ErrBadStatus}
	}
	return &models.FetchError{Source: Name, Op: op, Err: err}
}

var _ drepo.PriceSource = (*Source)(nil)
