package usecase

import (
	"context"
	"errors"
	"time"

	"PriceWindow/internal/domain/models"
	drepo "PriceWindow/internal/domain/repository"
)

// fetchQuote asks one source for both halves of a quote for an already
// resolved symbol. A failure in either half fails the fetch with a
// *models.FetchError. A cached open skips WindowOpen.
func fetchQuote(
	ctx context.Context,
	src drepo.PriceSource,
	asset models.Asset,
	symbol string,
	window models.WindowSpec,
	start time.Time,
	opens drepo.OpenCache,
) (models.PriceQuote, error) {
	name := src.Name()

	current, err := src.LastPrice(ctx, symbol)
	if err != nil {
		return models.PriceQuote{}, toFetchError(err, name, asset, models.OpLastPrice)
	}
	if current <= 0 {
		return models.PriceQuote{}, &models.FetchError{Source: name, Asset: asset, Op: models.OpLastPrice, Msg: "non-positive price", Err: models.ErrMissingField}
	}

	key := drepo.OpenKey{Source: name, Symbol: symbol, Window: window.Label, Start: start}
	open, cached := 0.0, false
	if opens != nil {
		open, cached = opens.Get(ctx, key)
	}
	if !cached {
		open, err = src.WindowOpen(ctx, symbol, window, start)
		if err != nil {
			return models.PriceQuote{}, toFetchError(err, name, asset, models.OpWindowOpen)
		}
		if open <= 0 {
			return models.PriceQuote{}, &models.FetchError{Source: name, Asset: asset, Op: models.OpWindowOpen, Msg: "non-positive open", Err: models.ErrMissingField}
		}
		if opens != nil {
			opens.Put(ctx, key, open, window.Size)
		}
	}

	return models.PriceQuote{
		Source:    name,
		Current:   current,
		Open:      open,
		FetchedAt: time.Now().UTC(),
	}, nil
}

func toFetchError(err error, source string, asset models.Asset, op string) *models.FetchError {
	var fe *models.FetchError
	if errors.As(err, &fe) {
		out := *fe
		if out.Source == "" {
			out.Source = source
		}
		if out.Asset == "" {
			out.Asset = asset
		}
		if out.Op == "" {
			out.Op = op
		}
		return &out
	}
	return &models.FetchError{Source: source, Asset: asset, Op: op, Err: err}
}
