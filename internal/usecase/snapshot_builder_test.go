package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"PriceWindow/internal/domain/models"
	drepo "PriceWindow/internal/domain/repository"
	"PriceWindow/internal/service/clock"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testAssets() []models.AssetSpec {
	return []models.AssetSpec{
		{Asset: "BTC", Name: "Bitcoin"},
		{Asset: "ETH", Name: "Ethereum"},
		{Asset: "SOL", Name: "Solana"},
		{Asset: "PEPE", Name: "Pepe"},
	}
}

type perAssetSource struct {
	fakeSource
	prices map[models.Asset][2]float64 // current, open
	delays map[string]time.Duration
}

func (p *perAssetSource) LastPrice(ctx context.Context, symbol string) (float64, error) {
	if d := p.delays[symbol]; d > 0 {
		time.Sleep(d)
	}
	for a, v := range p.prices {
		if string(a)+"USDT" == symbol {
			return v[0], nil
		}
	}
	return 0, errors.New("unknown symbol")
}

func (p *perAssetSource) WindowOpen(_ context.Context, symbol string, _ models.WindowSpec, _ time.Time) (float64, error) {
	for a, v := range p.prices {
		if string(a)+"USDT" == symbol {
			return v[1], nil
		}
	}
	return 0, errors.New("unknown symbol")
}

func newTestBuilder(cls *fakeClassifier) *SnapshotBuilder {
	primary := &perAssetSource{
		fakeSource: fakeSource{name: "primary", symbols: allSymbols("BTC", "ETH")},
		prices:     map[models.Asset][2]float64{"BTC": {110, 100}, "ETH": {90, 100}},
		delays:     map[string]time.Duration{"BTCUSDT": 30 * time.Millisecond},
	}
	backup := &perAssetSource{
		fakeSource: fakeSource{name: "backup", symbols: allSymbols("BTC", "ETH", "SOL")},
		prices:     map[models.Asset][2]float64{"SOL": {150, 150}},
	}
	chain := NewSourceChain([]drepo.PriceSource{primary, backup}, WithSourceTimeout(time.Second))
	wc := NewWindowClock(clock.NewFixed(time.Date(2024, 5, 1, 10, 20, 0, 0, time.UTC)))
	return NewSnapshotBuilder(testAssets(), chain, cls, wc, WithPlatform("polymarket"), WithMaxConcurrency(2))
}

func TestSnapshotBuilder_Build(t *testing.T) {
	cls := &fakeClassifier{}
	b := newTestBuilder(cls)

	snap, err := b.Build(context.Background(), models.Window15m, time.Time{})
	require.NoError(t, err)
	require.Len(t, snap.Records, 4)

	for i, a := range testAssets() {
		assert.Equal(t, a.Asset, snap.Records[i].Asset)
		assert.Equal(t, "15m", snap.Records[i].Window)
		assert.Equal(t, "polymarket", snap.Records[i].Platform)
	}

	btc := snap.Records[0]
	assert.Equal(t, "primary", btc.Quote.Source)
	require.NotNil(t, btc.PctChange)
	assert.InDelta(t, 10.0, *btc.PctChange, 1e-9)
	assert.Equal(t, models.BiasUp, btc.Bias)

	eth := snap.Records[1]
	require.NotNil(t, eth.PctChange)
	assert.InDelta(t, -10.0, *eth.PctChange, 1e-9)
	assert.Equal(t, models.BiasDown, eth.Bias)

	sol := snap.Records[2]
	assert.Equal(t, "backup", sol.Quote.Source)
	require.NotNil(t, sol.PctChange)
	assert.Zero(t, *sol.PctChange)

	pepe := snap.Records[3]
	assert.Equal(t, models.SourceUnavailable, pepe.Quote.Source)
	assert.Nil(t, pepe.PctChange)
	assert.Equal(t, models.BiasError, pepe.Bias)
	assert.Equal(t, models.LabelDataError, pepe.Label)
	assert.Zero(t, pepe.Confidence)
	assert.Equal(t, "no source configured for asset", pepe.Rationale)

	assert.Equal(t, 1, snap.Unavailable())
	assert.Equal(t, int32(3), cls.calls.Load())
	assert.Equal(t, 600, snap.Countdown.SecondsLeft)
	assert.NotEqual(t, uuid.Nil, snap.ID)
}

func TestSnapshotBuilder_ClassifierFailureIsolated(t *testing.T) {
	b := newTestBuilder(&fakeClassifier{failFor: "ETH"})

	snap, err := b.Build(context.Background(), models.Window1h, time.Time{})
	require.NoError(t, err)
	require.Len(t, snap.Records, 4)

	eth := snap.Records[1]
	assert.Equal(t, models.Asset("ETH"), eth.Asset)
	assert.Equal(t, models.BiasError, eth.Bias)
	assert.Equal(t, models.LabelModelErr, eth.Label)
	assert.Contains(t, eth.Rationale, "model exploded")
	assert.True(t, eth.Quote.Available())
	require.NotNil(t, eth.PctChange)

	assert.Equal(t, models.BiasUp, snap.Records[0].Bias)
	assert.Equal(t, models.BiasUp, snap.Records[2].Bias)
}

func TestSnapshotBuilder_InvalidWindow(t *testing.T) {
	b := newTestBuilder(&fakeClassifier{})
	_, err := b.Build(context.Background(), models.WindowSpec{Label: "7m", Size: 7 * time.Minute}, time.Time{})
	var ce *models.ConfigurationError
	assert.True(t, errors.As(err, &ce))
}

func TestSnapshotBuilder_Deadline(t *testing.T) {
	b := newTestBuilder(&fakeClassifier{})
	assert.Equal(t, 2*time.Second+2*time.Second, b.Deadline())
}

func TestSnapshotBuilder_RejectsClosedWindow(t *testing.T) {
	cls := &fakeClassifier{}
	b := newTestBuilder(cls)

	// clock is 10:20, the 15m window opened at 10:15
	_, err := b.Build(context.Background(), models.Window15m, time.Date(2024, 5, 1, 7, 20, 0, 0, time.UTC))
	assert.ErrorIs(t, err, ErrOutsideWindow)
	_, err = b.Build(context.Background(), models.Window15m, time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC))
	assert.ErrorIs(t, err, ErrOutsideWindow)
	assert.Zero(t, cls.calls.Load())

	snap, err := b.Build(context.Background(), models.Window15m, time.Date(2024, 5, 1, 10, 16, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 840, snap.Countdown.SecondsLeft)
}
