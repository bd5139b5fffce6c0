package usecase

import (
	"context"
	"sync"

	"PriceWindow/internal/domain/models"
	drepo "PriceWindow/internal/domain/repository"
	"PriceWindow/pkg/logger"
)

// TradeProcessor is the downstream of the collector, normally the trade
// pipeline in front of a TradeBook.
type TradeProcessor interface {
	Process(ctx context.Context, t *models.Trade) error
}

// TradeCollector pumps a market stream into a processor and reconnects on
// stream errors.
type TradeCollector struct {
	stream  drepo.MarketStream
	proc    TradeProcessor
	metrics drepo.Metrics
	log     *logger.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewTradeCollector(stream drepo.MarketStream, proc TradeProcessor, metrics drepo.Metrics, log *logger.Logger) *TradeCollector {
	if metrics == nil {
		metrics = drepo.NopMetrics{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &TradeCollector{stream: stream, proc: proc, metrics: metrics, log: log.Component("trade_collector")}
}

// IsConnected returns true if the market stream is connected.
func (c *TradeCollector) IsConnected() bool {
	return c.stream.IsConnected()
}

// Start connects and subscribes, then consumes in the background until
// ctx ends or Shutdown is called. A failed first connect is returned but
// is not final: the background loop keeps reconnecting until it succeeds.
func (c *TradeCollector) Start(ctx context.Context) error {
	err := c.stream.Connect(ctx)
	if err == nil {
		if err = c.stream.Subscribe(ctx); err != nil {
			_ = c.stream.Close()
		}
	}
	ctx, c.cancel = context.WithCancel(ctx)
	c.wg.Add(1)
	go func(connected bool) {
		defer c.wg.Done()
		if !connected && !c.reconnect(ctx) {
			return
		}
		c.run(ctx)
	}(err == nil)
	return err
}

func (c *TradeCollector) run(ctx context.Context) {
	for ctx.Err() == nil {
		trCh, errCh := c.stream.Read(ctx)
		c.consume(ctx, trCh, errCh)
		if ctx.Err() != nil {
			return
		}
		c.metrics.RecordError("stream")
		if !c.reconnect(ctx) {
			return
		}
	}
}

// reconnect retries until the stream is back or ctx ends. The stream paces
// attempts with its own reconnect delay.
func (c *TradeCollector) reconnect(ctx context.Context) bool {
	for ctx.Err() == nil {
		err := c.stream.Reconnect(ctx)
		if err == nil {
			c.log.Info("stream reconnected")
			return true
		}
		c.log.Warn("reconnect failed", logger.Error(err))
	}
	return false
}

// consume returns once the trade channel is closed.
func (c *TradeCollector) consume(ctx context.Context, trCh <-chan *models.Trade, errCh <-chan error) {
	for {
		select {
		case <-ctx.Done():
			return
		case err, ok := <-errCh:
			if ok && err != nil {
				c.log.Warn("stream error", logger.Error(err))
			}
			errCh = nil
		case t, ok := <-trCh:
			if !ok {
				return
			}
			if err := c.proc.Process(ctx, t); err != nil {
				c.log.Debug("trade dropped", logger.Error(err))
			}
		}
	}
}

// Shutdown stops consuming and closes the stream.
func (c *TradeCollector) Shutdown(ctx context.Context) error {
	if c.cancel != nil {
		c.cancel()
	}
	err := c.stream.Close()
	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}
	return err
}
