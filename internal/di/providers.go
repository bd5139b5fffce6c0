package di

import (
	"fmt"
	"io"

	"PriceWindow/internal/domain/models"
	"PriceWindow/internal/domain/repository"
	domsvc "PriceWindow/internal/domain/service"
	"PriceWindow/internal/handler/api"
	mid "PriceWindow/internal/middleware"
	internalrepo "PriceWindow/internal/repository"
	"PriceWindow/internal/service/binance"
	"PriceWindow/internal/service/bybit"
	"PriceWindow/internal/service/clock"
	"PriceWindow/internal/service/coinbase"
	"PriceWindow/internal/service/finnhub"
	"PriceWindow/internal/service/okx"
	"PriceWindow/internal/service/ratelimit"
	"PriceWindow/internal/services/classifier"
	"PriceWindow/internal/usecase"
	"PriceWindow/pkg/cache"
	"PriceWindow/pkg/config"
	xhttp "PriceWindow/pkg/http"
	pkgkafka "PriceWindow/pkg/kafka"
	"PriceWindow/pkg/logger"
	"PriceWindow/pkg/metrics"
	"PriceWindow/pkg/server"
)

// ProvideLogger builds the application logger from the logging section.
func ProvideLogger(cfg *config.Config) (*logger.Logger, error) {
	l, err := logger.New(&logger.Config{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Output:     cfg.Logging.Output,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l.With(logger.String("env", cfg.Environment)), nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

func ProvideWindows(cfg *config.Config) ([]models.WindowSpec, error) {
	return cfg.WindowSpecs()
}

// ProvideCache builds the backing store for window opens. The cleanup
// closes it.
func ProvideCache(cfg *config.Config, l *logger.Logger) (cache.Service, func(), error) {
	if cfg.Cache.Type == "memory" {
		mc := cache.NewMemoryCache(
			cache.WithMemoryMaxSize(cfg.Cache.Memory.MaxSize),
			cache.WithMemoryCleanup(cfg.Cache.Memory.CleanupInterval),
		)
		return mc, closeAll(l, "cache", mc), nil
	}

	rc, err := cache.NewRedisCache(
		cache.WithRedisHost(cfg.Cache.Redis.Host),
		cache.WithRedisPort(cfg.Cache.Redis.Port),
		cache.WithRedisPassword(cfg.Cache.Redis.Password),
		cache.WithRedisDB(cfg.Cache.Redis.DB),
		cache.WithRedisPrefix(cfg.Cache.Redis.Prefix),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("redis cache: %w", err)
	}
	if cfg.Cache.Type == "layered" {
		lc := cache.NewLayeredCache(rc, cache.WithLayeredMemorySize(cfg.Cache.Memory.MaxSize))
		return lc, closeAll(l, "cache", lc), nil
	}
	return rc, closeAll(l, "cache", rc), nil
}

// closeAll returns a cleanup closing cs in reverse order. Failures are
// logged and do not stop the remaining closes.
func closeAll[T io.Closer](l *logger.Logger, what string, cs ...T) func() {
	return func() {
		for i := len(cs) - 1; i >= 0; i-- {
			if err := cs[i].Close(); err != nil {
				l.Warn(what+" close error", logger.Error(err))
			}
		}
	}
}

func ProvideOpenCache(c cache.Service, l *logger.Logger) repository.OpenCache {
	return internalrepo.NewOpenCache(c, l)
}

// ProvideTradeBook returns nil unless finnhub is both enabled and ordered.
func ProvideTradeBook(cfg *config.Config, windows []models.WindowSpec) *internalrepo.TradeBook {
	if !cfg.Finnhub.Enabled || !cfg.SourceEnabled(config.SourceFinnhub) {
		return nil
	}
	return internalrepo.NewTradeBook(
		models.SymbolTableFor(config.SourceFinnhub, cfg.AssetSpecs()),
		windows,
		internalrepo.WithStaleAfter(cfg.Finnhub.StaleAfter),
		internalrepo.WithOpenTolerance(cfg.Finnhub.OpenTolerance),
	)
}

// ProvideSources instantiates the price sources in sources.order.
func ProvideSources(cfg *config.Config, book *internalrepo.TradeBook) ([]repository.PriceSource, error) {
	assets := cfg.AssetSpecs()
	timeout := cfg.Sources.Timeout
	out := make([]repository.PriceSource, 0, len(cfg.Sources.Order))
	for _, name := range cfg.Sources.Order {
		table := models.SymbolTableFor(name, assets)
		switch name {
		case config.SourceBinance:
			out = append(out, binance.New(table, timeout, binance.WithBaseURL(cfg.Sources.Binance.BaseURL)))
		case config.SourceBybit:
			out = append(out, bybit.New(table, cfg.Sources.Bybit.BaseURL, timeout))
		case config.SourceOKX:
			out = append(out, okx.New(table, cfg.Sources.OKX.BaseURL, timeout))
		case config.SourceCoinbase:
			out = append(out, coinbase.New(table, cfg.Sources.Coinbase.BaseURL, timeout))
		case config.SourceFinnhub:
			if book == nil {
				return nil, &models.ConfigurationError{Field: "finnhub.enabled", Msg: "finnhub is ordered but not enabled"}
			}
			out = append(out, book)
		default:
			return nil, &models.ConfigurationError{Field: "sources.order", Msg: fmt.Sprintf("unknown source %q", name)}
		}
	}
	return out, nil
}

func ProvideSourceChain(
	cfg *config.Config,
	sources []repository.PriceSource,
	opens repository.OpenCache,
	m repository.Metrics,
	l *logger.Logger,
) *usecase.SourceChain {
	return usecase.NewSourceChain(sources,
		usecase.WithSourceTimeout(cfg.Sources.Timeout),
		usecase.WithLimiter(ratelimit.New(ratelimit.Rule{RPS: cfg.Sources.RateLimit.RPS, Burst: cfg.Sources.RateLimit.Burst})),
		usecase.WithOpenCache(opens),
		usecase.WithChainMetrics(m),
		usecase.WithChainLogger(l),
	)
}

// ProvideClassifier builds the configured strategy behind the latency and timeout wrapper.
func ProvideClassifier(cfg *config.Config) (domsvc.SignalClassifier, error) {
	cc := cfg.Classifier
	inner, err := classifier.New(classifier.Config{
		Strategy: cc.Strategy,
		Momentum: classifier.MomentumConfig{
			FlatBandPct:    cc.Momentum.FlatBandPct,
			StrongMovePct:  cc.Momentum.StrongMovePct,
			HighConfidence: cc.Momentum.HighConfidence,
		},
		Edge: classifier.EdgeConfig{
			URL:            cc.Edge.URL,
			Timeout:        cc.Edge.Timeout,
			Attempts:       cc.Edge.Attempts,
			NeutralBand:    cc.Edge.NeutralBand,
			HighConfidence: cc.Edge.HighConfidence,
		},
	})
	if err != nil {
		return nil, &models.ConfigurationError{Field: "classifier.strategy", Msg: err.Error()}
	}
	return classifier.NewInstrumented(inner, cc.Timeout), nil
}

func ProvideWindowClock() *usecase.WindowClock {
	return usecase.NewWindowClock(clock.System{})
}

func ProvideSnapshotBuilder(
	cfg *config.Config,
	chain *usecase.SourceChain,
	cls domsvc.SignalClassifier,
	wc *usecase.WindowClock,
	m repository.Metrics,
	l *logger.Logger,
) *usecase.SnapshotBuilder {
	return usecase.NewSnapshotBuilder(cfg.AssetSpecs(), chain, cls, wc,
		usecase.WithPlatform(cfg.Snapshot.Platform),
		usecase.WithMaxConcurrency(cfg.Snapshot.MaxConcurrency),
		usecase.WithClassifierTimeout(cfg.Classifier.Timeout),
		usecase.WithBuilderMetrics(m),
		usecase.WithBuilderLogger(l),
	)
}

func ProvideSnapshotStore() *internalrepo.SnapshotStore {
	return internalrepo.NewSnapshotStore()
}

// ProvideSnapshotSinks returns the Kafka sink when kafka is enabled. The
// cleanup closes the sinks.
func ProvideSnapshotSinks(cfg *config.Config, l *logger.Logger) ([]repository.SnapshotSink, func(), error) {
	if !cfg.Kafka.Enabled {
		return nil, func() {}, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.BatchTimeout),
		pkgkafka.WithWriteTimeout(cfg.Kafka.Producer.WriteTimeout),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("kafka producer: %w", err)
	}
	sinks := []repository.SnapshotSink{internalrepo.NewKafkaSnapshotSink(producer, cfg.Kafka.Topic)}
	return sinks, closeAll(l, "snapshot sink", sinks...), nil
}

func ProvideRefresher(
	cfg *config.Config,
	builder *usecase.SnapshotBuilder,
	store *internalrepo.SnapshotStore,
	windows []models.WindowSpec,
	sinks []repository.SnapshotSink,
	m repository.Metrics,
	l *logger.Logger,
) *usecase.Refresher {
	return usecase.NewRefresher(builder.Build, store, windows, cfg.Refresh.Interval,
		usecase.WithSinks(sinks...),
		usecase.WithRefresherMetrics(m),
		usecase.WithRefresherLogger(l),
	)
}

// ProvideTradeCollector returns nil when there is no trade book to feed.
func ProvideTradeCollector(
	cfg *config.Config,
	book *internalrepo.TradeBook,
	m repository.Metrics,
	l *logger.Logger,
) *usecase.TradeCollector {
	if book == nil {
		return nil
	}
	symbols := book.Symbols()
	stream := finnhub.New(
		cfg.Finnhub.APIKey,
		cfg.Finnhub.WebSocketURL,
		symbols,
		cfg.Finnhub.ReconnectDelay,
		cfg.Finnhub.PingInterval,
		finnhub.WithLogger(l.Component("finnhub")),
	)
	pipe := mid.NewTradePipeline(book, m, mid.WithSymbols(symbols))
	return usecase.NewTradeCollector(stream, pipe, m, l)
}

func ProvideHTTPHandler(
	l *logger.Logger,
	builder *usecase.SnapshotBuilder,
	store *internalrepo.SnapshotStore,
	wc *usecase.WindowClock,
	windows []models.WindowSpec,
	refresher *usecase.Refresher,
) xhttp.Handler {
	return api.NewSnapshotEchoHandler(l, builder, store, wc, windows, refresher.LastRefresh)
}

func ProvideHTTPServer(cfg *config.Config, h xhttp.Handler, l *logger.Logger) *xhttp.Server {
	opts := []xhttp.ServerOption{
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithCORS(cfg.Server.CORSOrigins),
		xhttp.WithRateLimit(cfg.Server.RateLimit.RPS, cfg.Server.RateLimit.Burst),
	}
	if cfg.Metrics.Enabled {
		opts = append(opts, xhttp.WithMetricsPath(cfg.Metrics.Path))
	} else {
		opts = append(opts, xhttp.WithMetricsPath(""))
	}
	return xhttp.NewServer(h, l, opts...)
}

// ProvideApp assembles the application lifecycle.
func ProvideApp(
	l *logger.Logger,
	refresher *usecase.Refresher,
	collector *usecase.TradeCollector,
	srv *xhttp.Server,
) *server.App {
	return server.New(l, refresher, collector, srv)
}
