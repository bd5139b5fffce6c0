package repository

import "PriceWindow/internal/domain/models"

// Candle interval names per venue, keyed by window size in seconds.
var candleIntervals = map[string]map[int64]string{
	"binance": {
		60: "1m", 180: "3m", 300: "5m", 900: "15m", 1800: "30m",
		3600: "1h", 7200: "2h", 14400: "4h", 21600: "6h", 28800: "8h", 43200: "12h", 86400: "1d",
	},
	"bybit": {
		60: "1", 180: "3", 300: "5", 900: "15", 1800: "30",
		3600: "60", 7200: "120", 14400: "240", 21600: "360", 43200: "720", 86400: "D",
	},
	"okx": {
		60: "1m", 180: "3m", 300: "5m", 900: "15m", 1800: "30m",
		3600: "1H", 7200: "2H", 14400: "4H", 21600: "6Hutc", 43200: "12Hutc", 86400: "1Dutc",
	},
	"coinbase": {
		60: "60", 300: "300", 900: "900", 3600: "3600", 21600: "21600", 86400: "86400",
	},
}

// CandleInterval returns the venue's interval name for window.
func CandleInterval(venue string, window models.WindowSpec) (string, bool) {
	m, ok := candleIntervals[venue]
	if !ok {
		return "", false
	}
	iv, ok := m[window.Seconds()]
	return iv, ok
}
