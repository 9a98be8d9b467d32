package crypto

import (
	"github.com/newthinker/compass/internal/collector/crypto/symbol"
)

// NormalizeSymbol converts various input formats to standard format (e.g., BTCUSDT)
// Input formats: "BTC", "btc", "BTC-USDT", "BTC/USDT", "btcusdt"
// Output: "BTCUSDT"
func NormalizeSymbol(input string, defaultQuote string) string {
	return symbol.NormalizeSymbol(input, defaultQuote)
}

// ParseSymbol extracts base and quote from a normalized symbol
// "BTCUSDT" -> ("BTC", "USDT")
func ParseSymbol(sym string) (base, quote string) {
	return symbol.ParseSymbol(sym)
}

// FormatDisplay converts internal format to display format
// "BTCUSDT" -> "BTC/USDT"
func FormatDisplay(sym string) string {
	return symbol.FormatDisplay(sym)
}

// ValidateCryptoSymbol checks if a symbol has valid format
func ValidateCryptoSymbol(sym string) error {
	return symbol.ValidateCryptoSymbol(sym)
}
