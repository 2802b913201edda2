package symbols

// Universe is a named preset ticker list usable instead of the configured one
type Universe string

const (
	UniverseIndices Universe = "indices"
	UniverseSectors Universe = "sectors"
	UniverseMegaCap Universe = "megacap"
)

// GetUniverse returns the symbols of a preset universe, or nil if unknown
func GetUniverse(u Universe) []string {
	switch u {
	case UniverseIndices:
		return IndexSymbols
	case UniverseSectors:
		return SectorSymbols
	case UniverseMegaCap:
		return MegaCapSymbols
	default:
		return nil
	}
}

// Universes lists the preset names
func Universes() []Universe {
	return []Universe{UniverseIndices, UniverseSectors, UniverseMegaCap}
}

// IndexSymbols are broad index ETFs and cash indices with liquid options
var IndexSymbols = []string{"SPY", "QQQ", "IWM", "DIA", "^GSPC", "^NDX", "^RUT"}

// SectorSymbols are the SPDR select sector ETFs
var SectorSymbols = []string{
	"XLB", "XLC", "XLE", "XLF", "XLI", "XLK",
	"XLP", "XLRE", "XLU", "XLV", "XLY",
}

// MegaCapSymbols are the largest US listings by market cap
var MegaCapSymbols = []string{
	"AAPL", "MSFT", "NVDA", "GOOGL", "AMZN",
	"META", "AVGO", "TSLA", "BRK-B", "JPM",
}

// PresetNames are display names for preset symbols
var PresetNames = map[string]string{
	"SPY":   "S&P 500 ETF",
	"QQQ":   "Nasdaq 100 ETF",
	"IWM":   "Russell 2000 ETF",
	"DIA":   "Dow Jones ETF",
	"^GSPC": "S&P 500",
	"^NDX":  "Nasdaq 100",
	"^RUT":  "Russell 2000",
}
