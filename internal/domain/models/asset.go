package models

// Asset is a short ticker such as BTC or ETH.
type Asset string

func (a Asset) String() string { return string(a) }

// AssetSpec describes one tracked asset and its per-source symbols.
type AssetSpec struct {
	Asset   Asset
	Name    string
	Symbols map[string]string // source name -> venue symbol
}

// SymbolTable maps assets to one source's venue symbols.
type SymbolTable map[Asset]string

// Lookup returns the venue symbol for asset, if mapped.
func (t SymbolTable) Lookup(asset Asset) (string, bool) {
	s, ok := t[asset]
	return s, ok && s != ""
}

// SymbolTableFor extracts the table for a single source.
func SymbolTableFor(source string, assets []AssetSpec) SymbolTable {
	t := make(SymbolTable, len(assets))
	for _, a := range assets {
		if s, ok := a.Symbols[source]; ok && s != "" {
			t[a.Asset] = s
		}
	}
	return t
}
