package lang

import (
	_ "embed"
	"fmt"

	"golang.org/x/text/currency"
	"gopkg.in/yaml.v3"
)

//go:embed currencies.yaml
var currencyYAML []byte

type currencyDef struct {
	Code     string   `yaml:"code"`
	Name     string   `yaml:"name"`
	Symbol   string   `yaml:"symbol"`
	Position string   `yaml:"position"`
	USD      float64  `yaml:"usd"`
	Aliases  []string `yaml:"aliases"`
}

// registerCurrencies loads the embedded currency table into the registry.
// The table ships with the binary, so a malformed entry is a build defect.
func registerCurrencies(r *UnitRegistry) {
	var doc struct {
		Currencies []currencyDef `yaml:"currencies"`
	}
	if err := yaml.Unmarshal(currencyYAML, &doc); err != nil {
		panic(fmt.Sprintf("lang: bad currency table: %v", err))
	}
	for _, def := range doc.Currencies {
		if _, err := currency.ParseISO(def.Code); err != nil {
			panic(fmt.Sprintf("lang: %q is not an ISO 4217 code", def.Code))
		}
		if def.USD <= 0 {
			panic(fmt.Sprintf("lang: currency %s has no static rate", def.Code))
		}
		pos := SymbolAfter
		if def.Position == "before" {
			pos = SymbolBefore
		}
		u := &Unit{
			Name:      def.Code,
			Symbol:    def.Symbol,
			Category:  UnitCurrency,
			ToBase:    def.USD,
			FromBase:  1 / def.USD,
			SymbolPos: pos,
		}
		r.register(u, def.Aliases)
		if isCurrencyGlyph(def.Symbol) {
			if _, taken := r.glyphs[def.Symbol]; !taken {
				r.glyphs[def.Symbol] = u
			}
		}
	}
}

// isCurrencyGlyph reports whether the symbol is one of the glyphs the lexer
// folds into Currency tokens.
func isCurrencyGlyph(s string) bool {
	switch s {
	case "$", "€", "£", "¥":
		return true
	}
	return false
}
