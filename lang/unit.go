package lang

import (
	"math"
	"strings"
)

// UnitCategory groups related units. Conversion is only defined within a
// category.
type UnitCategory int

const (
	UnitLength UnitCategory = iota
	UnitMass
	UnitTime
	UnitData
	UnitArea
	UnitVolume
	UnitTemperature
	UnitCurrency
	UnitCSS
)

// SymbolPosition says where a unit's symbol is rendered relative to the
// number: "5 km" vs "$5".
type SymbolPosition int

const (
	SymbolAfter SymbolPosition = iota
	SymbolBefore
)

// Unit defines a convertible unit. ToBase is the factor into the category's
// base unit; FromBase is its inverse. CSS units ignore their static factors
// and resolve through the registry's dynamic bases.
type Unit struct {
	Name      string // canonical name, e.g. "meters", "USD"
	Symbol    string
	Category  UnitCategory
	ToBase    float64
	FromBase  float64
	SymbolPos SymbolPosition
}

// RateSource supplies live fiat exchange rates. Rate returns the USD value
// of 1 unit of the given currency code. Both report ok=false while no rate
// is available yet.
type RateSource interface {
	Rate(code string) (float64, bool)
	Convert(amount float64, from, to string) (float64, bool)
}

type unitDef struct {
	name     string
	symbol   string
	category UnitCategory
	toBase   float64
	aliases  []string
}

var staticUnits = []unitDef{
	// Length (base: meters)
	{"millimeters", "mm", UnitLength, 0.001, []string{"mm", "millimeter", "millimetre", "millimetres"}},
	{"centimeters", "cm", UnitLength, 0.01, []string{"cm", "centimeter", "centimetre", "centimetres"}},
	{"meters", "m", UnitLength, 1, []string{"m", "meter", "metre", "metres"}},
	{"kilometers", "km", UnitLength, 1000, []string{"km", "kilometer", "kilometre", "kilometres"}},
	{"inches", "in", UnitLength, 0.0254, []string{"inch"}},
	{"feet", "ft", UnitLength, 0.3048, []string{"ft", "foot"}},
	{"yards", "yd", UnitLength, 0.9144, []string{"yd", "yard"}},
	{"miles", "mi", UnitLength, 1609.344, []string{"mi", "mile"}},

	// Mass (base: grams)
	{"milligrams", "mg", UnitMass, 0.001, []string{"mg", "milligram"}},
	{"grams", "g", UnitMass, 1, []string{"g", "gram"}},
	{"kilograms", "kg", UnitMass, 1000, []string{"kg", "kilogram", "kilo", "kilos"}},
	{"ounces", "oz", UnitMass, 28.3495, []string{"oz", "ounce"}},
	{"pounds", "lb", UnitMass, 453.592, []string{"lb", "lbs", "pound"}},
	{"tonnes", "t", UnitMass, 1e6, []string{"tonne", "ton", "tons"}},

	// Time (base: seconds)
	{"milliseconds", "ms", UnitTime, 0.001, []string{"ms", "millisecond"}},
	{"seconds", "s", UnitTime, 1, []string{"s", "sec", "secs", "second"}},
	{"minutes", "min", UnitTime, 60, []string{"min", "mins", "minute"}},
	{"hours", "h", UnitTime, 3600, []string{"h", "hr", "hrs", "hour"}},
	{"days", "d", UnitTime, 86400, []string{"day"}},
	{"weeks", "wk", UnitTime, 604800, []string{"wk", "week"}},
	{"months", "mo", UnitTime, 2629800, []string{"month"}},
	{"years", "yr", UnitTime, 31557600, []string{"yr", "year"}},

	// Data (base: bytes)
	{"bits", "bit", UnitData, 0.125, []string{"bit"}},
	{"bytes", "B", UnitData, 1, []string{"b", "byte"}},
	{"kilobytes", "KB", UnitData, 1e3, []string{"kb", "kilobyte"}},
	{"megabytes", "MB", UnitData, 1e6, []string{"mb", "megabyte"}},
	{"gigabytes", "GB", UnitData, 1e9, []string{"gb", "gigabyte"}},
	{"terabytes", "TB", UnitData, 1e12, []string{"tb", "terabyte"}},

	// Area (base: square meters)
	{"sqm", "m²", UnitArea, 1, []string{"m2"}},
	{"sqkm", "km²", UnitArea, 1e6, []string{"km2"}},
	{"sqft", "ft²", UnitArea, 0.09290304, []string{"ft2"}},
	{"acres", "ac", UnitArea, 4046.8564224, []string{"acre"}},
	{"hectares", "ha", UnitArea, 1e4, []string{"ha", "hectare"}},

	// Volume (base: liters)
	{"milliliters", "ml", UnitVolume, 0.001, []string{"ml", "milliliter", "millilitre", "millilitres"}},
	{"liters", "l", UnitVolume, 1, []string{"l", "liter", "litre", "litres"}},
	{"teaspoons", "tsp", UnitVolume, 0.00492892, []string{"tsp", "teaspoon"}},
	{"tablespoons", "tbsp", UnitVolume, 0.0147868, []string{"tbsp", "tablespoon"}},
	{"cups", "cup", UnitVolume, 0.236588, []string{"cup"}},
	{"pints", "pint", UnitVolume, 0.473176, []string{"pint"}},
	{"gallons", "gal", UnitVolume, 3.78541, []string{"gal", "gallon"}},

	// Temperature (converted through Kelvin, factors unused)
	{"celsius", "°C", UnitTemperature, 1, []string{"c"}},
	{"fahrenheit", "°F", UnitTemperature, 1, []string{"f"}},
	{"kelvin", "°K", UnitTemperature, 1, []string{"k"}},

	// CSS / design units (converted through pixels, factors unused)
	{"px", "px", UnitCSS, 1, []string{"pixel", "pixels"}},
	{"pt", "pt", UnitCSS, 1, []string{"point", "points"}},
	{"em", "em", UnitCSS, 1, nil},
	{"rem", "rem", UnitCSS, 1, nil},
}

// UnitRegistry holds the convertible unit table and the mutable conversion
// configuration: the dynamic CSS bases and an optional live rate source for
// currency. One registry per document gives full isolation.
type UnitRegistry struct {
	lookup map[string]*Unit // lowercased name/alias → unit
	glyphs map[string]*Unit // currency glyph → unit

	// Dynamic CSS bases, set via "em = 14px" style assignments.
	EmSize  float64 // pixels per em
	RemSize float64 // pixels per rem
	PPI     float64 // pixels per inch, pt = PPI/72

	Rates RateSource // optional; static factors are the fallback
}

// NewUnitRegistry builds a registry with the static unit table and the
// embedded currency table.
func NewUnitRegistry() *UnitRegistry {
	r := &UnitRegistry{
		lookup:  make(map[string]*Unit),
		glyphs:  make(map[string]*Unit),
		EmSize:  16,
		RemSize: 16,
		PPI:     96,
	}
	for _, def := range staticUnits {
		u := &Unit{
			Name:     def.name,
			Symbol:   def.symbol,
			Category: def.category,
			ToBase:   def.toBase,
			FromBase: 1 / def.toBase,
		}
		r.register(u, def.aliases)
	}
	registerCurrencies(r)
	return r
}

func (r *UnitRegistry) register(u *Unit, aliases []string) {
	r.lookup[strings.ToLower(u.Name)] = u
	for _, a := range aliases {
		r.lookup[strings.ToLower(a)] = u
	}
}

// IsUnit reports whether name resolves to a known unit.
func (r *UnitRegistry) IsUnit(name string) bool {
	return r.Unit(name) != nil
}

// Unit resolves a unit by name or alias, case-insensitively.
// Returns nil if unknown.
func (r *UnitRegistry) Unit(name string) *Unit {
	return r.lookup[strings.ToLower(name)]
}

// CurrencyForGlyph resolves a currency glyph like "$" to its unit.
func (r *UnitRegistry) CurrencyForGlyph(glyph string) *Unit {
	return r.glyphs[glyph]
}

// UnitNames returns every registered name and alias, for suggestions.
func (r *UnitRegistry) UnitNames() []string {
	names := make([]string, 0, len(r.lookup))
	for name := range r.lookup {
		names = append(names, name)
	}
	return names
}

// SetCSSBase updates a dynamic CSS base. Recognized names are "em", "rem"
// and "ppi"; the value is in pixels.
func (r *UnitRegistry) SetCSSBase(name string, px float64) bool {
	switch strings.ToLower(name) {
	case "em":
		r.EmSize = px
	case "rem":
		r.RemSize = px
	case "ppi":
		r.PPI = px
	default:
		return false
	}
	return true
}

// Convert converts value from one unit to another. Cross-category
// conversions yield NaN, never an error.
func (r *UnitRegistry) Convert(value float64, from, to *Unit) float64 {
	if from == nil || to == nil || from.Category != to.Category {
		return math.NaN()
	}
	switch from.Category {
	case UnitTemperature:
		return fromKelvin(toKelvin(value, from), to)
	case UnitCurrency:
		if r.Rates != nil {
			if v, ok := r.Rates.Convert(value, from.Name, to.Name); ok {
				return v
			}
		}
		return value * from.ToBase * to.FromBase
	case UnitCSS:
		return value * r.pixelsPer(from) / r.pixelsPer(to)
	default:
		return value * from.ToBase * to.FromBase
	}
}

// pixelsPer returns the dynamic pixels-per-unit factor for a CSS unit.
func (r *UnitRegistry) pixelsPer(u *Unit) float64 {
	switch u.Name {
	case "em":
		return r.EmSize
	case "rem":
		return r.RemSize
	case "pt":
		return r.PPI / 72
	default: // px
		return 1
	}
}

// toKelvin converts a temperature reading to Kelvin.
func toKelvin(value float64, from *Unit) float64 {
	switch from.Name {
	case "celsius":
		return value + 273.15
	case "fahrenheit":
		return (value-32)*5/9 + 273.15
	default: // kelvin
		return value
	}
}

// fromKelvin converts a Kelvin reading to the target scale.
func fromKelvin(k float64, to *Unit) float64 {
	switch to.Name {
	case "celsius":
		return k - 273.15
	case "fahrenheit":
		return (k-273.15)*9/5 + 32
	default: // kelvin
		return k
	}
}
