package tax

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Subject is the product view a tax policy may inspect.
type Subject interface {
	IsDigital() bool
}

// Policy computes a tax amount from a pre-tax subtotal. Shipping is never taxed.
type Policy interface {
	Name() string
	ApplicableTo(s Subject) bool
	CalculateTax(s Subject, subtotal float64) float64
}

type noTax struct{}

// NoTax returns a policy that never charges tax.
func NoTax() Policy { return noTax{} }

func (noTax) Name() string                          { return "No Tax" }
func (noTax) ApplicableTo(Subject) bool             { return true }
func (noTax) CalculateTax(Subject, float64) float64 { return 0 }

// FlatVATPolicy applies a single rate to every product.
type FlatVATPolicy struct {
	rate float64
}

// FlatVAT returns a flat VAT policy; rate is clamped to [0,1].
func FlatVAT(rate float64) FlatVATPolicy {
	return FlatVATPolicy{rate: clampRate(rate)}
}

// Name implements Policy.
func (f FlatVATPolicy) Name() string { return "Flat VAT " + percentLabel(f.rate) }

// ApplicableTo implements Policy.
func (FlatVATPolicy) ApplicableTo(Subject) bool { return true }

// CalculateTax implements Policy.
func (f FlatVATPolicy) CalculateTax(_ Subject, subtotal float64) float64 {
	return nonNegative(subtotal * f.rate)
}

// Rate returns the clamped rate.
func (f FlatVATPolicy) Rate() float64 { return f.rate }

// ReducedDigitalVATPolicy taxes digital products only.
type ReducedDigitalVATPolicy struct {
	rate float64
}

// ReducedDigitalVAT returns a digital-only VAT policy; rate is clamped to [0,1].
func ReducedDigitalVAT(rate float64) ReducedDigitalVATPolicy {
	return ReducedDigitalVATPolicy{rate: clampRate(rate)}
}

// Name implements Policy.
func (r ReducedDigitalVATPolicy) Name() string {
	return "Reduced Digital VAT " + percentLabel(r.rate)
}

// ApplicableTo reports true only for digital products.
func (ReducedDigitalVATPolicy) ApplicableTo(s Subject) bool {
	return s != nil && s.IsDigital()
}

// CalculateTax implements Policy.
func (r ReducedDigitalVATPolicy) CalculateTax(s Subject, subtotal float64) float64 {
	if !r.ApplicableTo(s) {
		return 0
	}
	return nonNegative(subtotal * r.rate)
}

// Rate returns the clamped rate.
func (r ReducedDigitalVATPolicy) Rate() float64 { return r.rate }

// Band is one bracket of a progressive schedule. A subtotal falls in the first
// band whose UpTo is >= the subtotal.
type Band struct {
	UpTo float64
	Rate float64
}

// DefaultBands is the standard progressive schedule.
var DefaultBands = []Band{
	{UpTo: 100, Rate: 0.05},
	{UpTo: 500, Rate: 0.10},
	{UpTo: math.Inf(1), Rate: 0.15},
}

// ErrInvalidBands is returned when a progressive schedule cannot be parsed.
var ErrInvalidBands = errors.New("tax: invalid progressive bands")

// ProgressiveVATPolicy picks the rate from the band the whole subtotal falls in.
type ProgressiveVATPolicy struct {
	bands []Band
}

// ProgressiveVAT returns a banded policy. With no bands DefaultBands is used.
// Bands are sorted by UpTo and the last band is extended to +Inf.
func ProgressiveVAT(bands ...Band) ProgressiveVATPolicy {
	if len(bands) == 0 {
		bands = DefaultBands
	}
	sorted := make([]Band, len(bands))
	copy(sorted, bands)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].UpTo < sorted[j].UpTo })
	for i := range sorted {
		sorted[i].Rate = clampRate(sorted[i].Rate)
	}
	sorted[len(sorted)-1].UpTo = math.Inf(1)
	return ProgressiveVATPolicy{bands: sorted}
}

// Name implements Policy.
func (ProgressiveVATPolicy) Name() string { return "Progressive VAT" }

// ApplicableTo implements Policy.
func (ProgressiveVATPolicy) ApplicableTo(Subject) bool { return true }

// CalculateTax implements Policy.
func (p ProgressiveVATPolicy) CalculateTax(_ Subject, subtotal float64) float64 {
	return nonNegative(subtotal * p.RateFor(subtotal))
}

// RateFor returns the rate of the band containing subtotal.
func (p ProgressiveVATPolicy) RateFor(subtotal float64) float64 {
	for _, b := range p.bands {
		if subtotal <= b.UpTo {
			return b.Rate
		}
	}
	return p.bands[len(p.bands)-1].Rate
}

// Bands returns a copy of the schedule.
func (p ProgressiveVATPolicy) Bands() []Band {
	out := make([]Band, len(p.bands))
	copy(out, p.bands)
	return out
}

// ParseBands reads a schedule like "100:0.05,500:0.10,inf:0.15".
func ParseBands(raw string) ([]Band, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	bands := make([]Band, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		limit, rate, ok := strings.Cut(part, ":")
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrInvalidBands, part)
		}
		upTo, err := strconv.ParseFloat(strings.TrimSpace(limit), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: limit %q: %v", ErrInvalidBands, limit, err)
		}
		r, err := strconv.ParseFloat(strings.TrimSpace(rate), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: rate %q: %v", ErrInvalidBands, rate, err)
		}
		bands = append(bands, Band{UpTo: upTo, Rate: r})
	}
	return bands, nil
}

func clampRate(rate float64) float64 {
	return math.Max(0, math.Min(1, rate))
}

func nonNegative(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}

func percentLabel(rate float64) string {
	return strconv.Itoa(int(math.Round(rate*100))) + "%"
}
