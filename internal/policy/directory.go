package policy

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/noah-isme/backend-pricing/internal/pricing"
	"github.com/noah-isme/backend-pricing/internal/shipping"
	"github.com/noah-isme/backend-pricing/internal/tax"
)

// Stable identifiers of the configured policies.
const (
	PercentOffID = "percent-off"
	FixedOffID   = "fixed-off"
	BogoHalfID   = "bogo-half"
	BuyThreeID   = "buy3-pay2"

	NoTaxID          = "no-tax"
	FlatVATID        = "flat-vat"
	DigitalVATID     = "reduced-digital-vat"
	ProgressiveVATID = "progressive-vat"

	SimpleWeightID      = "simple-weight"
	FlatRateID          = "flat-rate"
	FreeOverThresholdID = "free-over-threshold"
	ExpressID           = "express"
)

// ErrUnknownPolicy is returned when an identifier does not resolve.
var ErrUnknownPolicy = errors.New("unknown policy")

// UnknownPolicyError names the kind and identifier that failed to resolve.
type UnknownPolicyError struct {
	Kind string
	ID   string
}

func (e *UnknownPolicyError) Error() string {
	return fmt.Sprintf("unknown %s policy %q", e.Kind, e.ID)
}

func (e *UnknownPolicyError) Unwrap() error { return ErrUnknownPolicy }

// Config carries the parameters of the configured policy instances.
type Config struct {
	PercentOff float64
	FixedOff   float64

	FlatVATRate      float64
	DigitalVATRate   float64
	ProgressiveBands []tax.Band

	CostPerKg         float64
	FlatRateFee       float64
	FreeThreshold     float64
	BelowThresholdFee float64
	ExpressBaseFee    float64
	ExpressCostPerKg  float64
}

// DefaultConfig mirrors the demo storefront parameters.
func DefaultConfig() Config {
	return Config{
		PercentOff:        15,
		FixedOff:          10000,
		FlatVATRate:       0.12,
		DigitalVATRate:    0.05,
		CostPerKg:         1500,
		FlatRateFee:       2000,
		FreeThreshold:     100000,
		BelowThresholdFee: 4000,
		ExpressBaseFee:    5000,
		ExpressCostPerKg:  2500,
	}
}

// Descriptor is the public listing shape of a policy.
type Descriptor struct {
	ID     string             `json:"id"`
	Kind   string             `json:"kind"`
	Name   string             `json:"name"`
	Params map[string]float64 `json:"params,omitempty"`
}

type entry[T any] struct {
	id     string
	policy T
	params map[string]float64
}

type table[T any] struct {
	kind    string
	entries []entry[T]
}

func (t *table[T]) add(id string, policy T, params map[string]float64) {
	t.entries = append(t.entries, entry[T]{id: id, policy: policy, params: params})
}

func (t *table[T]) get(id string) (T, bool) {
	id = strings.ToLower(strings.TrimSpace(id))
	for _, e := range t.entries {
		if e.id == id {
			return e.policy, true
		}
	}
	var zero T
	return zero, false
}

func (t *table[T]) all() []T {
	out := make([]T, 0, len(t.entries))
	for _, e := range t.entries {
		out = append(out, e.policy)
	}
	return out
}

func (t *table[T]) describe(name func(T) string) []Descriptor {
	out := make([]Descriptor, 0, len(t.entries))
	for _, e := range t.entries {
		out = append(out, Descriptor{ID: e.id, Kind: t.kind, Name: name(e.policy), Params: e.params})
	}
	return out
}

// Directory holds the named policy instances the service prices with.
// It is immutable after construction and safe for concurrent use.
type Directory struct {
	promotions table[pricing.PricePolicy]
	taxes      table[tax.Policy]
	shipping   table[shipping.Policy]

	fingerprint string
}

// NewDirectory builds the policy instances from cfg.
func NewDirectory(cfg Config) *Directory {
	d := &Directory{
		promotions: table[pricing.PricePolicy]{kind: "promotion"},
		taxes:      table[tax.Policy]{kind: "tax"},
		shipping:   table[shipping.Policy]{kind: "shipping"},
	}

	percent := pricing.PercentOff(cfg.PercentOff)
	fixed := pricing.FixedOff(cfg.FixedOff)
	d.promotions.add(PercentOffID, percent,
		map[string]float64{"percent": percent.Formula().(pricing.PercentOffFormula).Percent})
	d.promotions.add(FixedOffID, fixed,
		map[string]float64{"amount": fixed.Formula().(pricing.FixedOffFormula).Amount})
	d.promotions.add(BogoHalfID, pricing.BogoHalf(), nil)
	d.promotions.add(BuyThreeID, pricing.BuyThreePayForTwo(), nil)

	flat := tax.FlatVAT(cfg.FlatVATRate)
	digital := tax.ReducedDigitalVAT(cfg.DigitalVATRate)
	progressive := tax.ProgressiveVAT(cfg.ProgressiveBands...)
	bands := progressive.Bands()
	bandParams := make(map[string]float64, 2*len(bands))
	for i, b := range bands {
		if i < len(bands)-1 {
			bandParams[fmt.Sprintf("band%d_up_to", i+1)] = b.UpTo
		}
		bandParams[fmt.Sprintf("band%d_rate", i+1)] = b.Rate
	}
	d.taxes.add(NoTaxID, tax.NoTax(), nil)
	d.taxes.add(FlatVATID, flat, map[string]float64{"rate": flat.Rate()})
	d.taxes.add(DigitalVATID, digital, map[string]float64{"rate": digital.Rate()})
	d.taxes.add(ProgressiveVATID, progressive, bandParams)

	weight := shipping.SimpleWeight(cfg.CostPerKg)
	flatRate := shipping.FlatRate(cfg.FlatRateFee)
	free := shipping.FreeOverThreshold(cfg.FreeThreshold, cfg.BelowThresholdFee)
	express := shipping.Express(cfg.ExpressBaseFee, cfg.ExpressCostPerKg)
	d.shipping.add(SimpleWeightID, weight, map[string]float64{"costPerKg": weight.CostPerKg()})
	d.shipping.add(FlatRateID, flatRate, map[string]float64{"fee": flatRate.Fee()})
	d.shipping.add(FreeOverThresholdID, free,
		map[string]float64{"threshold": free.Threshold(), "fee": free.Fee()})
	d.shipping.add(ExpressID, express,
		map[string]float64{"baseFee": express.BaseFee(), "costPerKg": express.CostPerKg()})

	d.fingerprint = fingerprint(d.PromotionDescriptors(), d.TaxDescriptors(), d.ShippingDescriptors())
	return d
}

// Fingerprint is a short digest of every policy's name and effective
// parameters. It changes whenever the configuration changes pricing.
func (d *Directory) Fingerprint() string { return d.fingerprint }

func fingerprint(groups ...[]Descriptor) string {
	h := sha256.New()
	enc := json.NewEncoder(h)
	for _, g := range groups {
		// map keys are encoded in sorted order, so the digest is stable.
		_ = enc.Encode(g)
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}

// Promotion resolves a promotion by ID.
func (d *Directory) Promotion(id string) (pricing.PricePolicy, bool) { return d.promotions.get(id) }

// Promotions returns every configured promotion in listing order.
func (d *Directory) Promotions() []pricing.PricePolicy { return d.promotions.all() }

// ResolvePromotions maps ids onto promotions. An empty list selects every
// configured promotion; duplicates are collapsed keeping the first position.
func (d *Directory) ResolvePromotions(ids []string) ([]pricing.PricePolicy, error) {
	if len(ids) == 0 {
		return d.Promotions(), nil
	}
	seen := make(map[string]struct{}, len(ids))
	out := make([]pricing.PricePolicy, 0, len(ids))
	for _, raw := range ids {
		id := strings.ToLower(strings.TrimSpace(raw))
		if _, dup := seen[id]; dup {
			continue
		}
		p, ok := d.promotions.get(id)
		if !ok {
			return nil, &UnknownPolicyError{Kind: "promotion", ID: raw}
		}
		seen[id] = struct{}{}
		out = append(out, p)
	}
	return out, nil
}

// Tax resolves a tax policy by ID. A blank ID selects No Tax.
func (d *Directory) Tax(id string) (tax.Policy, bool) {
	if strings.TrimSpace(id) == "" {
		return d.taxes.get(NoTaxID)
	}
	return d.taxes.get(id)
}

// Shipping resolves a shipping policy by ID.
func (d *Directory) Shipping(id string) (shipping.Policy, bool) { return d.shipping.get(id) }

// PromotionDescriptors lists promotions for display.
func (d *Directory) PromotionDescriptors() []Descriptor {
	return d.promotions.describe(func(p pricing.PricePolicy) string { return p.Name() })
}

// TaxDescriptors lists tax policies for display.
func (d *Directory) TaxDescriptors() []Descriptor {
	return d.taxes.describe(func(p tax.Policy) string { return p.Name() })
}

// ShippingDescriptors lists shipping policies for display.
func (d *Directory) ShippingDescriptors() []Descriptor {
	return d.shipping.describe(func(p shipping.Policy) string { return p.Name() })
}
