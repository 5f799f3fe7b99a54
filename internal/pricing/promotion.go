package pricing

import (
	"math"
	"strconv"
)

// Product is the read-only view of a catalog item that pricing rules consume.
type Product interface {
	Price() float64
	IsDigital() bool
	IsPhysical() bool
	ShippingCost() (float64, error)
	ShippingPolicyName() string
}

// PricePolicy computes the total price for qty units of a product. Apply must
// never return a negative amount and must not mutate the product.
type PricePolicy interface {
	Name() string
	ApplicableTo(p Product) bool
	Apply(p Product, qty int) float64
}

// Formula is the rule-specific part of a promotion: the discounted total for
// qty units at unitPrice. qty is always positive when Total is called.
type Formula interface {
	Name() string
	Total(unitPrice float64, qty int) float64
}

// Promotion adapts a Formula into a PricePolicy. Apply guards the quantity and
// clamps the result so every formula inherits both invariants.
type Promotion struct {
	formula Formula
}

// NewPromotion wraps f.
func NewPromotion(f Formula) *Promotion {
	return &Promotion{formula: f}
}

// Name returns the formula name.
func (p *Promotion) Name() string { return p.formula.Name() }

// ApplicableTo always reports true. Variant-specific exclusions are handled by
// the selection step, not here.
func (p *Promotion) ApplicableTo(Product) bool { return true }

// Apply returns 0 for qty <= 0 and never a negative total.
func (p *Promotion) Apply(product Product, qty int) float64 {
	if qty <= 0 {
		return 0
	}
	return math.Max(0, p.formula.Total(product.Price(), qty))
}

// Formula exposes the wrapped formula.
func (p *Promotion) Formula() Formula { return p.formula }

// PercentOffFormula takes a percentage off every unit.
type PercentOffFormula struct {
	Percent float64
}

// PercentOff returns a percentage promotion; percent is clamped to [0,90].
func PercentOff(percent float64) *Promotion {
	return NewPromotion(PercentOffFormula{Percent: math.Max(0, math.Min(90, percent))})
}

// Name implements Formula.
func (f PercentOffFormula) Name() string {
	return "Percent-" + formatAmount(f.Percent) + "%"
}

// Total implements Formula.
func (f PercentOffFormula) Total(unitPrice float64, qty int) float64 {
	return unitPrice * (1 - f.Percent/100) * float64(qty)
}

// FixedOffFormula takes a fixed amount off every unit, never below zero.
type FixedOffFormula struct {
	Amount float64
}

// FixedOff returns a fixed-amount promotion; amount is clamped to >= 0.
func FixedOff(amount float64) *Promotion {
	return NewPromotion(FixedOffFormula{Amount: math.Max(0, amount)})
}

// Name implements Formula.
func (f FixedOffFormula) Name() string { return "Fixed-" + formatAmount(f.Amount) }

// Total implements Formula.
func (f FixedOffFormula) Total(unitPrice float64, qty int) float64 {
	return math.Max(0, unitPrice-f.Amount) * float64(qty)
}

// BogoHalfFormula charges half price for the second unit of every pair.
type BogoHalfFormula struct{}

// BogoHalf returns the buy-one-get-one-half promotion.
func BogoHalf() *Promotion { return NewPromotion(BogoHalfFormula{}) }

// Name implements Formula.
func (BogoHalfFormula) Name() string { return "BOGO-HALF" }

// Total implements Formula.
func (BogoHalfFormula) Total(unitPrice float64, qty int) float64 {
	pairs := qty / 2
	singles := qty % 2
	return float64(pairs)*(unitPrice*1.5) + float64(singles)*unitPrice
}

// BuyThreePayForTwoFormula makes every third unit free.
type BuyThreePayForTwoFormula struct{}

// BuyThreePayForTwo returns the 3-for-2 promotion.
func BuyThreePayForTwo() *Promotion { return NewPromotion(BuyThreePayForTwoFormula{}) }

// Name implements Formula.
func (BuyThreePayForTwoFormula) Name() string { return "Buy 3, Pay for 2" }

// Total implements Formula.
func (BuyThreePayForTwoFormula) Total(unitPrice float64, qty int) float64 {
	if qty < 3 {
		return unitPrice * float64(qty)
	}
	free := qty / 3
	return unitPrice*float64(qty) - float64(free)*unitPrice
}

// IsBogoHalf reports whether policy is the BOGO-Half promotion. The check is by
// rule identity on purpose: digital products suppress exactly this rule.
func IsBogoHalf(policy PricePolicy) bool {
	promo, ok := policy.(*Promotion)
	if !ok || promo == nil {
		return false
	}
	_, ok = promo.formula.(BogoHalfFormula)
	return ok
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
