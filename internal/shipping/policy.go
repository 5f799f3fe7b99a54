package shipping

import (
	"math"
	"strconv"
)

// VolumetricDivisor converts cubic centimetres into volumetric kilograms.
const VolumetricDivisor = 5000.0

// Parcel is the read-only view of a physical product that shipping formulas need.
type Parcel interface {
	Price() float64
	WeightKg() float64
	LengthCm() float64
	WidthCm() float64
	HeightCm() float64
}

// Policy computes a shipping cost for a parcel. Implementations are immutable
// and safe to share between products and goroutines.
type Policy interface {
	Name() string
	Cost(p Parcel) float64
}

// SimpleWeightPolicy charges a fixed rate for every kilogram.
type SimpleWeightPolicy struct {
	costPerKg float64
}

// SimpleWeight returns a weight-based policy.
func SimpleWeight(costPerKg float64) SimpleWeightPolicy {
	return SimpleWeightPolicy{costPerKg: costPerKg}
}

// Name implements Policy.
func (SimpleWeightPolicy) Name() string { return "Simple Weight-Based Shipping" }

// Cost implements Policy.
func (s SimpleWeightPolicy) Cost(p Parcel) float64 {
	return p.WeightKg() * s.costPerKg
}

// CostPerKg returns the configured per-kilogram rate.
func (s SimpleWeightPolicy) CostPerKg() float64 { return s.costPerKg }

// FlatRatePolicy charges the same fee for every parcel.
type FlatRatePolicy struct {
	fee float64
}

// FlatRate returns a policy with a constant fee.
func FlatRate(fee float64) FlatRatePolicy {
	return FlatRatePolicy{fee: fee}
}

// Name implements Policy.
func (FlatRatePolicy) Name() string { return "Flat Rate Shipping" }

// Cost implements Policy.
func (f FlatRatePolicy) Cost(Parcel) float64 { return f.fee }

// Fee returns the flat fee.
func (f FlatRatePolicy) Fee() float64 { return f.fee }

// FreeOverThresholdPolicy ships for free once the unit price reaches the threshold.
type FreeOverThresholdPolicy struct {
	threshold float64
	fee       float64
}

// FreeOverThreshold returns a policy that waives fee when price >= threshold.
func FreeOverThreshold(threshold, fee float64) FreeOverThresholdPolicy {
	return FreeOverThresholdPolicy{threshold: threshold, fee: fee}
}

// Name implements Policy.
func (f FreeOverThresholdPolicy) Name() string {
	return "Free Shipping Over " + strconv.FormatFloat(f.threshold, 'f', -1, 64)
}

// Cost implements Policy.
func (f FreeOverThresholdPolicy) Cost(p Parcel) float64 {
	if p.Price() >= f.threshold {
		return 0
	}
	return f.fee
}

// Threshold returns the price at which shipping becomes free.
func (f FreeOverThresholdPolicy) Threshold() float64 { return f.threshold }

// Fee returns the fee charged below the threshold.
func (f FreeOverThresholdPolicy) Fee() float64 { return f.fee }

// ExpressPolicy charges a base fee plus the billable weight rate.
type ExpressPolicy struct {
	baseFee   float64
	costPerKg float64
}

// Express returns an express delivery policy.
func Express(baseFee, costPerKg float64) ExpressPolicy {
	return ExpressPolicy{baseFee: baseFee, costPerKg: costPerKg}
}

// Name implements Policy.
func (ExpressPolicy) Name() string { return "Express Shipping" }

// Cost implements Policy.
func (e ExpressPolicy) Cost(p Parcel) float64 {
	return e.baseFee + BillableWeight(p)*e.costPerKg
}

// BaseFee returns the fixed part of the express fee.
func (e ExpressPolicy) BaseFee() float64 { return e.baseFee }

// CostPerKg returns the per-kilogram rate applied to billable weight.
func (e ExpressPolicy) CostPerKg() float64 { return e.costPerKg }

// VolumetricWeight returns l*w*h divided by VolumetricDivisor.
func VolumetricWeight(p Parcel) float64 {
	return (p.LengthCm() * p.WidthCm() * p.HeightCm()) / VolumetricDivisor
}

// BillableWeight is the greater of actual and volumetric weight.
func BillableWeight(p Parcel) float64 {
	return math.Max(p.WeightKg(), VolumetricWeight(p))
}
