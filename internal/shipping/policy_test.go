package shipping

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type parcel struct {
	price, weight, length, width, height float64
}

func (p parcel) Price() float64    { return p.price }
func (p parcel) WeightKg() float64 { return p.weight }
func (p parcel) LengthCm() float64 { return p.length }
func (p parcel) WidthCm() float64  { return p.width }
func (p parcel) HeightCm() float64 { return p.height }

var laptop = parcel{price: 150000, weight: 2.5, length: 40, width: 30, height: 5}

func TestVolumetricAndBillableWeight(t *testing.T) {
	require.InDelta(t, 1.2, VolumetricWeight(laptop), 1e-9)
	require.InDelta(t, 2.5, BillableWeight(laptop), 1e-9)

	bulky := parcel{weight: 1, length: 100, width: 50, height: 20}
	require.InDelta(t, 20.0, BillableWeight(bulky), 1e-9)
}

func TestPolicyCosts(t *testing.T) {
	cases := []struct {
		name   string
		policy Policy
		parcel parcel
		want   float64
	}{
		{"simple weight", SimpleWeight(1500), laptop, 3750},
		{"simple weight per kilogram", SimpleWeight(1000), laptop, 2500},
		{"simple weight ignores volume", SimpleWeight(1000), parcel{weight: 1, length: 100, width: 50, height: 20}, 1000},
		{"flat rate", FlatRate(2000), laptop, 2000},
		{"free at threshold", FreeOverThreshold(100000, 4000), parcel{price: 100000}, 0},
		{"fee just below threshold", FreeOverThreshold(100000, 4000), parcel{price: 99999}, 4000},
		{"fee below threshold", FreeOverThreshold(100000, 4000), parcel{price: 25000}, 4000},
		{"express uses billable weight", Express(5000, 2500), laptop, 11250},
		{"express volumetric", Express(5000, 2500), parcel{weight: 1, length: 100, width: 50, height: 20}, 55000},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.InDelta(t, tc.want, tc.policy.Cost(tc.parcel), 1e-9)
		})
	}
}

func TestPolicyNames(t *testing.T) {
	require.Equal(t, "Simple Weight-Based Shipping", SimpleWeight(1).Name())
	require.Equal(t, "Flat Rate Shipping", FlatRate(1).Name())
	require.Equal(t, "Free Shipping Over 100000", FreeOverThreshold(100000, 1).Name())
	require.Equal(t, "Express Shipping", Express(1, 1).Name())
}
