package pricing

import (
	"github.com/noah-isme/backend-pricing/internal/tax"
)

// Request bundles the inputs for a single-product quote.
type Request struct {
	Product    Product
	Qty        int
	Promotions []PricePolicy
	// Tax defaults to tax.NoTax when nil.
	Tax tax.Policy
}

// Summary aggregates computed pricing components.
type Summary struct {
	Undiscounted   float64 `json:"undiscounted"`
	Subtotal       float64 `json:"subtotal"`
	Discount       float64 `json:"discount"`
	Tax            float64 `json:"tax"`
	Shipping       float64 `json:"shipping"`
	Total          float64 `json:"total"`
	Promotion      string  `json:"promotion,omitempty"`
	TaxPolicy      string  `json:"taxPolicy"`
	ShippingPolicy string  `json:"shippingPolicy,omitempty"`
}

// Quote runs the pipeline: best promotion, tax on the subtotal, shipping for
// physical products. The only failure is a physical product without a
// configured shipping policy.
func Quote(req Request) (Summary, error) {
	taxPolicy := req.Tax
	if taxPolicy == nil {
		taxPolicy = tax.NoTax()
	}
	summary := Summary{TaxPolicy: taxPolicy.Name()}
	if req.Product == nil || req.Qty <= 0 {
		return summary, nil
	}

	selection := BestOf(req.Product, req.Qty, req.Promotions)
	summary.Undiscounted = Undiscounted(req.Product, req.Qty)
	summary.Subtotal = selection.Amount
	summary.Discount = nonNegative(summary.Undiscounted - summary.Subtotal)
	summary.Promotion = selection.PolicyName()
	summary.Tax = nonNegative(taxPolicy.CalculateTax(req.Product, summary.Subtotal))

	if req.Product.IsPhysical() {
		cost, err := req.Product.ShippingCost()
		if err != nil {
			return Summary{}, err
		}
		summary.Shipping = nonNegative(cost)
		summary.ShippingPolicy = req.Product.ShippingPolicyName()
	}

	summary.Total = summary.Subtotal + summary.Tax + summary.Shipping
	return summary, nil
}

func nonNegative(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}
