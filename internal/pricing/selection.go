package pricing

// Undiscounted returns unitPrice*qty, or 0 when qty <= 0.
func Undiscounted(p Product, qty int) float64 {
	if qty <= 0 {
		return 0
	}
	return p.Price() * float64(qty)
}

// PriceWith prices qty units under a single policy. A nil or inapplicable
// policy yields the undiscounted price.
func PriceWith(p Product, qty int, policy PricePolicy) float64 {
	if qty <= 0 {
		return 0
	}
	if policy == nil || !policy.ApplicableTo(p) {
		return Undiscounted(p, qty)
	}
	// Digital products ignore BOGO-Half specifically; other rules still apply.
	if p.IsDigital() && IsBogoHalf(policy) {
		return Undiscounted(p, qty)
	}
	return policy.Apply(p, qty)
}

// Selection is the outcome of best-of-N promotion selection.
type Selection struct {
	Amount float64
	// Policy is the winning rule, or nil when no candidate applied.
	Policy PricePolicy
}

// PolicyName returns the winning rule name or an empty string.
func (s Selection) PolicyName() string {
	if s.Policy == nil {
		return ""
	}
	return s.Policy.Name()
}

// BestOf evaluates every applicable candidate and keeps the cheapest total.
// The first candidate wins a tie. With no applicable candidate the result is
// the undiscounted price.
func BestOf(p Product, qty int, candidates []PricePolicy) Selection {
	if qty <= 0 {
		return Selection{}
	}
	var (
		best  Selection
		found bool
	)
	for _, candidate := range candidates {
		if candidate == nil || !candidate.ApplicableTo(p) {
			continue
		}
		amount := PriceWith(p, qty, candidate)
		if !found || amount < best.Amount {
			best = Selection{Amount: amount, Policy: candidate}
			found = true
		}
	}
	if !found {
		return Selection{Amount: Undiscounted(p, qty)}
	}
	return best
}
