package catalog

import (
	"strings"
	"unicode/utf8"

	"github.com/noah-isme/backend-pricing/internal/shipping"
)

// Bounds enforced by the TrySet* operations.
const (
	MinIDLength          = 2
	MinNameLength        = 2
	MaxDescriptionLength = 200
	MaxPrice             = 1_000_000.0
	MaxQuantity          = 1_000_000
	MaxWeightKg          = 1000.0
	MaxDimensionCm       = 1000.0
	MaxDownloadSizeMb    = 1_000_000.0
	MaxLicenseKeyLength  = 64
	MaxDiscountPercent   = 90.0
	LowStockThreshold    = 10
	DefaultName          = "Unnamed"
)

// Variant discriminates the product kinds.
type Variant string

const (
	VariantStandard Variant = "standard"
	VariantPhysical Variant = "physical"
	VariantDigital  Variant = "digital"
)

// ParseVariant maps a raw string onto a Variant. Empty input means standard.
func ParseVariant(raw string) (Variant, bool) {
	switch Variant(strings.ToLower(strings.TrimSpace(raw))) {
	case "", VariantStandard:
		return VariantStandard, true
	case VariantPhysical:
		return VariantPhysical, true
	case VariantDigital:
		return VariantDigital, true
	default:
		return "", false
	}
}

// StockStatus labels inventory levels.
type StockStatus string

const (
	StockOut StockStatus = "OUT_OF_STOCK"
	StockLow StockStatus = "LOW"
	StockIn  StockStatus = "IN_STOCK"
)

type physicalAttrs struct {
	weightKg float64
	lengthCm float64
	widthCm  float64
	heightCm float64
	policy   shipping.Policy
}

type digitalAttrs struct {
	downloadSizeMb float64
	licenseKey     string
}

// Product is a sellable item. Every field is changed through a TrySet*
// operation that either applies a valid value and returns true, or leaves the
// product untouched and returns false.
type Product struct {
	registry *Registry
	seq      uint64
	instance string
	idLocked bool

	id          string
	name        string
	description string
	price       float64
	quantity    int
	category    *Category
	variant     Variant
	physical    physicalAttrs
	digital     digitalAttrs
	revision    uint64
}

// ID returns the product identifier.
func (p *Product) ID() string { return p.id }

// Name returns the product name.
func (p *Product) Name() string { return p.name }

// Description returns the description, empty when absent.
func (p *Product) Description() string { return p.description }

// Price returns the unit price.
func (p *Product) Price() float64 { return p.price }

// Quantity returns units in stock.
func (p *Product) Quantity() int { return p.quantity }

// Category returns the owning category, or nil.
func (p *Product) Category() *Category { return p.category }

// Variant returns the product kind.
func (p *Product) Variant() Variant { return p.variant }

// IsDigital reports whether the product is the digital variant.
func (p *Product) IsDigital() bool { return p.variant == VariantDigital }

// IsPhysical reports whether the product is the physical variant.
func (p *Product) IsPhysical() bool { return p.variant == VariantPhysical }

// RequiresShipping is true for physical products only.
func (p *Product) RequiresShipping() bool { return p.IsPhysical() }

// Revision increases on every successful mutation.
func (p *Product) Revision() uint64 { return p.revision }

// Instance is a random token assigned at creation. Together with Revision it
// identifies one state of one product, even when an ID is released and reused.
func (p *Product) Instance() string { return p.instance }

// WeightKg returns the physical weight, 0 for other variants.
func (p *Product) WeightKg() float64 { return p.physical.weightKg }

// LengthCm returns the physical length, 0 for other variants.
func (p *Product) LengthCm() float64 { return p.physical.lengthCm }

// WidthCm returns the physical width, 0 for other variants.
func (p *Product) WidthCm() float64 { return p.physical.widthCm }

// HeightCm returns the physical height, 0 for other variants.
func (p *Product) HeightCm() float64 { return p.physical.heightCm }

// DownloadSizeMb returns the digital download size, 0 for other variants.
func (p *Product) DownloadSizeMb() float64 { return p.digital.downloadSizeMb }

// LicenseKey returns the digital license key, empty when absent.
func (p *Product) LicenseKey() string { return p.digital.licenseKey }

// LicenseRequired holds iff a non-blank license key is present.
func (p *Product) LicenseRequired() bool {
	return p.IsDigital() && strings.TrimSpace(p.digital.licenseKey) != ""
}

// TrySetID claims a new identifier in the owning registry. Once an explicit
// identifier has been claimed the ID can no longer change.
func (p *Product) TrySetID(id string) bool {
	if p.idLocked || p.registry == nil {
		return false
	}
	trimmed := strings.TrimSpace(id)
	if utf8.RuneCountInString(trimmed) < MinIDLength {
		return false
	}
	if !p.registry.claim(p, trimmed) {
		return false
	}
	p.idLocked = true
	p.touch()
	return true
}

// TrySetName sets a trimmed name of at least MinNameLength characters.
func (p *Product) TrySetName(name string) bool {
	trimmed := strings.TrimSpace(name)
	if utf8.RuneCountInString(trimmed) < MinNameLength {
		return false
	}
	p.name = trimmed
	p.touch()
	return true
}

// TrySetDescription sets a trimmed description of at most MaxDescriptionLength characters.
func (p *Product) TrySetDescription(description string) bool {
	trimmed := strings.TrimSpace(description)
	if utf8.RuneCountInString(trimmed) > MaxDescriptionLength {
		return false
	}
	p.description = trimmed
	p.touch()
	return true
}

// TrySetPrice accepts 0 <= price <= MaxPrice.
func (p *Product) TrySetPrice(price float64) bool {
	if !(price >= 0 && price <= MaxPrice) {
		return false
	}
	p.price = price
	p.touch()
	return true
}

// TrySetQuantity accepts 0 <= quantity <= MaxQuantity.
func (p *Product) TrySetQuantity(quantity int) bool {
	if quantity < 0 || quantity > MaxQuantity {
		return false
	}
	p.quantity = quantity
	p.touch()
	return true
}

// TrySetCategory links the product into c, unlinking it from any previous
// category. A nil category is rejected; use Category.RemoveProduct to unlink.
func (p *Product) TrySetCategory(c *Category) bool {
	if c == nil {
		return false
	}
	c.AddProduct(p)
	return p.category == c
}

// TrySetWeightKg accepts 0..MaxWeightKg on physical products.
func (p *Product) TrySetWeightKg(weightKg float64) bool {
	if !p.IsPhysical() || !inRange(weightKg, MaxWeightKg) {
		return false
	}
	p.physical.weightKg = weightKg
	p.touch()
	return true
}

// TrySetDimensions sets all three dimensions or none of them.
func (p *Product) TrySetDimensions(lengthCm, widthCm, heightCm float64) bool {
	if !p.IsPhysical() {
		return false
	}
	if !inRange(lengthCm, MaxDimensionCm) || !inRange(widthCm, MaxDimensionCm) || !inRange(heightCm, MaxDimensionCm) {
		return false
	}
	p.physical.lengthCm = lengthCm
	p.physical.widthCm = widthCm
	p.physical.heightCm = heightCm
	p.touch()
	return true
}

// TrySetDownloadSizeMb accepts 0..MaxDownloadSizeMb on digital products.
func (p *Product) TrySetDownloadSizeMb(size float64) bool {
	if !p.IsDigital() || !inRange(size, MaxDownloadSizeMb) {
		return false
	}
	p.digital.downloadSizeMb = size
	p.touch()
	return true
}

// TrySetLicenseKey accepts keys up to MaxLicenseKeyLength characters on
// digital products. An empty key removes the license requirement.
func (p *Product) TrySetLicenseKey(key string) bool {
	if !p.IsDigital() || utf8.RuneCountInString(key) > MaxLicenseKeyLength {
		return false
	}
	p.digital.licenseKey = key
	p.touch()
	return true
}

// SetShippingPolicy swaps the shipping strategy of a physical product. It
// returns false for other variants or a nil policy.
func (p *Product) SetShippingPolicy(policy shipping.Policy) bool {
	if !p.IsPhysical() || policy == nil {
		return false
	}
	p.physical.policy = policy
	p.touch()
	return true
}

// ShippingPolicy returns the configured policy and whether one is set.
func (p *Product) ShippingPolicy() (shipping.Policy, bool) {
	if !p.IsPhysical() || p.physical.policy == nil {
		return nil, false
	}
	return p.physical.policy, true
}

// ShippingPolicyName returns the configured policy name or an empty string.
func (p *Product) ShippingPolicyName() string {
	if policy, ok := p.ShippingPolicy(); ok {
		return policy.Name()
	}
	return ""
}

// ShippingCost forwards to the configured policy. Non-physical products never
// ship and cost 0. A physical product without a policy is a usage error.
func (p *Product) ShippingCost() (float64, error) {
	if !p.IsPhysical() {
		return 0, nil
	}
	policy, ok := p.ShippingPolicy()
	if !ok {
		return 0, &MissingShippingPolicyError{ProductID: p.id, ProductName: p.name}
	}
	return policy.Cost(p), nil
}

// AddStock increases the quantity when amount > 0 and the result stays within bounds.
func (p *Product) AddStock(amount int) bool {
	if amount <= 0 || p.quantity+amount > MaxQuantity {
		return false
	}
	p.quantity += amount
	p.touch()
	return true
}

// Sell removes amount units when 0 < amount <= quantity.
func (p *Product) Sell(amount int) bool {
	if amount <= 0 || amount > p.quantity {
		return false
	}
	p.quantity -= amount
	p.touch()
	return true
}

// ApplyDiscount permanently lowers the price by percent (0..90).
func (p *Product) ApplyDiscount(percent float64) bool {
	if !(percent >= 0 && percent <= MaxDiscountPercent) {
		return false
	}
	p.price -= p.price * (percent / 100)
	p.touch()
	return true
}

// TotalValue is price times quantity.
func (p *Product) TotalValue() float64 {
	return p.price * float64(p.quantity)
}

// StockStatus classifies the current quantity.
func (p *Product) StockStatus() StockStatus {
	switch {
	case p.quantity == 0:
		return StockOut
	case p.quantity <= LowStockThreshold:
		return StockLow
	default:
		return StockIn
	}
}

func (p *Product) touch() { p.revision++ }

func (p *Product) setCategory(c *Category) {
	p.category = c
	p.touch()
}

// mutate runs fn and restores the previous state when fn reports failures.
// Identity and category links are not part of the rollback.
func (p *Product) mutate(fn func(*Product) []string) []string {
	saved := *p
	failed := fn(p)
	if len(failed) > 0 {
		saved.id, saved.idLocked, saved.category = p.id, p.idLocked, p.category
		*p = saved
	}
	return failed
}

func inRange(v, max float64) bool {
	return v >= 0 && v <= max
}
