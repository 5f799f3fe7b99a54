package catalog

import (
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/noah-isme/backend-pricing/internal/shipping"
)

// Attributes are the fields shared by every variant at creation time. Invalid
// values are skipped and the defaults kept, matching TrySet* semantics.
type Attributes struct {
	ID          string
	Name        string
	Description string
	Price       float64
	Quantity    int
	Category    *Category
}

// PhysicalAttributes are the creation-time fields of a physical product.
type PhysicalAttributes struct {
	WeightKg float64
	LengthCm float64
	WidthCm  float64
	HeightCm float64
	Shipping shipping.Policy
}

// DigitalAttributes are the creation-time fields of a digital product.
type DigitalAttributes struct {
	DownloadSizeMb float64
	LicenseKey     string
}

// Registry owns products, hands out sequence identifiers and keeps IDs unique
// among live products. Claiming an ID (check + insert) is atomic.
type Registry struct {
	mu      sync.Mutex
	next    int
	created uint64
	byID    map[string]*Product
}

// NewRegistry returns an empty registry whose sequence starts at 1.
func NewRegistry() *Registry {
	return &Registry{next: 1, byID: make(map[string]*Product)}
}

// NewProduct creates a standard product.
func (r *Registry) NewProduct(attrs Attributes) *Product {
	p := r.create(VariantStandard, attrs.ID)
	applyAttributes(p, attrs)
	return p
}

// NewPhysical creates a physical product. A nil Shipping leaves the product
// unconfigured; ShippingCost will fail until a policy is set.
func (r *Registry) NewPhysical(attrs Attributes, phys PhysicalAttributes) *Product {
	p := r.create(VariantPhysical, attrs.ID)
	applyAttributes(p, attrs)
	p.TrySetWeightKg(phys.WeightKg)
	p.TrySetDimensions(phys.LengthCm, phys.WidthCm, phys.HeightCm)
	p.SetShippingPolicy(phys.Shipping)
	return p
}

// NewDigital creates a digital product.
func (r *Registry) NewDigital(attrs Attributes, dig DigitalAttributes) *Product {
	p := r.create(VariantDigital, attrs.ID)
	applyAttributes(p, attrs)
	p.TrySetDownloadSizeMb(dig.DownloadSizeMb)
	p.TrySetLicenseKey(dig.LicenseKey)
	return p
}

// Of is shorthand for a standard product with an id, name and price.
func (r *Registry) Of(id, name string, price float64) *Product {
	return r.NewProduct(Attributes{ID: id, Name: name, Price: price})
}

// FreeSample creates a zero-priced single unit.
func (r *Registry) FreeSample(name string) *Product {
	return r.NewProduct(Attributes{Name: name, Price: 0, Quantity: 1})
}

// Lookup returns the live product registered under id.
func (r *Registry) Lookup(id string) (*Product, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.byID[strings.TrimSpace(id)]
	return p, ok
}

// Release removes p from the registry so its ID can be reused.
func (r *Registry) Release(p *Product) bool {
	if p == nil {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if current, ok := r.byID[p.id]; ok && current == p {
		delete(r.byID, p.id)
		return true
	}
	return false
}

// Products returns live products in creation order.
func (r *Registry) Products() []*Product {
	r.mu.Lock()
	out := make([]*Product, 0, len(r.byID))
	for _, p := range r.byID {
		out = append(out, p)
	}
	r.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].seq < out[j].seq })
	return out
}

// Len returns the number of live products.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byID)
}

// Created returns how many products the registry has ever created.
func (r *Registry) Created() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.created
}

func (r *Registry) create(variant Variant, requestedID string) *Product {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.created++
	p := &Product{
		registry: r,
		seq:      r.created,
		instance: uuid.NewString(),
		name:     DefaultName,
		variant:  variant,
	}
	trimmed := strings.TrimSpace(requestedID)
	if len([]rune(trimmed)) >= MinIDLength {
		if _, taken := r.byID[trimmed]; !taken {
			p.id = trimmed
			p.idLocked = true
			r.byID[trimmed] = p
			return p
		}
	}
	p.id = r.nextFreeLocked()
	r.byID[p.id] = p
	return p
}

func (r *Registry) claim(p *Product, id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, taken := r.byID[id]; taken {
		return existing == p
	}
	if current, ok := r.byID[p.id]; ok && current == p {
		delete(r.byID, p.id)
	}
	p.id = id
	r.byID[id] = p
	return true
}

func (r *Registry) nextFreeLocked() string {
	for {
		id := strconv.Itoa(r.next)
		r.next++
		if _, taken := r.byID[id]; !taken {
			return id
		}
	}
}

func applyAttributes(p *Product, attrs Attributes) {
	p.TrySetName(attrs.Name)
	p.TrySetDescription(attrs.Description)
	p.TrySetPrice(attrs.Price)
	p.TrySetQuantity(attrs.Quantity)
	if attrs.Category != nil {
		p.TrySetCategory(attrs.Category)
	}
}
