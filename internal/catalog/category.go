package catalog

// Category groups distinct products. Products hold a weak back-reference to
// the category they belong to; a product is in at most one category.
type Category struct {
	id          int
	name        string
	description string
	products    []*Product
}

// NewCategory constructs an empty category.
func NewCategory(id int, name, description string) *Category {
	return &Category{id: id, name: name, description: description}
}

// ID returns the category identifier.
func (c *Category) ID() int { return c.id }

// Name returns the category name.
func (c *Category) Name() string { return c.name }

// Description returns the category description.
func (c *Category) Description() string { return c.description }

// AddProduct links p into the category. It returns false for nil or already
// present products. A product moving from another category is unlinked there.
func (c *Category) AddProduct(p *Product) bool {
	if p == nil || c.Contains(p) {
		return false
	}
	if prev := p.category; prev != nil && prev != c {
		prev.detach(p)
	}
	c.products = append(c.products, p)
	p.setCategory(c)
	return true
}

// RemoveProduct unlinks p and clears its back-reference.
func (c *Category) RemoveProduct(p *Product) bool {
	if !c.detach(p) {
		return false
	}
	p.setCategory(nil)
	return true
}

// Contains reports whether p is linked to the category.
func (c *Category) Contains(p *Product) bool {
	for _, existing := range c.products {
		if existing == p {
			return true
		}
	}
	return false
}

// Products returns a copy of the linked products.
func (c *Category) Products() []*Product {
	out := make([]*Product, len(c.products))
	copy(out, c.products)
	return out
}

// Len returns the number of linked products.
func (c *Category) Len() int { return len(c.products) }

// TotalValue sums price*quantity across the linked products.
func (c *Category) TotalValue() float64 {
	var total float64
	for _, p := range c.products {
		total += p.TotalValue()
	}
	return total
}

func (c *Category) detach(p *Product) bool {
	for i, existing := range c.products {
		if existing == p {
			c.products = append(c.products[:i], c.products[i+1:]...)
			return true
		}
	}
	return false
}
