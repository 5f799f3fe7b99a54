package catalog

import "context"

// Shipping policy identifiers the demo catalog expects to resolve.
const (
	DemoExpressShipping      = "express"
	DemoSimpleWeightShipping = "simple-weight"
)

// DemoCategory names the category the demo products are linked into.
const DemoCategory = "Electronics & Media"

// SeedDemo loads the demo catalog: a gaming laptop shipped express, wireless
// headphones shipped by weight and a digital e-book.
func SeedDemo(ctx context.Context, svc *Service) error {
	category, err := svc.CreateCategory(ctx, CategoryInput{Name: DemoCategory, Description: "Demo catalog"})
	if err != nil {
		return err
	}
	inputs := []ProductInput{
		{
			ID:          "LP001",
			Variant:     string(VariantPhysical),
			Name:        "Gaming Laptop",
			Description: "High-performance gaming laptop",
			Price:       150000,
			Quantity:    5,
			CategoryID:  &category.ID,
			Physical: &PhysicalInput{
				WeightKg:         2.5,
				LengthCm:         40,
				WidthCm:          30,
				HeightCm:         5,
				ShippingPolicyID: DemoExpressShipping,
			},
		},
		{
			ID:          "EB001",
			Variant:     string(VariantDigital),
			Name:        "Programming Guide",
			Description: "Comprehensive programming tutorial",
			Price:       5000,
			Quantity:    100,
			CategoryID:  &category.ID,
			Digital: &DigitalInput{
				DownloadSizeMb: 25.5,
				LicenseKey:     "LICENSE-2024-GUIDE",
			},
		},
		{
			ID:         "HP001",
			Variant:    string(VariantPhysical),
			Name:       "Wireless Headphones",
			Price:      25000,
			CategoryID: &category.ID,
			Physical: &PhysicalInput{
				WeightKg:         0.3,
				ShippingPolicyID: DemoSimpleWeightShipping,
			},
		},
	}
	for _, in := range inputs {
		if _, err := svc.CreateProduct(ctx, in); err != nil {
			return err
		}
	}
	return nil
}
