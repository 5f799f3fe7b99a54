// Command quote prices a product from the demo catalog without starting the
// HTTP server. It reads the same pricing configuration as the API.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-pricing/internal/app"
	"github.com/noah-isme/backend-pricing/internal/catalog"
	"github.com/noah-isme/backend-pricing/internal/checkout"
	"github.com/noah-isme/backend-pricing/internal/common"
	"github.com/noah-isme/backend-pricing/internal/config"
	"github.com/noah-isme/backend-pricing/internal/obs"
	"github.com/noah-isme/backend-pricing/internal/policy"
)

func main() {
	productID := flag.String("product", "LP001", "product ID from the demo catalog")
	qty := flag.Int("qty", 2, "quantity to price")
	promos := flag.String("promotions", "", "comma-separated promotion IDs; empty uses every promotion")
	taxID := flag.String("tax", policy.ProgressiveVATID, "tax policy ID")
	shippingID := flag.String("shipping", "", "override the product's shipping policy")
	flag.Parse()

	logger := obs.NewLogger(obs.LogConfig{Format: "console", Level: "warn", Output: os.Stderr})
	if err := run(logger, *productID, *qty, splitIDs(*promos), *taxID, *shippingID); err != nil {
		logger.Error().Err(err).Str("code", common.CodeOf(err)).Msg("quote failed")
		os.Exit(1)
	}
}

func run(logger zerolog.Logger, productID string, qty int, promos []string, taxID, shippingID string) error {
	ctx := context.Background()
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	policyCfg, err := app.PolicyConfig(cfg)
	if err != nil {
		return err
	}
	directory := policy.NewDirectory(policyCfg)

	svc, err := catalog.NewService(catalog.ServiceConfig{Registry: catalog.NewRegistry(), Shipping: directory, Logger: logger})
	if err != nil {
		return err
	}
	if err := catalog.SeedDemo(ctx, svc); err != nil {
		return err
	}
	if shippingID != "" {
		if _, err := svc.SetShippingPolicy(ctx, productID, shippingID); err != nil {
			return err
		}
	}

	quotes, err := checkout.NewService(checkout.ServiceConfig{Catalog: svc, Policies: directory, Logger: logger})
	if err != nil {
		return err
	}
	q, err := quotes.Quote(ctx, checkout.Input{ProductID: productID, Quantity: qty, PromotionIDs: promos, TaxPolicyID: taxID})
	if err != nil {
		return err
	}

	b := q.Breakdown
	fmt.Printf("Product: %s (%s), quantity %d\n", q.ProductName, q.ProductID, q.Quantity)
	fmt.Printf("  undiscounted        %12.2f\n", b.Undiscounted)
	fmt.Printf("  subtotal            %12.2f  %s\n", b.Subtotal, orNone(b.Promotion))
	fmt.Printf("  tax                 %12.2f  %s\n", b.Tax, b.TaxPolicy)
	fmt.Printf("  shipping            %12.2f  %s\n", b.Shipping, orNone(b.ShippingPolicy))
	fmt.Printf("  total               %12.2f\n", b.Total)
	return nil
}

func splitIDs(raw string) []string {
	var ids []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			ids = append(ids, part)
		}
	}
	return ids
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
