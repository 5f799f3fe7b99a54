package checkout

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/noah-isme/backend-pricing/internal/cache"
	"github.com/noah-isme/backend-pricing/internal/catalog"
	"github.com/noah-isme/backend-pricing/internal/common"
	"github.com/noah-isme/backend-pricing/internal/obs"
	"github.com/noah-isme/backend-pricing/internal/policy"
	"github.com/noah-isme/backend-pricing/internal/pricing"
	"github.com/noah-isme/backend-pricing/internal/tax"
)

// Catalog gives read access to a live product.
type Catalog interface {
	View(ctx context.Context, id string, fn func(*catalog.Product) error) error
}

// Policies resolves policy identifiers.
type Policies interface {
	ResolvePromotions(ids []string) ([]pricing.PricePolicy, error)
	Tax(id string) (tax.Policy, bool)
	Fingerprint() string
}

// Input is the quote request payload.
type Input struct {
	ProductID    string   `json:"productId" validate:"required"`
	Quantity     int      `json:"quantity" validate:"lte=1000000"`
	PromotionIDs []string `json:"promotionIds,omitempty" validate:"omitempty,dive,required"`
	TaxPolicyID  string   `json:"taxPolicyId,omitempty"`
}

// Quote is a priced breakdown for one product and quantity.
type Quote struct {
	ID          string          `json:"id"`
	ProductID   string          `json:"productId"`
	ProductName string          `json:"productName"`
	Variant     catalog.Variant `json:"variant"`
	Quantity    int             `json:"quantity"`
	UnitPrice   float64         `json:"unitPrice"`
	Revision    uint64          `json:"revision"`
	Breakdown   pricing.Summary `json:"breakdown"`
	Cached      bool            `json:"cached"`
	QuotedAt    time.Time       `json:"quotedAt"`
}

// ServiceConfig groups Service dependencies.
type ServiceConfig struct {
	Catalog  Catalog
	Policies Policies
	Cache    *cache.JSON
	Logger   zerolog.Logger
	Now      func() time.Time
}

// Service prices products against the configured policies.
type Service struct {
	catalog  Catalog
	policies Policies
	cache    *cache.JSON
	logger   zerolog.Logger
	now      func() time.Time
}

// NewService constructs a Service instance.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Catalog == nil {
		return nil, errors.New("checkout: catalog is required")
	}
	if cfg.Policies == nil {
		return nil, errors.New("checkout: policies are required")
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		catalog:  cfg.Catalog,
		policies: cfg.Policies,
		cache:    cfg.Cache,
		logger:   cfg.Logger,
		now:      now,
	}, nil
}

// Quote runs the pricing pipeline over a consistent snapshot of the product.
// Results are cached per product instance and revision when a cache is
// configured.
func (s *Service) Quote(ctx context.Context, in Input) (Quote, error) {
	ctx, span := obs.Tracer("checkout.Service").Start(ctx, "Service.Quote")
	defer span.End()
	logger := obs.ContextLogger(ctx, s.logger)
	// Non-positive quantities price to zero; they share the quantity 0 quote.
	if in.Quantity < 0 {
		in.Quantity = 0
	}
	span.SetAttributes(
		attribute.String("quote.product_id", in.ProductID),
		attribute.Int("quote.quantity", in.Quantity),
	)

	promotions, err := s.policies.ResolvePromotions(in.PromotionIDs)
	if err != nil {
		s.record("unknown_policy")
		return Quote{}, unknownPolicy(err)
	}
	taxPolicy, ok := s.policies.Tax(in.TaxPolicyID)
	if !ok {
		s.record("unknown_policy")
		return Quote{}, unknownPolicy(&policy.UnknownPolicyError{Kind: "tax", ID: in.TaxPolicyID})
	}

	promoKey := cacheSelector(in.PromotionIDs)
	taxKey := strings.ToLower(strings.TrimSpace(in.TaxPolicyID))

	var key string
	if s.cache.Enabled() {
		if err := s.catalog.View(ctx, in.ProductID, func(p *catalog.Product) error {
			key = s.cacheKey(p, in.Quantity, promoKey, taxKey)
			return nil
		}); err != nil {
			s.record("not_found")
			span.RecordError(err)
			return Quote{}, err
		}
		var cached Quote
		hit, err := s.cache.Get(ctx, key, &cached)
		if err != nil {
			logger.Warn().Err(err).Str("key", key).Msg("quote_cache_get_failed")
		}
		if hit {
			s.cacheResult("hit")
			s.record("ok")
			span.SetAttributes(attribute.Bool("quote.cached", true))
			cached.Cached = true
			return cached, nil
		}
		s.cacheResult("miss")
	}

	var quote Quote
	err = s.catalog.View(ctx, in.ProductID, func(p *catalog.Product) error {
		summary, err := pricing.Quote(pricing.Request{
			Product:    p,
			Qty:        in.Quantity,
			Promotions: promotions,
			Tax:        taxPolicy,
		})
		if err != nil {
			return err
		}
		quote = Quote{
			ID:          uuid.NewString(),
			ProductID:   p.ID(),
			ProductName: p.Name(),
			Variant:     p.Variant(),
			Quantity:    in.Quantity,
			UnitPrice:   p.Price(),
			Revision:    p.Revision(),
			Breakdown:   summary,
			QuotedAt:    s.now().UTC(),
		}
		if s.cache.Enabled() {
			key = s.cacheKey(p, in.Quantity, promoKey, taxKey)
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		var missing *catalog.MissingShippingPolicyError
		if errors.As(err, &missing) {
			s.record("shipping_policy_missing")
			return Quote{}, &common.AppError{
				Code:       "SHIPPING_POLICY_MISSING",
				Message:    missing.Error(),
				HTTPStatus: http.StatusConflict,
				Err:        err,
				Details:    map[string]any{"productId": missing.ProductID, "productName": missing.ProductName},
			}
		}
		s.record("error")
		return Quote{}, err
	}

	s.record("ok")
	s.observe(quote)
	span.SetAttributes(
		attribute.String("quote.promotion", quote.Breakdown.Promotion),
		attribute.Float64("quote.total", quote.Breakdown.Total),
	)
	if err := s.cache.Set(ctx, key, quote); err != nil {
		logger.Warn().Err(err).Str("key", key).Msg("quote_cache_set_failed")
	}
	logger.Debug().
		Str("quote_id", quote.ID).
		Str("product_id", quote.ProductID).
		Int("quantity", quote.Quantity).
		Str("promotion", quote.Breakdown.Promotion).
		Float64("total", quote.Breakdown.Total).
		Msg("quote_computed")
	return quote, nil
}

func (s *Service) cacheKey(p *catalog.Product, qty int, promotionIDs []string, taxID string) string {
	return cache.KeyQuote(cache.QuoteKey{
		PolicySet:    s.policies.Fingerprint(),
		ProductID:    p.ID(),
		Instance:     p.Instance(),
		Revision:     p.Revision(),
		Qty:          qty,
		PromotionIDs: promotionIDs,
		TaxID:        taxID,
	})
}

func (s *Service) record(result string) {
	if obs.QuotesTotal != nil {
		obs.QuotesTotal.WithLabelValues(result).Inc()
	}
}

func (s *Service) cacheResult(result string) {
	if obs.QuoteCacheTotal != nil {
		obs.QuoteCacheTotal.WithLabelValues(result).Inc()
	}
}

func (s *Service) observe(q Quote) {
	if q.Quantity <= 0 {
		return
	}
	if obs.PromotionSelections != nil {
		name := q.Breakdown.Promotion
		if name == "" {
			name = "none"
		}
		obs.PromotionSelections.WithLabelValues(name).Inc()
	}
	if obs.QuoteAmount != nil {
		obs.QuoteAmount.WithLabelValues(string(q.Variant)).Observe(q.Breakdown.Total)
	}
}

func cacheSelector(ids []string) []string {
	if len(ids) == 0 {
		return []string{"*"}
	}
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, strings.ToLower(strings.TrimSpace(id)))
	}
	return out
}

func unknownPolicy(err error) *common.AppError {
	details := map[string]any{}
	var upe *policy.UnknownPolicyError
	if errors.As(err, &upe) {
		details["kind"] = upe.Kind
		details["id"] = upe.ID
	}
	return &common.AppError{
		Code:       "UNKNOWN_POLICY",
		Message:    err.Error(),
		HTTPStatus: http.StatusNotFound,
		Err:        err,
		Details:    details,
	}
}
