package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-pricing/internal/common"
	"github.com/noah-isme/backend-pricing/internal/shipping"
)

// ShippingLookup resolves configured shipping policies by identifier.
type ShippingLookup interface {
	Shipping(id string) (shipping.Policy, bool)
}

// Service guards the product registry and categories behind one lock and
// assembles DTOs for the HTTP layer.
type Service struct {
	mu           sync.RWMutex
	registry     *Registry
	shipping     ShippingLookup
	categories   map[int]*Category
	nextCategory int
	logger       zerolog.Logger
	defaultPage  int
	defaultLimit int
	maxLimit     int
}

// ServiceConfig groups Service dependencies.
type ServiceConfig struct {
	Registry     *Registry
	Shipping     ShippingLookup
	Logger       zerolog.Logger
	DefaultPage  int
	DefaultLimit int
	MaxLimit     int
}

// ListParams captures filters for product listing.
type ListParams struct {
	Variant Variant
	Page    int
	Limit   int
}

// PhysicalInput carries physical attributes on create.
type PhysicalInput struct {
	WeightKg         float64 `json:"weightKg" validate:"gte=0,lte=1000"`
	LengthCm         float64 `json:"lengthCm" validate:"gte=0,lte=1000"`
	WidthCm          float64 `json:"widthCm" validate:"gte=0,lte=1000"`
	HeightCm         float64 `json:"heightCm" validate:"gte=0,lte=1000"`
	ShippingPolicyID string  `json:"shippingPolicyId,omitempty"`
}

// DigitalInput carries digital attributes on create.
type DigitalInput struct {
	DownloadSizeMb float64 `json:"downloadSizeMb" validate:"gte=0,lte=1000000"`
	LicenseKey     string  `json:"licenseKey,omitempty" validate:"max=64"`
}

// ProductInput is the create payload.
type ProductInput struct {
	ID          string         `json:"id,omitempty"`
	Variant     string         `json:"variant,omitempty" validate:"omitempty,oneof=standard physical digital"`
	Name        string         `json:"name" validate:"required"`
	Description string         `json:"description,omitempty"`
	Price       float64        `json:"price" validate:"gte=0,lte=1000000"`
	Quantity    int            `json:"quantity" validate:"gte=0,lte=1000000"`
	CategoryID  *int           `json:"categoryId,omitempty"`
	Physical    *PhysicalInput `json:"physical,omitempty" validate:"omitempty"`
	Digital     *DigitalInput  `json:"digital,omitempty" validate:"omitempty"`
}

// Dimensions groups the three physical measurements, which change together.
type Dimensions struct {
	LengthCm float64 `json:"lengthCm"`
	WidthCm  float64 `json:"widthCm"`
	HeightCm float64 `json:"heightCm"`
}

// ProductUpdate is the partial update payload. Nil fields are left unchanged.
type ProductUpdate struct {
	ID             *string     `json:"id,omitempty"`
	Name           *string     `json:"name,omitempty"`
	Description    *string     `json:"description,omitempty"`
	Price          *float64    `json:"price,omitempty"`
	Quantity       *int        `json:"quantity,omitempty"`
	WeightKg       *float64    `json:"weightKg,omitempty"`
	Dimensions     *Dimensions `json:"dimensions,omitempty"`
	DownloadSizeMb *float64    `json:"downloadSizeMb,omitempty"`
	LicenseKey     *string     `json:"licenseKey,omitempty"`
}

// PhysicalView is the physical section of a product payload.
type PhysicalView struct {
	WeightKg           float64 `json:"weightKg"`
	LengthCm           float64 `json:"lengthCm"`
	WidthCm            float64 `json:"widthCm"`
	HeightCm           float64 `json:"heightCm"`
	VolumetricWeightKg float64 `json:"volumetricWeightKg"`
	BillableWeightKg   float64 `json:"billableWeightKg"`
	ShippingPolicy     string  `json:"shippingPolicy,omitempty"`
}

// DigitalView is the digital section of a product payload.
type DigitalView struct {
	DownloadSizeMb  float64 `json:"downloadSizeMb"`
	LicenseRequired bool    `json:"licenseRequired"`
}

// ProductView is the public product payload.
type ProductView struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	Price       float64       `json:"price"`
	Quantity    int           `json:"quantity"`
	Variant     Variant       `json:"variant"`
	CategoryID  *int          `json:"categoryId,omitempty"`
	StockStatus StockStatus   `json:"stockStatus"`
	TotalValue  float64       `json:"totalValue"`
	Revision    uint64        `json:"revision"`
	Physical    *PhysicalView `json:"physical,omitempty"`
	Digital     *DigitalView  `json:"digital,omitempty"`
}

// CategoryInput is the create payload for categories.
type CategoryInput struct {
	Name        string `json:"name" validate:"required,min=2"`
	Description string `json:"description,omitempty" validate:"max=200"`
}

// CategoryView is the public category payload.
type CategoryView struct {
	ID          int      `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	ProductIDs  []string `json:"productIds"`
	TotalValue  float64  `json:"totalValue"`
}

// ProductListResult contains list data and pagination metadata.
type ProductListResult struct {
	Items []ProductView
	Total int
	Page  int
	Limit int
}

// Stats summarises the catalog.
type Stats struct {
	LiveProducts    int     `json:"liveProducts"`
	CreatedProducts uint64  `json:"createdProducts"`
	Categories      int     `json:"categories"`
	InventoryValue  float64 `json:"inventoryValue"`
}

// NewService constructs a Service instance.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Registry == nil {
		return nil, errors.New("catalog: registry is required")
	}
	defaultPage := cfg.DefaultPage
	if defaultPage < 1 {
		defaultPage = 1
	}
	defaultLimit := cfg.DefaultLimit
	if defaultLimit < 1 {
		defaultLimit = 20
	}
	maxLimit := cfg.MaxLimit
	if maxLimit < 1 {
		maxLimit = 100
	}
	if defaultLimit > maxLimit {
		defaultLimit = maxLimit
	}
	return &Service{
		registry:     cfg.Registry,
		shipping:     cfg.Shipping,
		categories:   make(map[int]*Category),
		nextCategory: 1,
		logger:       cfg.Logger,
		defaultPage:  defaultPage,
		defaultLimit: defaultLimit,
		maxLimit:     maxLimit,
	}, nil
}

// ParseListParams normalises raw query values into strongly typed filters.
func (s *Service) ParseListParams(values url.Values) (ListParams, error) {
	params := ListParams{
		Page:  s.defaultPage,
		Limit: s.defaultLimit,
	}
	if v := strings.TrimSpace(values.Get("variant")); v != "" {
		variant, ok := ParseVariant(v)
		if !ok {
			return params, badRequest("variant", "variant must be standard, physical or digital", nil)
		}
		params.Variant = variant
	}
	if v := strings.TrimSpace(values.Get("page")); v != "" {
		page, err := strconv.Atoi(v)
		if err != nil || page < 1 {
			return params, badRequest("page", "page must be a positive integer", err)
		}
		params.Page = page
	}
	limit := s.defaultLimit
	if v := strings.TrimSpace(values.Get("limit")); v != "" {
		l, err := strconv.Atoi(v)
		if err != nil || l < 1 {
			return params, badRequest("limit", "limit must be a positive integer", err)
		}
		limit = l
	}
	if limit > s.maxLimit {
		limit = s.maxLimit
	}
	params.Limit = limit
	return params, nil
}

// ListProducts returns a page of products in creation order.
func (s *Service) ListProducts(_ context.Context, params ListParams) (ProductListResult, error) {
	if params.Page < 1 {
		params.Page = s.defaultPage
	}
	if params.Limit < 1 {
		params.Limit = s.defaultLimit
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.registry.Products()
	filtered := all[:0]
	for _, p := range all {
		if params.Variant != "" && p.Variant() != params.Variant {
			continue
		}
		filtered = append(filtered, p)
	}
	result := ProductListResult{Total: len(filtered), Page: params.Page, Limit: params.Limit, Items: []ProductView{}}
	start := (params.Page - 1) * params.Limit
	if start >= len(filtered) {
		return result, nil
	}
	end := start + params.Limit
	if end > len(filtered) {
		end = len(filtered)
	}
	for _, p := range filtered[start:end] {
		result.Items = append(result.Items, toView(p))
	}
	return result, nil
}

// GetProduct returns a single product by ID.
func (s *Service) GetProduct(_ context.Context, id string) (ProductView, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, err := s.lookup(id)
	if err != nil {
		return ProductView{}, err
	}
	return toView(p), nil
}

// View runs fn against a live product under the read lock. fn must not
// mutate the product or call back into the Service.
func (s *Service) View(_ context.Context, id string, fn func(*Product) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, err := s.lookup(id)
	if err != nil {
		return err
	}
	return fn(p)
}

// CreateProduct registers a new product. A requested ID that is already in
// use is a conflict; a blank ID is auto-assigned.
func (s *Service) CreateProduct(_ context.Context, in ProductInput) (ProductView, error) {
	variant, ok := ParseVariant(in.Variant)
	if !ok {
		return ProductView{}, validationFailed([]string{"variant"})
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var category *Category
	if in.CategoryID != nil {
		c, found := s.categories[*in.CategoryID]
		if !found {
			return ProductView{}, notFound("category", ErrCategoryNotFound)
		}
		category = c
	}

	requested := strings.TrimSpace(in.ID)
	if requested != "" && utf8.RuneCountInString(requested) < MinIDLength {
		return ProductView{}, validationFailed([]string{"id"})
	}
	if _, taken := s.registry.Lookup(requested); requested != "" && taken {
		return ProductView{}, conflict("DUPLICATE_ID", "product id already in use", fmt.Errorf("%w: %s", ErrDuplicateID, requested))
	}
	p := s.registry.create(variant, requested)
	if requested != "" && p.ID() != requested {
		s.registry.Release(p)
		return ProductView{}, conflict("DUPLICATE_ID", "product id already in use", fmt.Errorf("%w: %s", ErrDuplicateID, requested))
	}

	failed := s.applyInput(p, in)
	if len(failed) > 0 {
		s.registry.Release(p)
		return ProductView{}, validationFailed(failed)
	}
	if category != nil {
		p.TrySetCategory(category)
	}
	s.logger.Info().Str("product_id", p.ID()).Str("variant", string(variant)).Msg("catalog_product_created")
	return toView(p), nil
}

// UpdateProduct applies a partial update atomically: if any field is
// rejected, none of the fields change.
func (s *Service) UpdateProduct(_ context.Context, id string, in ProductUpdate) (ProductView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, err := s.lookup(id)
	if err != nil {
		return ProductView{}, err
	}

	var duplicate bool
	failed := p.mutate(func(p *Product) []string {
		var failed []string
		check := func(field string, ok bool) {
			if !ok {
				failed = append(failed, field)
			}
		}
		if in.Name != nil {
			check("name", p.TrySetName(*in.Name))
		}
		if in.Description != nil {
			check("description", p.TrySetDescription(*in.Description))
		}
		if in.Price != nil {
			check("price", p.TrySetPrice(*in.Price))
		}
		if in.Quantity != nil {
			check("quantity", p.TrySetQuantity(*in.Quantity))
		}
		if in.WeightKg != nil {
			check("weightKg", p.TrySetWeightKg(*in.WeightKg))
		}
		if in.Dimensions != nil {
			check("dimensions", p.TrySetDimensions(in.Dimensions.LengthCm, in.Dimensions.WidthCm, in.Dimensions.HeightCm))
		}
		if in.DownloadSizeMb != nil {
			check("downloadSizeMb", p.TrySetDownloadSizeMb(*in.DownloadSizeMb))
		}
		if in.LicenseKey != nil {
			check("licenseKey", p.TrySetLicenseKey(*in.LicenseKey))
		}
		// The ID goes last so a rejected field never leaves a renamed product behind.
		if len(failed) == 0 && in.ID != nil && strings.TrimSpace(*in.ID) != p.ID() {
			if !p.TrySetID(*in.ID) {
				if other, taken := s.registry.Lookup(*in.ID); taken && other != p {
					duplicate = true
				}
				failed = append(failed, "id")
			}
		}
		return failed
	})
	if duplicate {
		return ProductView{}, conflict("DUPLICATE_ID", "product id already in use", fmt.Errorf("%w: %s", ErrDuplicateID, strings.TrimSpace(*in.ID)))
	}
	if len(failed) > 0 {
		return ProductView{}, validationFailed(failed)
	}
	return toView(p), nil
}

// DeleteProduct unlinks the product from its category and frees its ID.
func (s *Service) DeleteProduct(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, err := s.lookup(id)
	if err != nil {
		return err
	}
	if c := p.Category(); c != nil {
		c.RemoveProduct(p)
	}
	s.registry.Release(p)
	s.logger.Info().Str("product_id", p.ID()).Msg("catalog_product_deleted")
	return nil
}

// AddStock increases inventory.
func (s *Service) AddStock(_ context.Context, id string, amount int) (ProductView, error) {
	return s.mutateOne(id, "amount", "amount must be positive and keep quantity within bounds", func(p *Product) bool {
		return p.AddStock(amount)
	})
}

// Sell removes inventory.
func (s *Service) Sell(_ context.Context, id string, amount int) (ProductView, error) {
	return s.mutateOne(id, "amount", "amount must be positive and not exceed stock", func(p *Product) bool {
		return p.Sell(amount)
	})
}

// ApplyDiscount permanently lowers the product price.
func (s *Service) ApplyDiscount(_ context.Context, id string, percent float64) (ProductView, error) {
	return s.mutateOne(id, "percent", "percent must be between 0 and 90", func(p *Product) bool {
		return p.ApplyDiscount(percent)
	})
}

// SetShippingPolicy swaps the shipping policy of a physical product.
func (s *Service) SetShippingPolicy(_ context.Context, id, policyID string) (ProductView, error) {
	policy, ok := s.resolveShipping(policyID)
	if !ok {
		return ProductView{}, &common.AppError{
			Code:       "UNKNOWN_SHIPPING_POLICY",
			Message:    "shipping policy not found",
			HTTPStatus: http.StatusNotFound,
			Err:        fmt.Errorf("%w: %s", ErrUnknownShippingPolicy, policyID),
			Details:    map[string]any{"shippingPolicyId": policyID},
		}
	}
	return s.mutateOne(id, "variant", "only physical products ship", func(p *Product) bool {
		return p.SetShippingPolicy(policy)
	})
}

// ListCategories returns categories ordered by ID.
func (s *Service) ListCategories(_ context.Context) ([]CategoryView, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]int, 0, len(s.categories))
	for id := range s.categories {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	out := make([]CategoryView, 0, len(ids))
	for _, id := range ids {
		out = append(out, toCategoryView(s.categories[id]))
	}
	return out, nil
}

// CreateCategory registers an empty category.
func (s *Service) CreateCategory(_ context.Context, in CategoryInput) (CategoryView, error) {
	name := strings.TrimSpace(in.Name)
	if utf8.RuneCountInString(name) < MinNameLength {
		return CategoryView{}, validationFailed([]string{"name"})
	}
	description := strings.TrimSpace(in.Description)
	if utf8.RuneCountInString(description) > MaxDescriptionLength {
		return CategoryView{}, validationFailed([]string{"description"})
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c := NewCategory(s.nextCategory, name, description)
	s.categories[c.ID()] = c
	s.nextCategory++
	return toCategoryView(c), nil
}

// AddToCategory links a product into a category, moving it if needed.
func (s *Service) AddToCategory(_ context.Context, categoryID int, productID string) (CategoryView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.categories[categoryID]
	if !ok {
		return CategoryView{}, notFound("category", ErrCategoryNotFound)
	}
	p, err := s.lookup(productID)
	if err != nil {
		return CategoryView{}, err
	}
	if !c.AddProduct(p) {
		return CategoryView{}, conflict("ALREADY_IN_CATEGORY", "product already in category", nil)
	}
	return toCategoryView(c), nil
}

// RemoveFromCategory unlinks a product from a category.
func (s *Service) RemoveFromCategory(_ context.Context, categoryID int, productID string) (CategoryView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.categories[categoryID]
	if !ok {
		return CategoryView{}, notFound("category", ErrCategoryNotFound)
	}
	p, err := s.lookup(productID)
	if err != nil {
		return CategoryView{}, err
	}
	if !c.RemoveProduct(p) {
		return CategoryView{}, notFound("product", ErrProductNotFound)
	}
	return toCategoryView(c), nil
}

// Stats reports catalog totals.
func (s *Service) Stats(_ context.Context) Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stats := Stats{
		LiveProducts:    s.registry.Len(),
		CreatedProducts: s.registry.Created(),
		Categories:      len(s.categories),
	}
	for _, p := range s.registry.Products() {
		stats.InventoryValue += p.TotalValue()
	}
	return stats
}

func (s *Service) mutateOne(id, field, message string, fn func(*Product) bool) (ProductView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, err := s.lookup(id)
	if err != nil {
		return ProductView{}, err
	}
	if !fn(p) {
		return ProductView{}, &common.AppError{
			Code:       "UNPROCESSABLE",
			Message:    message,
			HTTPStatus: http.StatusUnprocessableEntity,
			Err:        ErrInvalidProduct,
			Details:    map[string]any{"field": field},
		}
	}
	return toView(p), nil
}

func (s *Service) lookup(id string) (*Product, error) {
	p, ok := s.registry.Lookup(id)
	if !ok {
		return nil, notFound("product", fmt.Errorf("%w: %s", ErrProductNotFound, id))
	}
	return p, nil
}

func (s *Service) resolveShipping(id string) (shipping.Policy, bool) {
	if s.shipping == nil {
		return nil, false
	}
	return s.shipping.Shipping(strings.TrimSpace(id))
}

func (s *Service) applyInput(p *Product, in ProductInput) []string {
	var failed []string
	check := func(field string, ok bool) {
		if !ok {
			failed = append(failed, field)
		}
	}
	check("name", p.TrySetName(in.Name))
	check("description", p.TrySetDescription(in.Description))
	check("price", p.TrySetPrice(in.Price))
	check("quantity", p.TrySetQuantity(in.Quantity))

	if in.Physical != nil {
		if !p.IsPhysical() {
			failed = append(failed, "physical")
		} else {
			check("weightKg", p.TrySetWeightKg(in.Physical.WeightKg))
			check("dimensions", p.TrySetDimensions(in.Physical.LengthCm, in.Physical.WidthCm, in.Physical.HeightCm))
			if id := strings.TrimSpace(in.Physical.ShippingPolicyID); id != "" {
				policy, ok := s.resolveShipping(id)
				check("shippingPolicyId", ok && p.SetShippingPolicy(policy))
			}
		}
	}
	if in.Digital != nil {
		if !p.IsDigital() {
			failed = append(failed, "digital")
		} else {
			check("downloadSizeMb", p.TrySetDownloadSizeMb(in.Digital.DownloadSizeMb))
			check("licenseKey", p.TrySetLicenseKey(in.Digital.LicenseKey))
		}
	}
	return failed
}

func toView(p *Product) ProductView {
	view := ProductView{
		ID:          p.ID(),
		Name:        p.Name(),
		Description: p.Description(),
		Price:       p.Price(),
		Quantity:    p.Quantity(),
		Variant:     p.Variant(),
		StockStatus: p.StockStatus(),
		TotalValue:  p.TotalValue(),
		Revision:    p.Revision(),
	}
	if c := p.Category(); c != nil {
		id := c.ID()
		view.CategoryID = &id
	}
	switch {
	case p.IsPhysical():
		view.Physical = &PhysicalView{
			WeightKg:           p.WeightKg(),
			LengthCm:           p.LengthCm(),
			WidthCm:            p.WidthCm(),
			HeightCm:           p.HeightCm(),
			VolumetricWeightKg: shipping.VolumetricWeight(p),
			BillableWeightKg:   shipping.BillableWeight(p),
			ShippingPolicy:     p.ShippingPolicyName(),
		}
	case p.IsDigital():
		view.Digital = &DigitalView{
			DownloadSizeMb:  p.DownloadSizeMb(),
			LicenseRequired: p.LicenseRequired(),
		}
	}
	return view
}

func toCategoryView(c *Category) CategoryView {
	products := c.Products()
	ids := make([]string, 0, len(products))
	for _, p := range products {
		ids = append(ids, p.ID())
	}
	return CategoryView{
		ID:          c.ID(),
		Name:        c.Name(),
		Description: c.Description(),
		ProductIDs:  ids,
		TotalValue:  c.TotalValue(),
	}
}

func badRequest(field, message string, err error) *common.AppError {
	return &common.AppError{
		Code:       "BAD_REQUEST",
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
		Err:        err,
		Details: map[string]any{
			"field": field,
		},
	}
}

func validationFailed(fields []string) *common.AppError {
	return &common.AppError{
		Code:       "VALIDATION_FAILED",
		Message:    "one or more fields were rejected",
		HTTPStatus: http.StatusUnprocessableEntity,
		Err:        ErrInvalidProduct,
		Details: map[string]any{
			"fields": fields,
		},
	}
}

func notFound(what string, err error) *common.AppError {
	return &common.AppError{Code: "NOT_FOUND", Message: what + " not found", HTTPStatus: http.StatusNotFound, Err: err}
}

func conflict(code, message string, err error) *common.AppError {
	return &common.AppError{Code: code, Message: message, HTTPStatus: http.StatusConflict, Err: err}
}
