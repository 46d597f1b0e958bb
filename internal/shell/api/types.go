package api

import "time"

// =============================================================================
// Request Types
// =============================================================================

// CreateListingRequest is the request body for creating a listing.
type CreateListingRequest struct {
	Kind        string `json:"kind"`
	DisplayName string `json:"display_name"`
	Description string `json:"description,omitempty"`
	City        string `json:"city,omitempty"`
	Phone       string `json:"phone,omitempty"`
	Published   bool   `json:"published,omitempty"`
}

// UpdateListingRequest is the request body for updating a listing.
// Absent fields are left unchanged.
type UpdateListingRequest struct {
	DisplayName *string `json:"display_name,omitempty"`
	Description *string `json:"description,omitempty"`
	City        *string `json:"city,omitempty"`
	Phone       *string `json:"phone,omitempty"`
	Published   *bool   `json:"published,omitempty"`
}

// UpdateSlugRequest is the request body for the manual slug override.
type UpdateSlugRequest struct {
	Slug string `json:"slug"`
}

// UpsertFuelPriceRequest is the request body for updating a fuel price.
type UpsertFuelPriceRequest struct {
	Provider   string `json:"provider"`
	Fuel       string `json:"fuel"`
	PriceTetri int64  `json:"price_tetri"`
}

// =============================================================================
// Response Types
// =============================================================================

// ListingResponse is the response for listing operations.
type ListingResponse struct {
	ID           int64     `json:"id"`
	Kind         string    `json:"kind"`
	DisplayName  string    `json:"display_name"`
	Slug         string    `json:"slug"`
	SlugIsManual bool      `json:"slug_is_manual"`
	URL          string    `json:"url"`
	Description  string    `json:"description,omitempty"`
	City         string    `json:"city,omitempty"`
	Phone        string    `json:"phone,omitempty"`
	Published    bool      `json:"published"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ListListingsResponse is the response for listing collections.
type ListListingsResponse struct {
	Listings []ListingResponse `json:"listings"`
	Total    int               `json:"total"`
	Limit    int               `json:"limit"`
	Offset   int               `json:"offset"`
}

// SlugPreviewResponse is the response for the non-persisted slug preview.
// Unique=false means the uniqueness probe failed and the slug shown is the
// bare normalization, not safe to persist as-is.
type SlugPreviewResponse struct {
	Slug    string `json:"slug"`
	Unique  bool   `json:"unique"`
	Warning string `json:"warning,omitempty"`
}

// FuelPriceResponse is the response for fuel price entries.
type FuelPriceResponse struct {
	Provider   string    `json:"provider"`
	Fuel       string    `json:"fuel"`
	PriceTetri int64     `json:"price_tetri"`
	PriceGEL   float64   `json:"price_gel"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// ListFuelPricesResponse is the response for the fuel price comparison page.
type ListFuelPricesResponse struct {
	Prices []FuelPriceResponse `json:"prices"`
}

// HealthResponse is the health check response.
type HealthResponse struct {
	Status string `json:"status"`
}

// ReadyResponse is the readiness check response.
type ReadyResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// ErrorResponse is the error envelope for all failures.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}
