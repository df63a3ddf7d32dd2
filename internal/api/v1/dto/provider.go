package dto

import "printforge/internal/app/api/provider"

// ProviderResponse describes one registered conversion provider.
type ProviderResponse struct {
	Name             string   `json:"name"`
	Type             string   `json:"type"`
	Version          string   `json:"version"`
	SupportedFormats []string `json:"supported_formats"`
	Healthy          bool     `json:"healthy"`
}

// ProviderStatsResponse wraps the rolling per-provider counters.
type ProviderStatsResponse struct {
	Stats provider.ProviderStats `json:"stats"`
}
