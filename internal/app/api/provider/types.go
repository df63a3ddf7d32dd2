package provider

// ConversionRequest is one image-to-3D conversion attempt handed to a provider.
type ConversionRequest struct {
	ConversionID string `json:"conversion_id"`
	Image        []byte `json:"-"`
	ImageName    string `json:"image_name"`
	Description  string `json:"description,omitempty"`
}

// ConversionResult is the model artifact a provider produced.
type ConversionResult struct {
	Model       []byte  `json:"-"`
	Format      string  `json:"format"`
	CostUSD     float64 `json:"cost_usd"`
	RawResponse string  `json:"raw_response,omitempty"`
}

// ProviderInfo describes a registered provider.
type ProviderInfo struct {
	Name             string   `json:"name"`
	Type             string   `json:"type"`
	Version          string   `json:"version"`
	SupportedFormats []string `json:"supported_formats"`
}

// ProviderStats contains statistics for a specific provider
type ProviderStats struct {
	Provider           string           `json:"provider"`
	TotalRequests      int64            `json:"total_requests"`
	SuccessfulRequests int64            `json:"successful_requests"`
	FailedRequests     int64            `json:"failed_requests"`
	SuccessRate        float64          `json:"success_rate"`
	AverageLatencyMs   float64          `json:"average_latency_ms"`
	LastUsed           int64            `json:"last_used_timestamp"`
	IsHealthy          bool             `json:"is_healthy"`
	ErrorBreakdown     map[string]int64 `json:"error_breakdown"`
}
