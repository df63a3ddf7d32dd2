package tripo

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"time"

	"github.com/go-resty/resty/v2"

	"printforge/internal/app/api/provider"
)

const (
	defaultBaseURL = "https://api.tripo3d.ai"
	pollInterval   = 3 * time.Second
	taskCostUSD    = 0.25
)

// TripoProvider converts images to 3D models through the Tripo task API:
// upload the image, create an image_to_model task, poll until it settles,
// then download the produced model.
type TripoProvider struct {
	client *resty.Client
}

// NewTripoProvider creates a provider using TRIPO_BASE_URL and TRIPO_API_KEY.
func NewTripoProvider() *TripoProvider {
	baseURL := os.Getenv("TRIPO_BASE_URL")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &TripoProvider{
		client: resty.New().SetBaseURL(baseURL),
	}
}

func (p *TripoProvider) apiKey() string {
	return os.Getenv("TRIPO_API_KEY")
}

// GetProviderInfo returns provider metadata.
func (p *TripoProvider) GetProviderInfo() provider.ProviderInfo {
	return provider.ProviderInfo{
		Name:             "tripo",
		Type:             "image_to_model",
		Version:          "v2",
		SupportedFormats: []string{"stl", "glb"},
	}
}

// HealthCheck verifies credentials are configured and the API is reachable.
func (p *TripoProvider) HealthCheck(ctx context.Context) error {
	if p.apiKey() == "" {
		return fmt.Errorf("TRIPO_API_KEY is not set")
	}
	resp, err := p.client.R().
		SetContext(ctx).
		SetAuthToken(p.apiKey()).
		Get("/v2/openapi/user/balance")
	if err != nil {
		return fmt.Errorf("tripo unreachable: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("tripo health check failed: status %d", resp.StatusCode())
	}
	return nil
}

type uploadResponse struct {
	Code int `json:"code"`
	Data struct {
		ImageToken string `json:"image_token"`
	} `json:"data"`
}

type taskResponse struct {
	Code int `json:"code"`
	Data struct {
		TaskID string `json:"task_id"`
		Status string `json:"status"`
		Output struct {
			Model string `json:"model"`
		} `json:"output"`
	} `json:"data"`
}

// Convert runs one conversion attempt against Tripo.
func (p *TripoProvider) Convert(ctx context.Context, req *provider.ConversionRequest) (*provider.ConversionResult, error) {
	if p.apiKey() == "" {
		return nil, fmt.Errorf("TRIPO_API_KEY is not set")
	}

	var upload uploadResponse
	resp, err := p.client.R().
		SetContext(ctx).
		SetAuthToken(p.apiKey()).
		SetFileReader("file", req.ImageName, bytes.NewReader(req.Image)).
		SetResult(&upload).
		Post("/v2/openapi/upload")
	if err != nil {
		return nil, fmt.Errorf("tripo upload failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("tripo upload rejected: status %d", resp.StatusCode())
	}

	var created taskResponse
	resp, err = p.client.R().
		SetContext(ctx).
		SetAuthToken(p.apiKey()).
		SetBody(map[string]interface{}{
			"type": "image_to_model",
			"file": map[string]string{"type": "png", "file_token": upload.Data.ImageToken},
			"prompt": req.Description,
		}).
		SetResult(&created).
		Post("/v2/openapi/task")
	if err != nil {
		return nil, fmt.Errorf("tripo task creation failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("tripo task rejected: status %d", resp.StatusCode())
	}

	modelURL, raw, err := p.pollTask(ctx, created.Data.TaskID)
	if err != nil {
		return nil, err
	}

	modelResp, err := p.client.R().SetContext(ctx).Get(modelURL)
	if err != nil {
		return nil, fmt.Errorf("tripo model download failed: %w", err)
	}
	if modelResp.IsError() {
		return nil, fmt.Errorf("tripo model download rejected: status %d", modelResp.StatusCode())
	}

	return &provider.ConversionResult{
		Model:       modelResp.Body(),
		Format:      "stl",
		CostUSD:     taskCostUSD,
		RawResponse: raw,
	}, nil
}

func (p *TripoProvider) pollTask(ctx context.Context, taskID string) (modelURL, raw string, err error) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return "", "", fmt.Errorf("tripo task %s timed out: %w", taskID, ctx.Err())
		case <-ticker.C:
		}

		var task taskResponse
		resp, err := p.client.R().
			SetContext(ctx).
			SetAuthToken(p.apiKey()).
			SetResult(&task).
			Get("/v2/openapi/task/" + taskID)
		if err != nil {
			return "", "", fmt.Errorf("tripo task poll failed: %w", err)
		}
		if resp.IsError() {
			return "", "", fmt.Errorf("tripo task poll rejected: status %d", resp.StatusCode())
		}

		switch task.Data.Status {
		case "success":
			return task.Data.Output.Model, string(resp.Body()), nil
		case "failed", "cancelled", "banned":
			return "", "", fmt.Errorf("tripo task %s ended in state %q", taskID, task.Data.Status)
		}
	}
}
