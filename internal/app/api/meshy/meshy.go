package meshy

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"time"

	"github.com/go-resty/resty/v2"

	"printforge/internal/app/api/provider"
)

const (
	defaultBaseURL = "https://api.meshy.ai"
	pollInterval   = 5 * time.Second
	taskCostUSD    = 0.30
)

// MeshyProvider converts images to 3D models through the Meshy image-to-3d
// API. The image travels inline as a data URI; the finished model is fetched
// from the task's model_urls.
type MeshyProvider struct {
	client *resty.Client
}

// NewMeshyProvider creates a provider using MESHY_BASE_URL and MESHY_API_KEY.
func NewMeshyProvider() *MeshyProvider {
	baseURL := os.Getenv("MESHY_BASE_URL")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &MeshyProvider{
		client: resty.New().SetBaseURL(baseURL),
	}
}

func (p *MeshyProvider) apiKey() string {
	return os.Getenv("MESHY_API_KEY")
}

// GetProviderInfo returns provider metadata.
func (p *MeshyProvider) GetProviderInfo() provider.ProviderInfo {
	return provider.ProviderInfo{
		Name:             "meshy",
		Type:             "image_to_model",
		Version:          "v2",
		SupportedFormats: []string{"stl", "obj", "glb"},
	}
}

// HealthCheck verifies credentials are configured and the API is reachable.
func (p *MeshyProvider) HealthCheck(ctx context.Context) error {
	if p.apiKey() == "" {
		return fmt.Errorf("MESHY_API_KEY is not set")
	}
	resp, err := p.client.R().
		SetContext(ctx).
		SetAuthToken(p.apiKey()).
		Get("/v2/image-to-3d")
	if err != nil {
		return fmt.Errorf("meshy unreachable: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("meshy health check failed: status %d", resp.StatusCode())
	}
	return nil
}

type createTaskResponse struct {
	Result string `json:"result"`
}

type taskStatusResponse struct {
	ID        string `json:"id"`
	Status    string `json:"status"`
	ModelURLs struct {
		STL string `json:"stl"`
		OBJ string `json:"obj"`
		GLB string `json:"glb"`
	} `json:"model_urls"`
	TaskError struct {
		Message string `json:"message"`
	} `json:"task_error"`
}

// Convert runs one conversion attempt against Meshy.
func (p *MeshyProvider) Convert(ctx context.Context, req *provider.ConversionRequest) (*provider.ConversionResult, error) {
	if p.apiKey() == "" {
		return nil, fmt.Errorf("MESHY_API_KEY is not set")
	}

	dataURI := "data:image/png;base64," + base64.StdEncoding.EncodeToString(req.Image)

	var created createTaskResponse
	resp, err := p.client.R().
		SetContext(ctx).
		SetAuthToken(p.apiKey()).
		SetBody(map[string]interface{}{
			"image_url": dataURI,
			"enable_pbr": false,
			"ai_model":  "meshy-4",
		}).
		SetResult(&created).
		Post("/v2/image-to-3d")
	if err != nil {
		return nil, fmt.Errorf("meshy task creation failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("meshy task rejected: status %d", resp.StatusCode())
	}

	modelURL, raw, err := p.pollTask(ctx, created.Result)
	if err != nil {
		return nil, err
	}

	modelResp, err := p.client.R().SetContext(ctx).Get(modelURL)
	if err != nil {
		return nil, fmt.Errorf("meshy model download failed: %w", err)
	}
	if modelResp.IsError() {
		return nil, fmt.Errorf("meshy model download rejected: status %d", modelResp.StatusCode())
	}

	return &provider.ConversionResult{
		Model:       modelResp.Body(),
		Format:      "stl",
		CostUSD:     taskCostUSD,
		RawResponse: raw,
	}, nil
}

func (p *MeshyProvider) pollTask(ctx context.Context, taskID string) (modelURL, raw string, err error) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return "", "", fmt.Errorf("meshy task %s timed out: %w", taskID, ctx.Err())
		case <-ticker.C:
		}

		var task taskStatusResponse
		resp, err := p.client.R().
			SetContext(ctx).
			SetAuthToken(p.apiKey()).
			SetResult(&task).
			Get("/v2/image-to-3d/" + taskID)
		if err != nil {
			return "", "", fmt.Errorf("meshy task poll failed: %w", err)
		}
		if resp.IsError() {
			return "", "", fmt.Errorf("meshy task poll rejected: status %d", resp.StatusCode())
		}

		switch task.Status {
		case "SUCCEEDED":
			if task.ModelURLs.STL != "" {
				return task.ModelURLs.STL, string(resp.Body()), nil
			}
			return task.ModelURLs.GLB, string(resp.Body()), nil
		case "FAILED", "CANCELED":
			return "", "", fmt.Errorf("meshy task %s failed: %s", taskID, task.TaskError.Message)
		}
	}
}
