package printer

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"

	"printforge/internal/app/model"
)

// SubmissionAck is the print service's acknowledgement of a new job.
type SubmissionAck struct {
	ExternalID       string `json:"external_id"`
	EstimatedMinutes int    `json:"estimated_minutes"`
	RawResponse      string `json:"raw_response,omitempty"`
}

// JobStatusReport is one externally reported job status, from either the
// polling path or a webhook delivery.
type JobStatusReport struct {
	Status           model.PrintJobStatus `json:"status"`
	ErrorMessage     string               `json:"error_message,omitempty"`
	EstimatedMinutes int                  `json:"estimated_minutes,omitempty"`
	RawResponse      string               `json:"raw_response,omitempty"`
}

// PrintServiceClient is the outbound contract to the print/slicing service.
type PrintServiceClient interface {
	Submit(ctx context.Context, jobID, artifactPath, fileName string, settings model.PrintSettings) (*SubmissionAck, error)
	QueryStatus(ctx context.Context, jobID string) (*JobStatusReport, error)
}

// HTTPPrintServiceClient implements PrintServiceClient over the service's
// REST API.
type HTTPPrintServiceClient struct {
	client *resty.Client
}

// NewHTTPPrintServiceClient builds a client from PRINT_SERVICE_URL and
// PRINT_SERVICE_API_KEY.
func NewHTTPPrintServiceClient() *HTTPPrintServiceClient {
	baseURL := os.Getenv("PRINT_SERVICE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8090"
	}
	timeout := 30 * time.Second
	if v := os.Getenv("PRINT_SERVICE_TIMEOUT_SEC"); v != "" {
		if d, err := time.ParseDuration(v + "s"); err == nil {
			timeout = d
		}
	}
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetAuthToken(os.Getenv("PRINT_SERVICE_API_KEY"))
	return &HTTPPrintServiceClient{client: client}
}

type submitResponse struct {
	JobID            string `json:"job_id"`
	EstimatedMinutes int    `json:"estimated_minutes"`
}

// Submit registers the job with the print service.
func (c *HTTPPrintServiceClient) Submit(ctx context.Context, jobID, artifactPath, fileName string, settings model.PrintSettings) (*SubmissionAck, error) {
	var result submitResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(map[string]interface{}{
			"job_id":        jobID,
			"artifact_path": artifactPath,
			"file_name":     fileName,
			"settings":      settings,
		}).
		SetResult(&result).
		Post("/v1/jobs")
	if err != nil {
		return nil, fmt.Errorf("print service submission failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("print service rejected submission: status %d: %s", resp.StatusCode(), resp.String())
	}
	return &SubmissionAck{
		ExternalID:       result.JobID,
		EstimatedMinutes: result.EstimatedMinutes,
		RawResponse:      resp.String(),
	}, nil
}

type statusResponse struct {
	Status           string `json:"status"`
	ErrorMessage     string `json:"error_message"`
	EstimatedMinutes int    `json:"estimated_minutes"`
}

// QueryStatus asks the print service for the job's current state.
func (c *HTTPPrintServiceClient) QueryStatus(ctx context.Context, jobID string) (*JobStatusReport, error) {
	var result statusResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetResult(&result).
		Get("/v1/jobs/" + jobID)
	if err != nil {
		return nil, fmt.Errorf("print service status query failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("print service status query rejected: status %d", resp.StatusCode())
	}

	status := model.PrintJobStatus(strings.ToLower(result.Status))
	if !status.Valid() {
		return nil, fmt.Errorf("print service reported unknown status %q", result.Status)
	}
	return &JobStatusReport{
		Status:           status,
		ErrorMessage:     result.ErrorMessage,
		EstimatedMinutes: result.EstimatedMinutes,
		RawResponse:      resp.String(),
	}, nil
}

// MockPrintServiceClient implements PrintServiceClient for tests.
type MockPrintServiceClient struct {
	mu          sync.Mutex
	SubmitErr   error
	StatusErr   error
	Reports     map[string]*JobStatusReport
	Submissions []string
}

func NewMockPrintServiceClient() *MockPrintServiceClient {
	return &MockPrintServiceClient{Reports: make(map[string]*JobStatusReport)}
}

func (c *MockPrintServiceClient) Submit(ctx context.Context, jobID, artifactPath, fileName string, settings model.PrintSettings) (*SubmissionAck, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.SubmitErr != nil {
		return nil, c.SubmitErr
	}
	c.Submissions = append(c.Submissions, jobID)
	return &SubmissionAck{ExternalID: "ext-" + jobID, EstimatedMinutes: 90, RawResponse: `{"accepted":true}`}, nil
}

func (c *MockPrintServiceClient) QueryStatus(ctx context.Context, jobID string) (*JobStatusReport, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.StatusErr != nil {
		return nil, c.StatusErr
	}
	report, ok := c.Reports[jobID]
	if !ok {
		return nil, fmt.Errorf("unknown job %s", jobID)
	}
	return report, nil
}

// SetReport sets the status the mock returns for a job.
func (c *MockPrintServiceClient) SetReport(jobID string, report *JobStatusReport) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Reports[jobID] = report
}
