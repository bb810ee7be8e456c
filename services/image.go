package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"dashchat/apperrors"
)

const (
	imageSynthesisPath = "/api/v1/services/aigc/text2image/image-synthesis"
	taskQueryPath      = "/api/v1/tasks/"
	imageModel         = "wanx2.1-t2i-turbo"

	// DefaultSize is the image size used when the request omits one.
	DefaultSize = "1024*1024"
)

// Task states reported by the provider.
const (
	taskPending   = "PENDING"
	taskRunning   = "RUNNING"
	taskSucceeded = "SUCCEEDED"
	taskFailed    = "FAILED"
	taskCanceled  = "CANCELED"
)

// ImageClient submits image synthesis tasks and polls them to completion.
// It is a pure client over network calls plus a cancellation-aware sleep;
// it never touches the history store.
type ImageClient struct {
	apiKey     string
	baseURL    string
	client     *http.Client
	interval   time.Duration
	maxRetries int
	sleep      func(ctx context.Context, d time.Duration) error
}

// NewImageClient creates an image synthesis client polling every interval,
// up to maxRetries status queries per task. An empty baseURL selects the
// production DashScope host.
func NewImageClient(apiKey, baseURL string, interval time.Duration, maxRetries int) *ImageClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &ImageClient{
		apiKey:     apiKey,
		baseURL:    baseURL,
		client:     &http.Client{Timeout: 30 * time.Second},
		interval:   interval,
		maxRetries: maxRetries,
		sleep:      sleepContext,
	}
}

type synthesisRequest struct {
	Model string `json:"model"`
	Input struct {
		Prompt         string `json:"prompt"`
		NegativePrompt string `json:"negative_prompt"`
	} `json:"input"`
	Parameters struct {
		Size string `json:"size"`
		N    int    `json:"n"`
	} `json:"parameters"`
}

type taskOutput struct {
	TaskID     string `json:"task_id"`
	TaskStatus string `json:"task_status"`
	Message    string `json:"message"`
	Results    []struct {
		URL string `json:"url"`
	} `json:"results"`
}

type taskResponse struct {
	Output taskOutput `json:"output"`
}

// Generate runs one image synthesis task to a terminal state and returns the
// image URL. It blocks for up to interval*maxRetries between submission and
// resolution.
func (c *ImageClient) Generate(ctx context.Context, prompt, negativePrompt, size string) (string, error) {
	if c.apiKey == "" {
		return "", &apperrors.ConfigurationError{Msg: "API key is not configured"}
	}
	if size == "" {
		size = DefaultSize
	}

	task, err := c.submit(ctx, prompt, negativePrompt, size)
	if err != nil {
		return "", err
	}

	status := task.TaskStatus
	if status == "" {
		status = taskPending
	}

	attempts := 0
	for status == taskPending || status == taskRunning {
		if attempts >= c.maxRetries {
			log.Printf("Image task %s timed out after %d status queries", task.TaskID, attempts)
			return "", &apperrors.TimeoutError{Attempts: attempts}
		}
		attempts++

		if err := c.sleep(ctx, c.interval); err != nil {
			return "", err
		}

		polled, err := c.queryTask(ctx, task.TaskID)
		if err != nil {
			// A failed status check is inconclusive, not a failed task.
			// The attempt still counts against the budget.
			log.Printf("Failed to query image task %s (attempt %d): %v", task.TaskID, attempts, err)
			continue
		}
		task = polled
		status = task.TaskStatus
	}

	switch status {
	case taskSucceeded:
		if len(task.Results) == 0 || task.Results[0].URL == "" {
			return "", &apperrors.ResultMissingError{}
		}
		return task.Results[0].URL, nil
	case taskFailed, taskCanceled:
		msg := "Image generation task failed or was canceled."
		if task.Message != "" {
			msg = fmt.Sprintf("%s %s", msg, task.Message)
		}
		return "", &apperrors.GenerationFailedError{Msg: msg}
	default:
		return "", &apperrors.GenerationFailedError{
			Msg: fmt.Sprintf("Image generation task finished with an unexpected status: %s", status),
		}
	}
}

// submit starts an asynchronous synthesis task and returns its initial
// output. A 2xx response without a task id is a submission failure.
func (c *ImageClient) submit(ctx context.Context, prompt, negativePrompt, size string) (*taskOutput, error) {
	var reqBody synthesisRequest
	reqBody.Model = imageModel
	reqBody.Input.Prompt = prompt
	reqBody.Input.NegativePrompt = negativePrompt
	reqBody.Parameters.Size = size
	reqBody.Parameters.N = 1

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal synthesis request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+imageSynthesisPath, bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create synthesis request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("X-DashScope-Async", "enable")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to submit synthesis request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read synthesis response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, providerError(resp.StatusCode, body)
	}

	var taskResp taskResponse
	if err := json.Unmarshal(body, &taskResp); err != nil {
		return nil, fmt.Errorf("failed to parse synthesis response: %w", err)
	}
	if taskResp.Output.TaskID == "" {
		return nil, &apperrors.SubmissionError{Msg: "no task_id returned from DashScope"}
	}
	return &taskResp.Output, nil
}

func (c *ImageClient) queryTask(ctx context.Context, taskID string) (*taskOutput, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+taskQueryPath+taskID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create task query: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to query task: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read task status: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("task query returned status %d", resp.StatusCode)
	}

	var taskResp taskResponse
	if err := json.Unmarshal(body, &taskResp); err != nil {
		return nil, fmt.Errorf("failed to parse task status: %w", err)
	}
	return &taskResp.Output, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
