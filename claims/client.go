package claims

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"claim-analyze-pipeline/metrics"
	"claim-analyze-pipeline/models"
)

// Terminal poller failures. Timeout and generic poll failure are distinct
// so callers can report them separately.
var (
	ErrSubmitFailed = errors.New("claim submit failed")
	ErrPollFailed   = errors.New("claim poll failed")
	ErrTimedOut     = errors.New("claim polling timed out")
)

const (
	defaultMaxAttempts  = 30
	defaultPollInterval = 1 * time.Second
)

// Client submits claims to the backend job queue and polls for results.
// The backend owns the authoritative claim state; this client only observes
// status transitions.
type Client struct {
	baseURL      string
	http         *http.Client
	maxAttempts  int
	pollInterval time.Duration
}

// NewClient creates a poller client for the backend claim API. maxAttempts
// and pollInterval fall back to the defaults (30 attempts, 1s) when zero.
func NewClient(baseURL string, maxAttempts int, pollInterval time.Duration) *Client {
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}
	return &Client{
		baseURL:      baseURL,
		http:         &http.Client{Timeout: 30 * time.Second},
		maxAttempts:  maxAttempts,
		pollInterval: pollInterval,
	}
}

// Submit sends content to the backend and returns the claim identifier.
// Any transport or application error wraps ErrSubmitFailed; no poll is
// attempted after a failed submit.
func (c *Client) Submit(ctx context.Context, submission models.ClaimSubmission) (string, error) {
	body, err := json.Marshal(submission)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSubmitFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/claims", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSubmitFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSubmitFailed, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSubmitFailed, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: status %d: %s", ErrSubmitFailed, resp.StatusCode, string(data))
	}

	var receipt models.ClaimReceipt
	if err := json.Unmarshal(data, &receipt); err != nil {
		return "", fmt.Errorf("%w: %v", ErrSubmitFailed, err)
	}
	if receipt.ClaimID == "" {
		return "", fmt.Errorf("%w: empty claim id", ErrSubmitFailed)
	}
	return receipt.ClaimID, nil
}

// GetResult performs a single poll of the claim status. Unknown statuses
// are treated as still pending.
func (c *Client) GetResult(ctx context.Context, claimID string) (*models.ClaimResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/claims/"+claimID, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPollFailed, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPollFailed, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPollFailed, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: status %d: %s", ErrPollFailed, resp.StatusCode, string(data))
	}

	var result models.ClaimResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPollFailed, err)
	}
	return &result, nil
}

// WaitForResult polls the claim until it completes, issuing at most
// maxAttempts polls with a fixed delay between them. A claim that never
// completes within the attempt limit yields ErrTimedOut; a poll transport
// error or a failed backend status yields ErrPollFailed immediately.
// Cancelling the context stops further attempts.
func (c *Client) WaitForResult(ctx context.Context, claimID string) (*models.AnalysisResult, error) {
	timer := time.NewTimer(0)
	defer timer.Stop()

	attempts := 0
	defer func() { metrics.ClaimPollAttempts.Observe(float64(attempts)) }()

	for attempts < c.maxAttempts {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %v", ErrPollFailed, ctx.Err())
		case <-timer.C:
		}

		attempts++
		result, err := c.GetResult(ctx, claimID)
		if err != nil {
			return nil, err
		}

		switch result.Status {
		case models.ClaimCompleted:
			if result.Result == nil {
				return nil, fmt.Errorf("%w: completed claim %s has no result", ErrPollFailed, claimID)
			}
			result.Result.Normalize()
			return result.Result, nil
		case models.ClaimFailed:
			return nil, fmt.Errorf("%w: backend reported failure for claim %s: %s", ErrPollFailed, claimID, result.Error)
		}

		timer.Reset(c.pollInterval)
	}

	return nil, fmt.Errorf("%w: claim %s still pending after %d attempts", ErrTimedOut, claimID, c.maxAttempts)
}

// Process submits the content and waits for the backend verdict. This is
// the client-side replacement for the direct invoke/extract pair when
// analysis is delegated to the backend job queue.
func (c *Client) Process(ctx context.Context, submission models.ClaimSubmission) (*models.AnalysisResult, error) {
	claimID, err := c.Submit(ctx, submission)
	if err != nil {
		return nil, err
	}
	return c.WaitForResult(ctx, claimID)
}
