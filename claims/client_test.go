package claims

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"claim-analyze-pipeline/models"
)

func newBackend(t *testing.T, submitStatus int, poll func(n int64) models.ClaimResult) (*httptest.Server, *int64) {
	t.Helper()
	var polls int64
	mux := http.NewServeMux()
	mux.HandleFunc("POST /claims", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(submitStatus)
		if submitStatus == http.StatusOK {
			json.NewEncoder(w).Encode(models.ClaimReceipt{ClaimID: "claim-1", Status: "pending"})
		}
	})
	mux.HandleFunc("GET /claims/", func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt64(&polls, 1)
		json.NewEncoder(w).Encode(poll(n))
	})
	return httptest.NewServer(mux), &polls
}

func TestProcessCompleted(t *testing.T) {
	srv, polls := newBackend(t, http.StatusOK, func(n int64) models.ClaimResult {
		if n < 3 {
			return models.ClaimResult{ClaimID: "claim-1", Status: models.ClaimPending}
		}
		return models.ClaimResult{
			ClaimID: "claim-1",
			Status:  models.ClaimCompleted,
			Result: &models.AnalysisResult{
				CredibilityScore: 88,
				Explanation:      "Backed by several reliable outlets.",
			},
		}
	})
	defer srv.Close()

	client := NewClient(srv.URL, 30, time.Millisecond)
	result, err := client.Process(context.Background(), models.ClaimSubmission{Text: "some claim"})
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if result.CredibilityScore != 88 {
		t.Errorf("CredibilityScore = %d, want 88", result.CredibilityScore)
	}
	// Normalize fills in the level the backend omitted.
	if result.CredibilityLevel != models.LevelHigh {
		t.Errorf("CredibilityLevel = %q, want %q", result.CredibilityLevel, models.LevelHigh)
	}
	if got := atomic.LoadInt64(polls); got != 3 {
		t.Errorf("polls = %d, want 3", got)
	}
}

func TestWaitForResultTimesOut(t *testing.T) {
	srv, polls := newBackend(t, http.StatusOK, func(n int64) models.ClaimResult {
		return models.ClaimResult{ClaimID: "claim-1", Status: models.ClaimPending}
	})
	defer srv.Close()

	client := NewClient(srv.URL, 30, time.Millisecond)
	_, err := client.Process(context.Background(), models.ClaimSubmission{Text: "never finishes"})
	if !errors.Is(err, ErrTimedOut) {
		t.Fatalf("Process() error = %v, want ErrTimedOut", err)
	}
	if errors.Is(err, ErrPollFailed) {
		t.Error("timeout should not also be a poll failure")
	}
	if got := atomic.LoadInt64(polls); got != 30 {
		t.Errorf("polls = %d, want exactly 30", got)
	}
}

func TestSubmitFailureSkipsPolling(t *testing.T) {
	srv, polls := newBackend(t, http.StatusInternalServerError, func(n int64) models.ClaimResult {
		return models.ClaimResult{}
	})
	defer srv.Close()

	client := NewClient(srv.URL, 30, time.Millisecond)
	_, err := client.Process(context.Background(), models.ClaimSubmission{Text: "x"})
	if !errors.Is(err, ErrSubmitFailed) {
		t.Fatalf("Process() error = %v, want ErrSubmitFailed", err)
	}
	if got := atomic.LoadInt64(polls); got != 0 {
		t.Errorf("polls = %d, want 0 after failed submit", got)
	}
}

func TestSubmitRejectsEmptyClaimID(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /claims", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(models.ClaimReceipt{Status: "pending"})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := NewClient(srv.URL, 30, time.Millisecond)
	if _, err := client.Submit(context.Background(), models.ClaimSubmission{Text: "x"}); !errors.Is(err, ErrSubmitFailed) {
		t.Fatalf("Submit() error = %v, want ErrSubmitFailed", err)
	}
}

func TestBackendFailureIsNotTimeout(t *testing.T) {
	srv, polls := newBackend(t, http.StatusOK, func(n int64) models.ClaimResult {
		return models.ClaimResult{ClaimID: "claim-1", Status: models.ClaimFailed, Error: "analysis crashed"}
	})
	defer srv.Close()

	client := NewClient(srv.URL, 30, time.Millisecond)
	_, err := client.Process(context.Background(), models.ClaimSubmission{Text: "x"})
	if !errors.Is(err, ErrPollFailed) {
		t.Fatalf("Process() error = %v, want ErrPollFailed", err)
	}
	if errors.Is(err, ErrTimedOut) {
		t.Error("backend failure should not be reported as a timeout")
	}
	if got := atomic.LoadInt64(polls); got != 1 {
		t.Errorf("polls = %d, want 1 (failed status stops polling)", got)
	}
}

func TestCompletedWithoutResultFails(t *testing.T) {
	srv, _ := newBackend(t, http.StatusOK, func(n int64) models.ClaimResult {
		return models.ClaimResult{ClaimID: "claim-1", Status: models.ClaimCompleted}
	})
	defer srv.Close()

	client := NewClient(srv.URL, 30, time.Millisecond)
	if _, err := client.Process(context.Background(), models.ClaimSubmission{Text: "x"}); !errors.Is(err, ErrPollFailed) {
		t.Fatalf("Process() error = %v, want ErrPollFailed", err)
	}
}

func TestWaitForResultHonorsContext(t *testing.T) {
	srv, _ := newBackend(t, http.StatusOK, func(n int64) models.ClaimResult {
		return models.ClaimResult{ClaimID: "claim-1", Status: models.ClaimPending}
	})
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := NewClient(srv.URL, 30, time.Hour)
	if _, err := client.WaitForResult(ctx, "claim-1"); !errors.Is(err, ErrPollFailed) {
		t.Fatalf("WaitForResult() error = %v, want ErrPollFailed on cancellation", err)
	}
}
