package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newOracleServer(t *testing.T, statusID int, handler func(r *oracleRequest)) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req oracleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("failed to decode oracle request: %v", err)
		}
		if handler != nil {
			handler(&req)
		}

		resp := oracleResponse{}
		resp.Status.ID = statusID
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

func TestOracleClientMapsAcceptedStatus(t *testing.T) {
	var seen oracleRequest
	server := newOracleServer(t, 3, func(r *oracleRequest) { seen = *r })
	defer server.Close()

	client := NewOracleClient(server.URL, "", 3, 5, time.Second)

	outcome, err := client.RunTestCase(context.Background(), "print(input())", 71, "42", "42")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome != CasePassed {
		t.Fatalf("unexpected outcome: %d", outcome)
	}

	if seen.SourceCode != "print(input())" || seen.LanguageID != 71 {
		t.Fatalf("unexpected request payload: %+v", seen)
	}
	if seen.Stdin != "42" || seen.ExpectedOutput != "42" {
		t.Fatalf("unexpected test case payload: %+v", seen)
	}
}

func TestOracleClientMapsTimeLimitStatus(t *testing.T) {
	server := newOracleServer(t, 5, nil)
	defer server.Close()

	client := NewOracleClient(server.URL, "", 3, 5, time.Second)

	outcome, err := client.RunTestCase(context.Background(), "while True: pass", 71, "", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome != CaseTimeLimit {
		t.Fatalf("unexpected outcome: %d", outcome)
	}
}

func TestOracleClientMapsOtherStatusesToWrongAnswer(t *testing.T) {
	server := newOracleServer(t, 4, nil)
	defer server.Close()

	client := NewOracleClient(server.URL, "", 3, 5, time.Second)

	outcome, err := client.RunTestCase(context.Background(), "print(0)", 71, "", "1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome != CaseWrongAnswer {
		t.Fatalf("unexpected outcome: %d", outcome)
	}
}

func TestOracleClientConfigurableStatusMapping(t *testing.T) {
	// A swapped backend that reports success as 1 and time limit as 9
	server := newOracleServer(t, 9, nil)
	defer server.Close()

	client := NewOracleClient(server.URL, "", 1, 9, time.Second)

	outcome, err := client.RunTestCase(context.Background(), "code", 1, "", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome != CaseTimeLimit {
		t.Fatalf("expected remapped time limit outcome, got %d", outcome)
	}
}

func TestOracleClientHTTPErrorIsTransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewOracleClient(server.URL, "", 3, 5, time.Second)

	if _, err := client.RunTestCase(context.Background(), "code", 1, "", ""); !errors.Is(err, ErrOracleUnavailable) {
		t.Fatalf("expected ErrOracleUnavailable, got %v", err)
	}
}

func TestOracleClientMalformedBodyIsTransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer server.Close()

	client := NewOracleClient(server.URL, "", 3, 5, time.Second)

	if _, err := client.RunTestCase(context.Background(), "code", 1, "", ""); !errors.Is(err, ErrOracleUnavailable) {
		t.Fatalf("expected ErrOracleUnavailable, got %v", err)
	}
}

func TestOracleClientUnreachableHostIsTransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // Shut down before the call

	client := NewOracleClient(server.URL, "", 3, 5, time.Second)

	if _, err := client.RunTestCase(context.Background(), "code", 1, "", ""); !errors.Is(err, ErrOracleUnavailable) {
		t.Fatalf("expected ErrOracleUnavailable, got %v", err)
	}
}

func TestOracleClientTimeoutIsTransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	client := NewOracleClient(server.URL, "", 3, 5, 20*time.Millisecond)

	if _, err := client.RunTestCase(context.Background(), "code", 1, "", ""); !errors.Is(err, ErrOracleUnavailable) {
		t.Fatalf("expected ErrOracleUnavailable on timeout, got %v", err)
	}
}
