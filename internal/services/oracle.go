package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"codearena/internal/logger"

	"go.uber.org/zap"
)

// ErrOracleUnavailable marks a transport failure while talking to the
// verdict oracle: network error, timeout, or an undecodable response. It is
// distinct from any verdict; callers must never persist it as one.
var ErrOracleUnavailable = errors.New("verdict oracle unavailable")

type CaseOutcome int

const (
	CasePassed CaseOutcome = iota
	CaseWrongAnswer
	CaseTimeLimit
)

// OracleRunner executes a single hidden test case against the remote
// verdict oracle. The oracle compares the program output against the
// expected output itself and reports a status code.
type OracleRunner interface {
	RunTestCase(ctx context.Context, sourceCode string, languageID int, stdin, expectedOutput string) (CaseOutcome, error)
}

type OracleClient struct {
	baseURL        string
	token          string
	acceptedStatus int
	tleStatus      int
	timeout        time.Duration
	httpClient     *http.Client
}

// NewOracleClient builds a client for a Judge0-shaped oracle API. The
// accepted and time-limit status IDs are injected so a different judging
// backend can be plugged in without code changes.
func NewOracleClient(baseURL, token string, acceptedStatus, tleStatus int, timeout time.Duration) *OracleClient {
	return &OracleClient{
		baseURL:        baseURL,
		token:          token,
		acceptedStatus: acceptedStatus,
		tleStatus:      tleStatus,
		timeout:        timeout,
		httpClient:     &http.Client{Timeout: timeout},
	}
}

type oracleRequest struct {
	SourceCode     string `json:"source_code"`
	LanguageID     int    `json:"language_id"`
	Stdin          string `json:"stdin"`
	ExpectedOutput string `json:"expected_output"`
}

type oracleResponse struct {
	Status struct {
		ID          int    `json:"id"`
		Description string `json:"description"`
	} `json:"status"`
}

func (c *OracleClient) RunTestCase(ctx context.Context, sourceCode string, languageID int, stdin, expectedOutput string) (CaseOutcome, error) {
	body, err := json.Marshal(oracleRequest{
		SourceCode:     sourceCode,
		LanguageID:     languageID,
		Stdin:          stdin,
		ExpectedOutput: expectedOutput,
	})
	if err != nil {
		return CaseWrongAnswer, fmt.Errorf("failed to encode oracle request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	url := c.baseURL + "/submissions?base64_encoded=false&wait=true"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return CaseWrongAnswer, fmt.Errorf("failed to build oracle request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("X-Auth-Token", c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return CaseWrongAnswer, fmt.Errorf("%w: %v", ErrOracleUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return CaseWrongAnswer, fmt.Errorf("%w: unexpected HTTP status %d", ErrOracleUnavailable, resp.StatusCode)
	}

	var decoded oracleResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return CaseWrongAnswer, fmt.Errorf("%w: malformed response: %v", ErrOracleUnavailable, err)
	}

	logger.Log.Debug("Oracle verdict received",
		zap.Int("status_id", decoded.Status.ID),
		zap.String("description", decoded.Status.Description))

	switch decoded.Status.ID {
	case c.acceptedStatus:
		return CasePassed, nil
	case c.tleStatus:
		return CaseTimeLimit, nil
	default:
		return CaseWrongAnswer, nil
	}
}
