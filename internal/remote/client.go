// Package remote is the client of the static-analysis service: it submits
// documents, polls analysis jobs and sends feedback on findings.
package remote

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-hclog"

	"github.com/scan-io-git/scanio-ide/internal/config"
	"github.com/scan-io-git/scanio-ide/internal/findings"
	"github.com/scan-io-git/scanio-ide/pkg/shared/httpclient"
)

const (
	submitFilePath  = "/submit/file"
	jobStatusPath   = "/submit/status/{jobId}"
	feedbackPath    = "/feedback/problem/{problemId}"
	sessionPath     = "/session"
	apiKeyHeader    = "X-API-KEY"
	submissionField = "upload"
)

// JobStatus is the state of a remote analysis job.
type JobStatus string

const (
	JobPending  JobStatus = "pending"
	JobRunning  JobStatus = "running"
	JobComplete JobStatus = "complete"
	JobFailed   JobStatus = "failed"
)

// JobStatusResponse is returned by both submit and status calls.
type JobStatusResponse struct {
	JobID   string                `json:"jobId"`
	Status  JobStatus             `json:"status" validate:"required,oneof=pending running complete failed"`
	Results []findings.RawFinding `json:"results,omitempty"`
}

// FeedbackPayload tells the service how the user disposed of a finding.
type FeedbackPayload struct {
	ProblemID string `json:"-" validate:"required"`
	Discarded bool   `json:"discarded"`
	Endorsed  bool   `json:"endorsed"`
}

// NewDiscardFeedback returns the payload sent when a finding is discarded.
func NewDiscardFeedback(problemID string) FeedbackPayload {
	return FeedbackPayload{ProblemID: problemID, Discarded: true, Endorsed: false}
}

// NewEndorseFeedback returns the payload sent when a finding is endorsed.
func NewEndorseFeedback(problemID string) FeedbackPayload {
	return FeedbackPayload{ProblemID: problemID, Discarded: false, Endorsed: true}
}

type sessionRequest struct {
	Session string `json:"session,omitempty"`
}

type sessionResponse struct {
	Session string `json:"session" validate:"required"`
}

// Client talks to the analysis service over HTTP.
type Client struct {
	httpc    *resty.Client
	validate *validator.Validate
	logger   hclog.Logger
}

// New creates a client for the configured service.
func New(cfg *config.Config, logger hclog.Logger) *Client {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	httpc := httpclient.InitializeRestyClient(logger.Named("http"), cfg)
	httpc.SetBaseURL(strings.TrimRight(config.GetBaseURL(cfg), "/"))
	httpc.SetHeader("Accept", "application/json")
	return NewWithResty(httpc, logger)
}

// NewWithResty wraps an already configured resty client.
func NewWithResty(httpc *resty.Client, logger hclog.Logger) *Client {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Client{
		httpc:    httpc,
		validate: validator.New(),
		logger:   logger,
	}
}

// Submit uploads content for analysis and returns the initial job status.
// Multipart parsers drop directories from file names, so relativePath is
// also sent as its own field.
func (c *Client) Submit(ctx context.Context, relativePath, content, absolutePath, sessionToken string) (*JobStatusResponse, error) {
	var r JobStatusResponse
	resp, err := c.httpc.R().
		SetContext(ctx).
		SetAuthToken(sessionToken).
		SetFormData(map[string]string{
			"type":         "file",
			"fullPath":     absolutePath,
			"relativePath": relativePath,
		}).
		SetFileReader(submissionField, relativePath, bytes.NewReader([]byte(content))).
		SetResult(&r).
		Post(submitFilePath)
	if err != nil {
		return nil, fmt.Errorf("submit %q: %w", relativePath, err)
	}
	if err := checkStatus(resp, http.StatusOK, http.StatusCreated, http.StatusAccepted); err != nil {
		return nil, err
	}
	return c.verify(resp, &r)
}

// PollStatus returns the current status of jobID.
func (c *Client) PollStatus(ctx context.Context, sessionToken, jobID string) (*JobStatusResponse, error) {
	if jobID == "" {
		return nil, ErrMissingJobID
	}

	var r JobStatusResponse
	resp, err := c.httpc.R().
		SetContext(ctx).
		SetAuthToken(sessionToken).
		SetPathParam("jobId", jobID).
		SetResult(&r).
		Get(jobStatusPath)
	if err != nil {
		return nil, fmt.Errorf("poll job %q: %w", jobID, err)
	}
	if err := checkStatus(resp, http.StatusOK); err != nil {
		return nil, err
	}
	return c.verify(resp, &r)
}

// SendFeedback reports a discard or endorse decision.
func (c *Client) SendFeedback(ctx context.Context, sessionToken string, payload FeedbackPayload) error {
	if err := c.validate.Struct(payload); err != nil {
		return fmt.Errorf("invalid feedback payload: %w", err)
	}

	resp, err := c.httpc.R().
		SetContext(ctx).
		SetAuthToken(sessionToken).
		SetPathParam("problemId", payload.ProblemID).
		SetBody(payload).
		Post(feedbackPath)
	if err != nil {
		return fmt.Errorf("send feedback for %q: %w", payload.ProblemID, err)
	}
	return checkStatus(resp, http.StatusOK, http.StatusCreated, http.StatusNoContent)
}

// CreateSession exchanges the API key for a session token, renewing previous when set.
func (c *Client) CreateSession(ctx context.Context, apiKey, previous string) (string, error) {
	if apiKey == "" {
		return "", ErrMissingAPIKey
	}

	var r sessionResponse
	resp, err := c.httpc.R().
		SetContext(ctx).
		SetHeader(apiKeyHeader, apiKey).
		SetBody(sessionRequest{Session: previous}).
		SetResult(&r).
		Post(sessionPath)
	if err != nil {
		return "", fmt.Errorf("create session: %w", err)
	}
	if err := checkStatus(resp, http.StatusOK, http.StatusCreated); err != nil {
		return "", err
	}
	if err := c.validate.Struct(r); err != nil {
		return "", fmt.Errorf("%w: %v", ErrEmptyResponse, err)
	}
	return r.Session, nil
}

// verify rejects bodies that carry no usable job status.
func (c *Client) verify(resp *resty.Response, r *JobStatusResponse) (*JobStatusResponse, error) {
	if len(bytes.TrimSpace(resp.Body())) == 0 {
		return nil, ErrEmptyResponse
	}
	if err := c.validate.Struct(r); err != nil {
		var invalid validator.ValidationErrors
		if errors.As(err, &invalid) {
			c.logger.Debug("job status response failed validation", "error", err)
			return nil, fmt.Errorf("%w: %v", ErrEmptyResponse, err)
		}
		return nil, err
	}
	return r, nil
}

func checkStatus(resp *resty.Response, accepted ...int) error {
	for _, code := range accepted {
		if resp.StatusCode() == code {
			return nil
		}
	}
	return &APIError{
		Method:     resp.Request.Method,
		URL:        resp.Request.URL,
		StatusCode: resp.StatusCode(),
		Body:       strings.TrimSpace(string(resp.Body())),
	}
}
