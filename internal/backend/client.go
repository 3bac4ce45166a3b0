// Package backend talks to the simulation backend over HTTP.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/verte-zerg/seatplay/internal/model"
)

// DefaultTimeout bounds one backend call. Simulation runs are synchronous on
// the backend, so this is generous.
const DefaultTimeout = 30 * time.Second

// Client issues requests to the backend.
type Client struct {
	baseURL string
	http    *http.Client
	log     logrus.FieldLogger
}

// New returns a client for baseURL. A non-positive timeout uses DefaultTimeout.
func New(baseURL string, timeout time.Duration, log logrus.FieldLogger) (*Client, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("invalid backend url %q", baseURL)
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if log == nil {
		discard := logrus.New()
		discard.SetOutput(io.Discard)
		log = discard
	}
	return &Client{
		baseURL: strings.TrimRight(u.String(), "/"),
		http:    &http.Client{Timeout: timeout},
		log:     log.WithField("component", "backend"),
	}, nil
}

// BaseURL returns the backend root URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// SubmitRun starts a single simulation run.
func (c *Client) SubmitRun(ctx context.Context, req model.RunRequest) (model.RunResponse, error) {
	if err := model.ValidateRun(req); err != nil {
		return model.RunResponse{}, err
	}
	var resp model.RunResponse
	if err := c.post(ctx, "/api/start_simulation", req, &resp); err != nil {
		return model.RunResponse{}, err
	}
	return resp, nil
}

// SubmitRange starts a range of simulation runs.
func (c *Client) SubmitRange(ctx context.Context, req model.RangeRunRequest) (model.RunResponse, error) {
	if err := model.ValidateRange(req); err != nil {
		return model.RunResponse{}, err
	}
	var resp model.RunResponse
	if err := c.post(ctx, "/api/start_range_simulation", req, &resp); err != nil {
		return model.RunResponse{}, err
	}
	return resp, nil
}

// SeatCounts lists the record folders by seat count.
func (c *Client) SeatCounts(ctx context.Context) ([]model.SeatFolder, error) {
	var out []model.SeatFolder
	if err := c.get(ctx, "/api/seat_counts", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// StudentFiles lists the records of one seat folder.
func (c *Client) StudentFiles(ctx context.Context, folder string) ([]model.StudentFile, error) {
	var out []model.StudentFile
	if err := c.get(ctx, "/api/student_files/"+url.PathEscape(folder), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Records lists every stored record.
func (c *Client) Records(ctx context.Context) ([]model.RecordEntry, error) {
	var out []model.RecordEntry
	if err := c.get(ctx, "/api/simulation_records", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Plots lists generated figures.
func (c *Client) Plots(ctx context.Context) ([]model.PlotEntry, error) {
	var out []model.PlotEntry
	if err := c.get(ctx, "/api/plots", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GeneratePlots asks for one figure.
func (c *Client) GeneratePlots(ctx context.Context, req model.PlotRequest) (model.PlotResponse, error) {
	if req.SeatCount <= 0 {
		return model.PlotResponse{}, fmt.Errorf("%w: seat count must be positive", model.ErrInvalidInput)
	}
	var resp model.PlotResponse
	if err := c.post(ctx, "/api/generate_plots", req, &resp); err != nil {
		return model.PlotResponse{}, err
	}
	return resp, nil
}

// GenerateBatchPlots asks for figures across a student range.
func (c *Client) GenerateBatchPlots(ctx context.Context, req model.BatchPlotRequest) (model.PlotResponse, error) {
	if req.SeatCount <= 0 {
		return model.PlotResponse{}, fmt.Errorf("%w: seat count must be positive", model.ErrInvalidInput)
	}
	if req.MinStudents > req.MaxStudents {
		return model.PlotResponse{}, fmt.Errorf("%w: min students exceeds max students", model.ErrInvalidInput)
	}
	var resp model.PlotResponse
	if err := c.post(ctx, "/api/generate_batch_plots", req, &resp); err != nil {
		return model.PlotResponse{}, err
	}
	return resp, nil
}

// CheckExistingPlots reports which figures already exist.
func (c *Client) CheckExistingPlots(ctx context.Context, req model.CheckPlotsRequest) (model.CheckPlotsResponse, error) {
	var resp model.CheckPlotsResponse
	if err := c.post(ctx, "/api/check_existing_plots", req, &resp); err != nil {
		return model.CheckPlotsResponse{}, err
	}
	return resp, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, http.NoBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	return c.do(req, out)
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.WithError(err).WithField("path", req.URL.Path).Warn("backend request failed")
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	c.log.WithFields(logrus.Fields{
		"method":  req.Method,
		"path":    req.URL.Path,
		"status":  resp.StatusCode,
		"elapsed": time.Since(started),
	}).Debug("backend request")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Code: resp.StatusCode, Message: errorMessage(resp.Body)}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("unexpected backend status: %d", e.Code)
	}
	return fmt.Sprintf("unexpected backend status: %d: %s", e.Code, e.Message)
}

// errorMessage extracts "message" or "error" from a JSON error body.
func errorMessage(r io.Reader) string {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.NewDecoder(io.LimitReader(r, 1<<16)).Decode(&body); err != nil {
		return ""
	}
	if body.Message != "" {
		return body.Message
	}
	return body.Error
}
