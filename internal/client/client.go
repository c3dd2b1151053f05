// Package client talks to the ledger JSON API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"ledger/internal/api"
	"ledger/internal/core"
	applog "ledger/internal/log"
)

// maxReplyBytes caps how much of a reply body is read.
const maxReplyBytes = 32 << 20

// APIError is a reply the server answered with success false. Message is
// the server's error text and may be empty.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server replied %d without success", e.Status)
	}
	return fmt.Sprintf("server replied %d: %s", e.Status, e.Message)
}

// ServerMessage returns the server's message for err, or fallback when err
// is not an *APIError or carries no message.
func ServerMessage(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}

// IsAPIError reports whether err came from a success-false reply rather
// than from the transport or from decoding.
func IsAPIError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr)
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *applog.Logger
}

// New returns a client for the server at baseURL.
func New(baseURL string, timeout time.Duration, logger *applog.Logger) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.WithComponent(applog.ComponentClient),
	}
}

// AddRecord posts the serialised form fields and returns the stored record.
func (c *Client) AddRecord(ctx context.Context, fields map[string]string) (api.Record, error) {
	var reply api.AddRecordReply
	if err := c.sendJSON(ctx, http.MethodPost, api.PathAddRecord, fields, &reply); err != nil {
		return api.Record{}, err
	}
	if reply.Data == nil {
		return api.Record{}, fmt.Errorf("add record: reply has no data")
	}
	return *reply.Data, nil
}

func (c *Client) EditRecord(ctx context.Context, req api.EditRecordRequest) error {
	var reply api.Reply
	return c.sendJSON(ctx, http.MethodPatch, api.PathEditRecord, req, &reply)
}

func (c *Client) DeleteRecord(ctx context.Context, id int64, kind core.Kind) error {
	var reply api.Reply
	return c.sendJSON(ctx, http.MethodPost, api.PathDeleteRecord, api.DeleteRecordRequest{ID: id, Type: kind}, &reply)
}

// ChartData fetches the current month's datasets. Only transport and
// decode failures are errors; an incomplete or unsuccessful reply is
// returned as is so the caller can check Complete.
func (c *Client) ChartData(ctx context.Context) (api.ChartReply, error) {
	var reply api.ChartReply
	status, err := c.do(ctx, http.MethodGet, api.PathChartData, nil, &reply)
	if err != nil {
		return api.ChartReply{}, err
	}
	c.logger.Debug("Chart data fetched",
		applog.FieldStatusCode, status,
		applog.FieldSuccess, reply.Success)
	return reply, nil
}

// ListRecords returns both tables for month.
func (c *Client) ListRecords(ctx context.Context, month core.Month) (api.RecordsReply, error) {
	q := url.Values{"month": {month.String()}}
	var reply api.RecordsReply
	status, err := c.do(ctx, http.MethodGet, api.PathRecords+"?"+q.Encode(), nil, &reply)
	if err != nil {
		return api.RecordsReply{}, err
	}
	if !reply.Success {
		return api.RecordsReply{}, &APIError{Status: status, Message: reply.Error}
	}
	return reply, nil
}

// Export downloads a month report. format is "csv" or "xlsx". It returns
// the file name the server suggested.
func (c *Client) Export(ctx context.Context, month core.Month, format string) (string, []byte, error) {
	q := url.Values{
		"year":  {strconv.Itoa(month.Year)},
		"month": {strconv.Itoa(int(month.Month))},
	}
	if format != "" {
		q.Set("format", format)
	}

	resp, err := c.request(ctx, http.MethodGet, api.PathExport+"?"+q.Encode(), nil)
	if err != nil {
		return "", nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxReplyBytes))
	if err != nil {
		return "", nil, fmt.Errorf("read export: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		var reply api.Reply
		if jsonErr := json.Unmarshal(body, &reply); jsonErr != nil {
			return "", nil, fmt.Errorf("export: unexpected status %d", resp.StatusCode)
		}
		return "", nil, &APIError{Status: resp.StatusCode, Message: reply.Error}
	}

	name := fmt.Sprintf("export_%s.%s", month, extension(format))
	if _, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition")); err == nil && params["filename"] != "" {
		name = params["filename"]
	}
	return name, body, nil
}

func extension(format string) string {
	if strings.EqualFold(format, "xlsx") {
		return "xlsx"
	}
	return "csv"
}

// replier is implemented by every reply embedding api.Reply.
type replier interface {
	Result() (success bool, message string)
}

// sendJSON sends body as JSON and turns a success-false reply into an
// *APIError.
func (c *Client) sendJSON(ctx context.Context, method, path string, body any, out replier) error {
	status, err := c.do(ctx, method, path, body, out)
	if err != nil {
		return err
	}
	if success, msg := out.Result(); !success {
		c.logger.Warn("Request rejected",
			applog.FieldMethod, method,
			applog.FieldPath, path,
			applog.FieldStatusCode, status,
			applog.FieldError, msg)
		return &APIError{Status: status, Message: msg}
	}
	return nil
}

// do performs the request and decodes the JSON reply into out whatever
// the status code.
func (c *Client) do(ctx context.Context, method, path string, body, out any) (int, error) {
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("encode request: %w", err)
		}
		rd = bytes.NewReader(data)
	}

	resp, err := c.request(ctx, method, path, rd)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxReplyBytes)).Decode(out); err != nil {
		c.logger.Error("Failed to decode reply",
			applog.FieldMethod, method,
			applog.FieldPath, path,
			applog.FieldStatusCode, resp.StatusCode,
			applog.FieldError, err)
		return resp.StatusCode, fmt.Errorf("decode %s %s reply (status %d): %w", method, path, resp.StatusCode, err)
	}
	return resp.StatusCode, nil
}

func (c *Client) request(ctx context.Context, method, path string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("Request failed",
			applog.FieldMethod, method,
			applog.FieldURL, req.URL.String(),
			applog.FieldError, err)
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	c.logger.Debug("Request completed",
		applog.FieldMethod, method,
		applog.FieldPath, path,
		applog.FieldStatusCode, resp.StatusCode,
		applog.FieldDuration, time.Since(start).Milliseconds())
	return resp, nil
}
