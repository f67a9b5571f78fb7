package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	defaultRequestTimeout = 30 * time.Second
	defaultUploadTimeout  = 60 * time.Second
	userAgent             = "postscan/0.1.0"
)

// Client wraps the letter-extraction service API.
type Client struct {
	baseURL      string
	httpClient   *http.Client
	uploadClient *http.Client
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the client used for JSON endpoints.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithUploadClient overrides the client used for raw image transfers.
func WithUploadClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.uploadClient = client
		}
	}
}

// WithTimeouts sets the request and upload deadlines.
func WithTimeouts(request, upload time.Duration) Option {
	return func(c *Client) {
		if request > 0 {
			c.httpClient = &http.Client{Timeout: request}
		}
		if upload > 0 {
			c.uploadClient = &http.Client{Timeout: upload}
		}
	}
}

// NewClient constructs a service client for the given origin.
func NewClient(baseURL string, opts ...Option) *Client {
	client := &Client{
		baseURL:      strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		httpClient:   &http.Client{Timeout: defaultRequestTimeout},
		uploadClient: &http.Client{Timeout: defaultUploadTimeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Register creates an account.
func (c *Client) Register(ctx context.Context, username, email, password string) (Account, error) {
	var account Account
	body := map[string]string{"username": username, "email": email, "password": password}
	err := c.postJSON(ctx, "register", "/api/v1/auth/register", "", body, &account)
	return account, err
}

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, email, password string) (Credential, error) {
	var response struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	body := map[string]string{"email": email, "password": password}
	if err := c.postJSON(ctx, "login", "/api/v1/auth/login", "", body, &response); err != nil {
		return "", err
	}
	if strings.TrimSpace(response.AccessToken) == "" {
		return "", errors.New("login: response missing access_token")
	}
	return Credential(response.AccessToken), nil
}

// GenerateUploadURL requests a one-time upload slot.
func (c *Client) GenerateUploadURL(ctx context.Context, cred Credential) (UploadSlot, error) {
	var slot UploadSlot
	if err := c.postJSON(ctx, "generate upload url", "/api/v1/mails/generate_upload_url", cred, nil, &slot); err != nil {
		return UploadSlot{}, err
	}
	if slot.UploadURL == "" || slot.FileKey == "" {
		return UploadSlot{}, errors.New("generate upload url: incomplete slot in response")
	}
	return slot, nil
}

// UploadImage transfers raw image bytes to the slot's destination. The
// destination is object storage, not the service origin, so no credential is
// attached; authorization is embedded in the signed URL.
func (c *Client) UploadImage(ctx context.Context, uploadURL, contentType string, body io.Reader, size int64) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, uploadURL, body)
	if err != nil {
		return fmt.Errorf("upload image: build request: %w", err)
	}
	if size > 0 {
		req.ContentLength = size
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.uploadClient.Do(req)
	if err != nil {
		return fmt.Errorf("upload image: %w", err)
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return &StatusError{Op: "upload image", StatusCode: resp.StatusCode, Message: readErrorBody(resp.Body)}
	}
	return nil
}

// ProcessFile notifies the service that the uploaded file key is ready for
// extraction and returns the initial record snapshot.
func (c *Client) ProcessFile(ctx context.Context, cred Credential, fileKey string) (Snapshot, error) {
	var snapshot Snapshot
	path := "/api/v1/mails/process?file_key=" + url.QueryEscape(fileKey)
	if err := c.postJSON(ctx, "process file", path, cred, nil, &snapshot); err != nil {
		return Snapshot{}, err
	}
	return snapshot, nil
}

// ListMails fetches a page of scan record snapshots.
func (c *Client) ListMails(ctx context.Context, cred Credential, limit, offset int) ([]Snapshot, error) {
	path := "/api/v1/mails/?limit=" + strconv.Itoa(limit) + "&offset=" + strconv.Itoa(offset)
	var snapshots []Snapshot
	if err := c.getJSON(ctx, "list mails", path, cred, &snapshots); err != nil {
		return nil, err
	}
	return snapshots, nil
}

// GetMail fetches the current snapshot for one record.
func (c *Client) GetMail(ctx context.Context, cred Credential, id string) (Snapshot, error) {
	var snapshot Snapshot
	if err := c.getJSON(ctx, "get mail", "/api/v1/mails/"+url.PathEscape(id), cred, &snapshot); err != nil {
		return Snapshot{}, err
	}
	return snapshot, nil
}

func (c *Client) postJSON(ctx context.Context, op, path string, cred Credential, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", op, err)
		}
		reader = bytes.NewReader(encoded)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", op, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(op, req, cred, out)
}

func (c *Client) getJSON(ctx context.Context, op, path string, cred Credential, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", op, err)
	}
	return c.do(op, req, cred, out)
}

func (c *Client) do(op string, req *http.Request, cred Credential, out any) error {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if !cred.Empty() {
		req.Header.Set("Authorization", "Bearer "+string(cred))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(op, resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}

// decodeError maps an error response onto a StatusError, parsing the
// structured detail list the service emits on 422.
func decodeError(op string, resp *http.Response) error {
	statusErr := &StatusError{Op: op, StatusCode: resp.StatusCode}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil || len(data) == 0 {
		return statusErr
	}

	var envelope struct {
		Detail json.RawMessage `json:"detail"`
	}
	if json.Unmarshal(data, &envelope) != nil || len(envelope.Detail) == 0 {
		statusErr.Message = strings.TrimSpace(string(data))
		return statusErr
	}

	var details []struct {
		Loc  []any  `json:"loc"`
		Msg  string `json:"msg"`
		Type string `json:"type"`
	}
	if json.Unmarshal(envelope.Detail, &details) == nil && len(details) > 0 {
		for _, d := range details {
			parts := make([]string, 0, len(d.Loc))
			for _, loc := range d.Loc {
				parts = append(parts, fmt.Sprint(loc))
			}
			statusErr.Details = append(statusErr.Details, ValidationDetail{
				Location: strings.Join(parts, "."),
				Message:  d.Msg,
				Type:     d.Type,
			})
		}
		return statusErr
	}

	var message string
	if json.Unmarshal(envelope.Detail, &message) == nil {
		statusErr.Message = message
		return statusErr
	}
	statusErr.Message = strings.TrimSpace(string(data))
	return statusErr
}

func readErrorBody(body io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(body, 4<<10))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

func drainAndClose(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, io.LimitReader(body, 1<<20))
	_ = body.Close()
}
