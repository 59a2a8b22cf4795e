// Package client is a typed Go client for the file depot HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"

	"filedepot/internal/depot"
	"filedepot/internal/server"
)

// ErrTooLarge is returned when the server rejects an upload for its size.
var ErrTooLarge = errors.New("upload too large")

// StatusError is returned for every non-2xx response. It unwraps to the
// depot error matching the error code sent by the server, when there is one.
type StatusError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("filedepot: %d %s", e.StatusCode, e.Message)
}

func (e *StatusError) Unwrap() error {
	switch e.Code {
	case server.CodeMissingContent:
		return depot.ErrMissingContent
	case server.CodeInvalidName:
		return depot.ErrInvalidName
	case server.CodeUnknownArea:
		return depot.ErrUnknownArea
	case server.CodeNotFound:
		return depot.ErrNotFound
	case server.CodeTooLarge:
		return ErrTooLarge
	}
	return nil
}

// Client talks to a file depot server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New returns a Client for the server at baseURL. A nil httpClient means
// http.DefaultClient.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: httpClient,
	}
}

func (c *Client) url(segments ...string) string {
	var b strings.Builder
	b.WriteString(c.baseURL)
	for _, s := range segments {
		b.WriteByte('/')
		b.WriteString(url.PathEscape(s))
	}
	return b.String()
}

// do sends req and decodes a JSON response into out, if out is not nil.
func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(resp)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func statusError(resp *http.Response) error {
	var msg server.MessageResponse
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
	if err := json.Unmarshal(body, &msg); err != nil || msg.Message == "" {
		msg.Message = strings.TrimSpace(string(body))
	}
	return &StatusError{StatusCode: resp.StatusCode, Code: msg.Code, Message: msg.Message}
}

// Areas returns the storage areas served.
func (c *Client) Areas(ctx context.Context) ([]depot.Area, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return nil, err
	}

	var areas []depot.Area
	if err := c.do(req, &areas); err != nil {
		return nil, err
	}
	return areas, nil
}

// Upload streams content to area as filename and returns the stored name.
func (c *Client) Upload(ctx context.Context, area string, filename string, content io.Reader) (string, error) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		part, err := mw.CreateFormFile(server.FileField, filename)
		if err == nil {
			_, err = io.Copy(part, content)
		}
		if err == nil {
			err = mw.Close()
		}
		pw.CloseWithError(err)
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url(area), pr)
	if err != nil {
		_ = pr.Close()
		return "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var out server.UploadResponse
	if err := c.do(req, &out); err != nil {
		_ = pr.CloseWithError(err)
		return "", err
	}
	return out.Filename, nil
}

// List returns the file names stored in area.
func (c *Client) List(ctx context.Context, area string) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url(area), nil)
	if err != nil {
		return nil, err
	}

	var names []string
	if err := c.do(req, &names); err != nil {
		return nil, err
	}
	return names, nil
}

// Fetch returns the content of a stored file. The caller closes it.
func (c *Client) Fetch(ctx context.Context, area string, name string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url(area, name), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, statusError(resp)
	}
	return resp.Body, nil
}

// Rename renames a file and returns the name actually used.
func (c *Client) Rename(ctx context.Context, area string, name string, newName string) (string, error) {
	body, err := json.Marshal(server.RenameRequest{NewFilename: newName})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.url(area, name), bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	var out server.RenameResponse
	if err := c.do(req, &out); err != nil {
		return "", err
	}
	return out.NewFilename, nil
}

// Delete removes a file.
func (c *Client) Delete(ctx context.Context, area string, name string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.url(area, name), nil)
	if err != nil {
		return err
	}
	return c.do(req, nil)
}
