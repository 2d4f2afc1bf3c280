// Package client is a typed client for the Find My Teacher directory API, plus the UI state
// and renderers used by the terminal front end.
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
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Shreyas165/Find-My-Teacher/pkg/dto"
)

// APIError is returned for any non-2xx response.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api error: %d %s", e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("api error: %d: %s", e.Status, e.Message)
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

type Client struct {
	baseURL string
	http    *http.Client
	token   string
	apiKey  string
}

type Option func(*Client)

// WithToken authenticates admin calls with a session token from VerifyPassword.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithAPIKey authenticates admin calls with the server's static API key.
func WithAPIKey(key string) Option {
	return func(c *Client) { c.apiKey = key }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ImageFile is a photo to upload.
type ImageFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// AddTeacherRequest holds the fields of a new directory entry.
type AddTeacherRequest struct {
	Name       string
	Branch     string
	Floor      string
	Directions string
	Image      ImageFile
}

func (c *Client) ListNames(ctx context.Context) ([]string, error) {
	var resp dto.NamesResponse
	if err := c.do(ctx, http.MethodGet, "/api/people", nil, "", &resp); err != nil {
		return nil, err
	}
	names := make([]string, 0, len(resp.Teachers))
	for _, t := range resp.Teachers {
		names = append(names, t.Name)
	}
	return names, nil
}

func (c *Client) Search(ctx context.Context, query string) ([]dto.Teacher, error) {
	var resp dto.SearchResponse
	path := "/api/search?query=" + url.QueryEscape(query)
	if err := c.do(ctx, http.MethodGet, path, nil, "", &resp); err != nil {
		return nil, err
	}
	return resp.Teachers, nil
}

// Directions returns the oldest entry named name.
func (c *Client) Directions(ctx context.Context, name string) (*dto.Teacher, error) {
	var resp dto.Teacher
	if err := c.do(ctx, http.MethodGet, "/api/directions/"+url.PathEscape(name), nil, "", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Teacher(ctx context.Context, id uuid.UUID) (*dto.Teacher, error) {
	var resp dto.Teacher
	if err := c.do(ctx, http.MethodGet, "/api/teachers/"+id.String(), nil, "", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Image fetches the bytes behind an absolute image URL and their content type.
func (c *Client) Image(ctx context.Context, imageURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("build image request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("fetch image: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return nil, "", decodeError(resp)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("read image: %w", err)
	}
	return data, resp.Header.Get("Content-Type"), nil
}

func (c *Client) AddTeacher(ctx context.Context, in AddTeacherRequest) (*dto.CreateTeacherResponse, error) {
	body, contentType, err := multipartBody(map[string]string{
		"name":       in.Name,
		"branch":     in.Branch,
		"floor":      in.Floor,
		"directions": in.Directions,
	}, &in.Image)
	if err != nil {
		return nil, err
	}
	var resp dto.CreateTeacherResponse
	if err := c.do(ctx, http.MethodPost, "/api/add-teacher", body, contentType, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UpdateTeacher applies a partial update to the oldest entry named name.
// A non-nil image replaces the photo.
func (c *Client) UpdateTeacher(ctx context.Context, name string, req dto.UpdateTeacherRequest, image *ImageFile) error {
	path := "/api/update-teacher/" + url.PathEscape(name)
	if image == nil {
		data, err := json.Marshal(req)
		if err != nil {
			return fmt.Errorf("marshal update: %w", err)
		}
		return c.do(ctx, http.MethodPut, path, bytes.NewReader(data), "application/json", nil)
	}

	fields := map[string]string{}
	for key, v := range map[string]*string{
		"name": req.Name, "branch": req.Branch, "floor": req.Floor, "directions": req.Directions,
	} {
		if v != nil {
			fields[key] = *v
		}
	}
	body, contentType, err := multipartBody(fields, image)
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodPut, path, body, contentType, nil)
}

func (c *Client) DeleteTeacher(ctx context.Context, name string) error {
	return c.do(ctx, http.MethodDelete, "/api/delete-teacher/"+url.PathEscape(name), nil, "", nil)
}

// SetPassword reports whether a new credential was created.
func (c *Client) SetPassword(ctx context.Context, username, password string) (bool, error) {
	body, err := jsonBody(dto.CredentialRequest{Username: username, Password: password})
	if err != nil {
		return false, err
	}
	status, err := c.doStatus(ctx, http.MethodPost, "/api/set-password", body, "application/json", nil)
	if err != nil {
		return false, err
	}
	return status == http.StatusCreated, nil
}

func (c *Client) VerifyPassword(ctx context.Context, username, password string) (*dto.VerifyResponse, error) {
	body, err := jsonBody(dto.CredentialRequest{Username: username, Password: password})
	if err != nil {
		return nil, err
	}
	var resp dto.VerifyResponse
	if err := c.do(ctx, http.MethodPost, "/api/verify-password", body, "application/json", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) ChangePassword(ctx context.Context, username, oldPassword, newPassword string) error {
	body, err := jsonBody(dto.ChangePasswordRequest{Username: username, OldPassword: oldPassword, NewPassword: newPassword})
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodPut, "/api/change-password", body, "application/json", nil)
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string, out any) error {
	_, err := c.doStatus(ctx, method, path, body, contentType, out)
	return err
}

func (c *Client) doStatus(ctx context.Context, method, path string, body io.Reader, contentType string, out any) (int, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return resp.StatusCode, decodeError(resp)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("decode %s response: %w", path, err)
		}
	}
	return resp.StatusCode, nil
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}
	var body dto.ErrorResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&body); err == nil {
		apiErr.Message = body.Error
	}
	return apiErr
}

func jsonBody(v any) (io.Reader, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	return bytes.NewReader(data), nil
}

func multipartBody(fields map[string]string, image *ImageFile) (io.Reader, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			return nil, "", fmt.Errorf("write field %s: %w", k, err)
		}
	}
	if image != nil && len(image.Data) > 0 {
		filename := image.Filename
		if filename == "" {
			filename = "photo.jpg"
		}
		contentType := image.ContentType
		if contentType == "" {
			contentType = http.DetectContentType(image.Data)
		}
		h := textproto.MIMEHeader{}
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image"; filename=%q`, filename))
		h.Set("Content-Type", contentType)
		part, err := mw.CreatePart(h)
		if err != nil {
			return nil, "", fmt.Errorf("create image part: %w", err)
		}
		if _, err := part.Write(image.Data); err != nil {
			return nil, "", fmt.Errorf("write image part: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart: %w", err)
	}
	return &buf, mw.FormDataContentType(), nil
}
