package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/mwhitten/shelfmark/internal/domain"
)

const (
	defaultTimeout = 15 * time.Second
	userAgent      = "Shelfmark/1.0"

	// Idempotent reads get one retry on transport failure. Writes are
	// never retried so a flaky network cannot duplicate side effects.
	getRetries = 1
)

// Client talks to the Shelfmark backend API. It implements
// domain.CatalogAPI, domain.AuthAPI, domain.MyLibraryAPI and
// domain.ReadingAPI.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger

	mu    sync.RWMutex
	token string
}

var (
	_ domain.CatalogAPI   = (*Client)(nil)
	_ domain.AuthAPI      = (*Client)(nil)
	_ domain.MyLibraryAPI = (*Client)(nil)
	_ domain.ReadingAPI   = (*Client)(nil)
)

// NewClient creates a new backend API client.
func NewClient(baseURL string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		logger: logger,
	}
}

// SetToken attaches a bearer token to subsequent requests.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// ClearToken removes the bearer token.
func (c *Client) ClearToken() {
	c.SetToken("")
}

func (c *Client) currentToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

type errorBody struct {
	Message string `json:"message"`
}

// do performs one API request, retrying idempotent GETs once on transport
// failure. A response body is decoded into out when out is non-nil.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, payload, out interface{}) error {
	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	var body []byte
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
	}

	attempts := 1
	if method == http.MethodGet {
		attempts += getRetries
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", userAgent)
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if token := c.currentToken(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}

		c.logger.Debug("api request", "method", method, "url", reqURL, "attempt", attempt+1)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			if ctx.Err() != nil {
				break
			}
			continue
		}
		return c.handleResponse(resp, out)
	}

	c.logger.Error("api request failed", "method", method, "url", reqURL, "error", lastErr)
	return fmt.Errorf("%w: %v", domain.ErrRemoteUnavailable, lastErr)
}

func (c *Client) handleResponse(resp *http.Response, out interface{}) error {
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return domain.ErrAuthRequired
	case resp.StatusCode == http.StatusNotFound:
		return domain.ErrNotFound
	case resp.StatusCode >= 400:
		var eb errorBody
		json.Unmarshal(data, &eb) // best effort, empty message falls back
		c.logger.Error("api request rejected", "status", resp.StatusCode, "message", eb.Message)
		return domain.NewRemoteError(resp.StatusCode, eb.Message)
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// === Catalog ===

func (c *Client) SearchBooks(ctx context.Context, query string, page, pageSize int) (domain.BookSearchResult, error) {
	q := url.Values{}
	q.Set("q", query)
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	if pageSize > 0 {
		q.Set("pageSize", strconv.Itoa(pageSize))
	}
	var result domain.BookSearchResult
	if err := c.do(ctx, http.MethodGet, "/api/books/search", q, nil, &result); err != nil {
		return domain.BookSearchResult{}, err
	}
	return result, nil
}

func (c *Client) GetBook(ctx context.Context, id string) (domain.Book, error) {
	var book domain.Book
	if err := c.do(ctx, http.MethodGet, "/api/books/"+url.PathEscape(id), nil, nil, &book); err != nil {
		return domain.Book{}, err
	}
	return book, nil
}

func (c *Client) GetAvailability(ctx context.Context, bookID string, libraryIDs []string) ([]domain.Availability, error) {
	var q url.Values
	if len(libraryIDs) > 0 {
		q = url.Values{}
		q.Set("libraryIds", strings.Join(libraryIDs, ","))
	}
	var avail []domain.Availability
	path := "/api/books/" + url.PathEscape(bookID) + "/availability"
	if err := c.do(ctx, http.MethodGet, path, q, nil, &avail); err != nil {
		return nil, err
	}
	return avail, nil
}

func (c *Client) PopularBooks(ctx context.Context, period string, limit int) ([]domain.Book, error) {
	q := url.Values{}
	if period != "" {
		q.Set("period", period)
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var books []domain.Book
	if err := c.do(ctx, http.MethodGet, "/api/books/popular", q, nil, &books); err != nil {
		return nil, err
	}
	return books, nil
}

func (c *Client) NewBooks(ctx context.Context, category string, limit int) ([]domain.Book, error) {
	q := url.Values{}
	if category != "" {
		q.Set("category", category)
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var books []domain.Book
	if err := c.do(ctx, http.MethodGet, "/api/books/new", q, nil, &books); err != nil {
		return nil, err
	}
	return books, nil
}

func (c *Client) SearchLibraries(ctx context.Context, keyword string) ([]domain.Library, error) {
	q := url.Values{}
	if keyword != "" {
		q.Set("keyword", keyword)
	}
	var libs []domain.Library
	if err := c.do(ctx, http.MethodGet, "/api/libraries/search", q, nil, &libs); err != nil {
		return nil, err
	}
	return libs, nil
}

// === Auth ===

func (c *Client) Login(ctx context.Context, req domain.LoginRequest) (domain.Session, error) {
	var session domain.Session
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", nil, req, &session); err != nil {
		return domain.Session{}, err
	}
	c.SetToken(session.AccessToken)
	return session, nil
}

func (c *Client) Signup(ctx context.Context, req domain.SignupRequest) (domain.User, error) {
	var user domain.User
	if err := c.do(ctx, http.MethodPost, "/api/auth/signup", nil, req, &user); err != nil {
		return domain.User{}, err
	}
	return user, nil
}

func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/auth/logout", nil, nil, nil)
}

func (c *Client) Me(ctx context.Context) (domain.User, error) {
	var user domain.User
	if err := c.do(ctx, http.MethodGet, "/api/me", nil, nil, &user); err != nil {
		return domain.User{}, err
	}
	return user, nil
}

// === Home libraries ===

func (c *Client) ListMyLibraries(ctx context.Context) ([]domain.Library, error) {
	var libs []domain.Library
	if err := c.do(ctx, http.MethodGet, "/api/me/libraries", nil, nil, &libs); err != nil {
		return nil, err
	}
	return libs, nil
}

func (c *Client) AddMyLibrary(ctx context.Context, libraryID string) error {
	path := "/api/libraries/" + url.PathEscape(libraryID) + "/my-library"
	return c.do(ctx, http.MethodPost, path, nil, nil, nil)
}

func (c *Client) RemoveMyLibrary(ctx context.Context, libraryID string) error {
	path := "/api/libraries/" + url.PathEscape(libraryID) + "/my-library"
	return c.do(ctx, http.MethodDelete, path, nil, nil, nil)
}

func (c *Client) ReorderMyLibraries(ctx context.Context, libraryIDs []string) ([]domain.Library, error) {
	payload := struct {
		LibraryIDs []string `json:"libraryIds"`
	}{LibraryIDs: libraryIDs}

	var libs []domain.Library
	if err := c.do(ctx, http.MethodPut, "/api/me/libraries/reorder", nil, payload, &libs); err != nil {
		return nil, err
	}
	return libs, nil
}

// === Reading records ===

func (c *Client) ListReadingRecords(ctx context.Context, state domain.ReadingState) ([]domain.ReadingRecord, error) {
	var q url.Values
	if state != "" {
		q = url.Values{}
		q.Set("state", string(state))
	}
	var records []domain.ReadingRecord
	if err := c.do(ctx, http.MethodGet, "/api/me/books", q, nil, &records); err != nil {
		return nil, err
	}
	return records, nil
}

func (c *Client) GetReadingRecord(ctx context.Context, bookID string) (domain.ReadingRecord, bool, error) {
	var rec domain.ReadingRecord
	path := "/api/me/books/" + url.PathEscape(bookID) + "/state"
	err := c.do(ctx, http.MethodGet, path, nil, nil, &rec)
	if err != nil {
		// An absent record is a result, not an error.
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ReadingRecord{}, false, nil
		}
		return domain.ReadingRecord{}, false, err
	}
	return rec, true, nil
}

func (c *Client) CreateReadingRecord(ctx context.Context, bookID string) (domain.ReadingRecord, error) {
	payload := struct {
		BookID string `json:"bookId"`
	}{BookID: bookID}

	var rec domain.ReadingRecord
	if err := c.do(ctx, http.MethodPost, "/api/me/books", nil, payload, &rec); err != nil {
		return domain.ReadingRecord{}, err
	}
	return rec, nil
}

func (c *Client) UpdateReadingRecord(ctx context.Context, remoteID string, upd domain.ReadingUpdate) (domain.ReadingRecord, error) {
	var rec domain.ReadingRecord
	path := "/api/me/books/records/" + url.PathEscape(remoteID)
	if err := c.do(ctx, http.MethodPatch, path, nil, upd, &rec); err != nil {
		return domain.ReadingRecord{}, err
	}
	return rec, nil
}

func (c *Client) DeleteReadingRecord(ctx context.Context, remoteID string) error {
	path := "/api/me/books/records/" + url.PathEscape(remoteID)
	return c.do(ctx, http.MethodDelete, path, nil, nil, nil)
}
