// Package search wraps the Meilisearch SDK with what the service needs:
// replacing the whole article index and querying it.
package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/meilisearch/meilisearch-go"

	"news-aggregator/internal/domain/entity"
	"news-aggregator/internal/resilience/circuitbreaker"
)

// codeIndexNotFound is what a delete task reports before the first add has
// created the index.
const codeIndexNotFound = "index_not_found"

// APIError is a non-2xx answer from Meilisearch.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("meilisearch %d %s: %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("meilisearch %d: %s", e.StatusCode, e.Message)
}

// TaskError reports a task that finished without succeeding.
type TaskError struct {
	TaskUID int64
	Status  string
	Code    string
	Message string
}

func (e *TaskError) Error() string {
	return fmt.Sprintf("meilisearch task %d %s: %s (%s)", e.TaskUID, e.Status, e.Message, e.Code)
}

var ErrTaskTimeout = errors.New("meilisearch task did not finish in time")

type Client struct {
	cfg            Config
	meili          meilisearch.ServiceManager
	circuitBreaker *circuitbreaker.CircuitBreaker
}

// NewClient builds a client. A nil httpClient gets one with cfg.Timeout.
func NewClient(cfg Config, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if cfg.Index == "" {
		cfg.Index = DefaultIndex
	}
	if cfg.TaskPollInterval <= 0 {
		cfg.TaskPollInterval = 100 * time.Millisecond
	}
	if cfg.TaskTimeout <= 0 {
		cfg.TaskTimeout = time.Minute
	}
	opts := []meilisearch.Option{meilisearch.WithCustomClient(httpClient)}
	if cfg.APIKey != "" {
		opts = append(opts, meilisearch.WithAPIKey(cfg.APIKey))
	}
	return &Client{
		cfg:            cfg,
		meili:          meilisearch.New(cfg.URL, opts...),
		circuitBreaker: circuitbreaker.New(circuitbreaker.SearchIndexConfig()),
	}
}

// ReplaceAll deletes every document in the index and then adds docs, waiting
// for both tasks. A missing index is not an error for the delete step; the
// add creates it.
func (c *Client) ReplaceAll(ctx context.Context, docs []entity.SearchDocument, primaryKey string) error {
	_, err := circuitbreaker.Do(c.circuitBreaker, func() (struct{}, error) {
		return struct{}{}, c.replaceAll(ctx, docs, primaryKey)
	})
	return err
}

func (c *Client) replaceAll(ctx context.Context, docs []entity.SearchDocument, primaryKey string) error {
	index := c.meili.Index(c.cfg.Index)

	del, err := index.DeleteAllDocumentsWithContext(ctx)
	if err != nil {
		return fmt.Errorf("delete documents: %w", apiError(err))
	}
	if err := c.waitForTask(ctx, del.TaskUID); err != nil {
		var te *TaskError
		if !errors.As(err, &te) || te.Code != codeIndexNotFound {
			return fmt.Errorf("delete documents: %w", err)
		}
	}
	if len(docs) == 0 {
		return nil
	}

	add, err := index.AddDocumentsWithContext(ctx, docs, primaryKey)
	if err != nil {
		return fmt.Errorf("add documents: %w", apiError(err))
	}
	if err := c.waitForTask(ctx, add.TaskUID); err != nil {
		return fmt.Errorf("add documents: %w", err)
	}
	return nil
}

type searchResponse struct {
	Hits []entity.SearchDocument `json:"hits"`
}

// Search runs a full-text query and returns the matching documents.
// Hits are decoded from the raw response so they keep the document shape.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]entity.SearchDocument, error) {
	return circuitbreaker.Do(c.circuitBreaker, func() ([]entity.SearchDocument, error) {
		raw, err := c.meili.Index(c.cfg.Index).SearchRawWithContext(ctx, query, &meilisearch.SearchRequest{
			Limit: int64(limit),
		})
		if err != nil {
			return nil, apiError(err)
		}
		var out searchResponse
		if raw != nil {
			if err := json.Unmarshal(*raw, &out); err != nil {
				return nil, fmt.Errorf("decode search response: %w", err)
			}
		}
		return out.Hits, nil
	})
}

// Healthy reports whether GET /health answers "available".
func (c *Client) Healthy(ctx context.Context) error {
	h, err := c.meili.HealthWithContext(ctx)
	if err != nil {
		return apiError(err)
	}
	if h.Status != "available" {
		return fmt.Errorf("meilisearch status %q", h.Status)
	}
	return nil
}

func (c *Client) waitForTask(ctx context.Context, uid int64) error {
	wctx, cancel := context.WithTimeout(ctx, c.cfg.TaskTimeout)
	defer cancel()

	task, err := c.meili.WaitForTaskWithContext(wctx, uid, c.cfg.TaskPollInterval)
	if err != nil {
		if ctx.Err() == nil && errors.Is(wctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%w: task %d", ErrTaskTimeout, uid)
		}
		return apiError(err)
	}
	switch task.Status {
	case meilisearch.TaskStatusSucceeded:
		return nil
	case meilisearch.TaskStatusFailed, meilisearch.TaskStatusCanceled:
		return &TaskError{
			TaskUID: uid,
			Status:  string(task.Status),
			Code:    task.Error.Code,
			Message: task.Error.Message,
		}
	default:
		return fmt.Errorf("task %d: unexpected status %q", uid, task.Status)
	}
}

// apiError lifts the SDK's error into APIError when Meilisearch answered
// with a status code; transport errors pass through.
func apiError(err error) error {
	var me *meilisearch.Error
	if !errors.As(err, &me) || me.StatusCode == 0 {
		return err
	}
	return &APIError{
		StatusCode: me.StatusCode,
		Code:       me.MeilisearchApiError.Code,
		Message:    me.MeilisearchApiError.Message,
	}
}
