package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"mesctx/pkg/common"
	"mesctx/pkg/source"
)

const defaultTimeout = 5 * time.Second

// Client talks JSON-over-HTTP to one MES backend service.
type Client struct {
	name    string
	baseURL string
	http    *http.Client
}

// NewClientParams configures a REST source client.
//
// Timeout bounds every single call; zero means the 5s default. The adapter
// treats an expired call like a miss, so the timeout should stay short.
type NewClientParams struct {
	Name    string
	BaseURL string
	Timeout time.Duration
}

// NewClient creates a client for the service at params.BaseURL.
func NewClient(params NewClientParams) *Client {
	timeout := params.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		name:    params.Name,
		baseURL: params.BaseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

// Name identifies the service in logs and on fetched entities.
func (c *Client) Name() string {
	return c.name
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", c.name, err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return common.ErrNotFound
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return fmt.Errorf("%s returned status %d", c.name, res.StatusCode)
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return fmt.Errorf("failed to read response from %s: %w", c.name, err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("malformed response from %s: %w", c.name, err)
	}
	return nil
}

func (c *Client) put(ctx context.Context, path string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", c.name, err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return common.ErrNotFound
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return fmt.Errorf("%s returned status %d", c.name, res.StatusCode)
	}
	return nil
}

// ListNamespaces returns the domain tags the service exposes.
func (c *Client) ListNamespaces(ctx context.Context) ([]string, error) {
	var out []string
	if err := c.get(ctx, "/api/namespaces", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListTypes returns declared entity types, optionally filtered by namespace.
func (c *Client) ListTypes(ctx context.Context, namespace string) ([]common.EntityType, error) {
	query := url.Values{}
	if namespace != "" {
		query.Set("namespace", namespace)
	}
	var out []common.EntityType
	if err := c.get(ctx, "/api/types", query, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetType fetches one type definition by id.
func (c *Client) GetType(ctx context.Context, id string) (*common.EntityType, error) {
	var out common.EntityType
	if err := c.get(ctx, "/api/types/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListEntities returns instances, optionally filtered by type, paged.
func (c *Client) ListEntities(ctx context.Context, params source.ListEntitiesParams) ([]common.Entity, error) {
	query := url.Values{}
	if params.TypeID != "" {
		query.Set("type", params.TypeID)
	}
	if params.Page > 0 {
		query.Set("page", strconv.Itoa(params.Page))
	}
	if params.PageSize > 0 {
		query.Set("page_size", strconv.Itoa(params.PageSize))
	}
	if params.IncludeMetadata {
		query.Set("metadata", "true")
	}
	var out []common.Entity
	if err := c.get(ctx, "/api/entities", query, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetEntity fetches one instance by id.
func (c *Client) GetEntity(ctx context.Context, id string, includeMetadata bool) (*common.Entity, error) {
	query := url.Values{}
	if includeMetadata {
		query.Set("metadata", "true")
	}
	var out common.Entity
	if err := c.get(ctx, "/api/entities/"+url.PathEscape(id), query, &out); err != nil {
		return nil, err
	}
	if out.ID == "" {
		return nil, fmt.Errorf("malformed response from %s: entity without id", c.name)
	}
	return &out, nil
}

// GetRelated returns the instances declared under one relationship label.
func (c *Client) GetRelated(ctx context.Context, id string, label string) ([]common.Entity, error) {
	query := url.Values{}
	query.Set("relationship", label)
	var out []common.Entity
	if err := c.get(ctx, "/api/entities/"+url.PathEscape(id)+"/related", query, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetChildren returns the entities below id in the source hierarchy.
func (c *Client) GetChildren(ctx context.Context, id string) ([]common.Entity, error) {
	var out []common.Entity
	if err := c.get(ctx, "/api/entities/"+url.PathEscape(id)+"/children", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetParent returns the entity above id in the source hierarchy.
func (c *Client) GetParent(ctx context.Context, id string) (*common.Entity, error) {
	var out common.Entity
	if err := c.get(ctx, "/api/entities/"+url.PathEscape(id)+"/parent", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetValue returns the current attribute values of an entity.
func (c *Client) GetValue(ctx context.Context, id string) (map[string]common.AttrValue, error) {
	var out map[string]common.AttrValue
	if err := c.get(ctx, "/api/entities/"+url.PathEscape(id)+"/value", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateValue replaces the current attribute values of an entity.
func (c *Client) UpdateValue(ctx context.Context, id string, attrs map[string]common.AttrValue) error {
	return c.put(ctx, "/api/entities/"+url.PathEscape(id)+"/value", attrs)
}

// GetHistory returns attribute snapshots recorded between from and to.
func (c *Client) GetHistory(ctx context.Context, id string, from, to time.Time) ([]common.ValueSnapshot, error) {
	query := url.Values{}
	if !from.IsZero() {
		query.Set("from", from.Format(time.RFC3339))
	}
	if !to.IsZero() {
		query.Set("to", to.Format(time.RFC3339))
	}
	var out []common.ValueSnapshot
	if err := c.get(ctx, "/api/entities/"+url.PathEscape(id)+"/history", query, &out); err != nil {
		return nil, err
	}
	return out, nil
}
