package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/marginalia-labs/marginalia-cli/internal/core/domain"
	"github.com/marginalia-labs/marginalia-cli/internal/core/ports/driven"
	"github.com/marginalia-labs/marginalia-cli/internal/logger"
)

var _ driven.RemoteEndpoint = (*Endpoint)(nil)

// Endpoint implements the remote port over the service's v2 REST API.
type Endpoint struct {
	client *Client
	codec  driven.RecordCodec
}

// NewEndpoint wires an endpoint to a client and a codec.
func NewEndpoint(client *Client, codec driven.RecordCodec) *Endpoint {
	return &Endpoint{client: client, codec: codec}
}

// kindPath maps a record kind to its collection path.
func kindPath(kind domain.Kind) (string, error) {
	switch kind {
	case domain.KindHighlight:
		return "/v2/highlights/", nil
	case domain.KindDocument:
		return "/v2/documents/", nil
	default:
		return "", fmt.Errorf("%w: unknown kind %q", domain.ErrInvalidInput, kind)
	}
}

type listResponse struct {
	Results        []json.RawMessage `json:"results"`
	NextPageCursor string            `json:"nextPageCursor"`
}

// List returns one page of records of the given kind at the cursor.
func (e *Endpoint) List(ctx context.Context, kind domain.Kind, cursor domain.Cursor) (driven.Page, error) {
	path, err := kindPath(kind)
	if err != nil {
		return driven.Page{}, &domain.FatalError{Cause: err}
	}

	query := url.Values{}
	if cursor.Token != "" {
		query.Set("page_cursor", cursor.Token)
	}
	if !cursor.Watermark.IsZero() {
		query.Set("updated__gt", cursor.Watermark.UTC().Format(time.RFC3339Nano))
	}

	var resp listResponse
	if err := e.client.get(ctx, path, query, &resp); err != nil {
		return driven.Page{}, err
	}

	page := driven.Page{
		Records:   make([]domain.Record, 0, len(resp.Results)),
		NextToken: resp.NextPageCursor,
	}
	for _, raw := range resp.Results {
		record, err := e.codec.Decode(kind, raw)
		if err != nil {
			return driven.Page{}, &domain.FatalError{Cause: err}
		}
		page.Records = append(page.Records, record)
	}
	logger.Debug("listed %d %s record(s), next page %q", len(page.Records), kind, page.NextToken)
	return page, nil
}

type pushRequest struct {
	Records []json.RawMessage `json:"records"`
}

type pushItemResponse struct {
	Status string `json:"status"`
	ID     string `json:"id"`
	Error  string `json:"error"`
}

type pushResponse struct {
	Results []pushItemResponse `json:"results"`
}

// CreateOrUpdate submits a group of records and returns one outcome per
// record, aligned by position with the group.
func (e *Endpoint) CreateOrUpdate(ctx context.Context, kind domain.Kind, group []domain.Record) ([]driven.ItemOutcome, error) {
	path, err := kindPath(kind)
	if err != nil {
		return nil, &domain.FatalError{Cause: err}
	}

	req := pushRequest{Records: make([]json.RawMessage, 0, len(group))}
	for _, record := range group {
		payload, err := e.codec.Encode(record)
		if err != nil {
			return nil, &domain.FatalError{Cause: err}
		}
		req.Records = append(req.Records, payload)
	}

	var resp pushResponse
	if err := e.client.post(ctx, path, req, &resp); err != nil {
		return nil, err
	}
	if len(resp.Results) != len(group) {
		return nil, &domain.FatalError{Cause: fmt.Errorf(
			"submitted %d record(s), got %d result(s)", len(group), len(resp.Results))}
	}

	outcomes := make([]driven.ItemOutcome, len(resp.Results))
	for i, item := range resp.Results {
		outcome, err := mapItemOutcome(item)
		if err != nil {
			return nil, &domain.FatalError{Cause: err}
		}
		outcomes[i] = outcome
	}
	logger.Debug("pushed %d %s record(s)", len(group), kind)
	return outcomes, nil
}

// mapItemOutcome converts one wire result into the port's outcome shape.
func mapItemOutcome(item pushItemResponse) (driven.ItemOutcome, error) {
	switch item.Status {
	case "created":
		return driven.ItemOutcome{Status: domain.PushCreated, ID: item.ID}, nil
	case "updated":
		return driven.ItemOutcome{Status: domain.PushUpdated, ID: item.ID}, nil
	case "failed":
		message := item.Error
		if message == "" {
			message = "rejected by service"
		}
		return driven.ItemOutcome{Status: domain.PushFailed, ID: item.ID, Err: errors.New(message)}, nil
	default:
		return driven.ItemOutcome{}, fmt.Errorf("unknown item status %q", item.Status)
	}
}
