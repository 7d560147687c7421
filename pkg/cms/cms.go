// Package cms reads and writes CMS records over the backend's GraphQL API.
package cms

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/naveenspark/cmsdash/pkg/domain"
	"github.com/naveenspark/cmsdash/pkg/paging"
)

// bulkLimit bounds concurrent deletes in BulkDelete.
const bulkLimit = 4

var (
	// ErrNotFound is returned when the backend has no record with the id.
	ErrNotFound = errors.New("record not found")
	// ErrSingleton is returned for list, create and delete on a singleton kind.
	ErrSingleton = errors.New("operation not supported on single types")
)

// API runs GraphQL documents. *client.Client implements it.
type API interface {
	GraphQL(ctx context.Context, query string, variables map[string]any, out any) error
}

// Service is the CMS entity service.
type Service struct {
	api    API
	logger *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service's logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// New creates a service over api.
func New(api API, opts ...Option) *Service {
	s := &Service{api: api, logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListResult is one page of records.
type ListResult struct {
	Records []domain.Record
	Page    paging.Page
}

// List fetches the page of k described by page, optionally filtered by a
// substring match on the kind's search field. A page past the end, e.g.
// after deletions, is re-fetched as the last page.
func (s *Service) List(ctx context.Context, k domain.Kind, page paging.Page, search string) (*ListResult, error) {
	if k.Single {
		return nil, fmt.Errorf("cms.List: %s: %w", k.Slug, ErrSingleton)
	}
	records, total, err := s.list(ctx, k, page, search)
	if err != nil {
		return nil, fmt.Errorf("cms.List: %w", err)
	}
	computed := paging.Compute(total, page.Size, page.Current)
	if len(records) == 0 && total > 0 && computed.Current != page.Current {
		records, total, err = s.list(ctx, k, computed, search)
		if err != nil {
			return nil, fmt.Errorf("cms.List: %w", err)
		}
		computed = paging.Compute(total, page.Size, computed.Current)
	}
	return &ListResult{Records: records, Page: computed}, nil
}

func (s *Service) list(ctx context.Context, k domain.Kind, page paging.Page, search string) ([]domain.Record, int, error) {
	vars := map[string]any{"start": page.Offset, "limit": page.Size}
	if q := strings.TrimSpace(search); q != "" && k.Search != "" {
		vars["where"] = map[string]any{k.Search + "_contains": q}
	}

	var out map[string]json.RawMessage
	if err := s.api.GraphQL(ctx, listQuery(k), vars, &out); err != nil {
		return nil, 0, err
	}

	var rows []map[string]any
	if raw := out[k.Collection]; len(raw) > 0 {
		if err := json.Unmarshal(raw, &rows); err != nil {
			return nil, 0, fmt.Errorf("decode %s: %w", k.Collection, err)
		}
	}
	var conn struct {
		Aggregate struct {
			Count int `json:"count"`
		} `json:"aggregate"`
	}
	if raw := out[k.Collection+"Connection"]; len(raw) > 0 {
		if err := json.Unmarshal(raw, &conn); err != nil {
			return nil, 0, fmt.Errorf("decode %sConnection: %w", k.Collection, err)
		}
	}

	records := make([]domain.Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, domain.RecordFromMap(row))
	}
	return records, conn.Aggregate.Count, nil
}

// Get fetches one record. For singleton kinds id is ignored; an unset
// singleton returns an empty record rather than ErrNotFound.
func (s *Service) Get(ctx context.Context, k domain.Kind, id string) (*domain.Record, error) {
	var vars map[string]any
	if !k.Single {
		vars = map[string]any{"id": id}
	}
	rec, err := s.one(ctx, getQuery(k), vars, k.Singular)
	if err != nil {
		return nil, fmt.Errorf("cms.Get: %w", err)
	}
	if rec == nil {
		if k.Single {
			return &domain.Record{Fields: map[string]any{}}, nil
		}
		return nil, fmt.Errorf("cms.Get: %s %s: %w", k.Singular, id, ErrNotFound)
	}
	return rec, nil
}

// Create validates values and creates a record of k.
func (s *Service) Create(ctx context.Context, k domain.Kind, values map[string]string) (*domain.Record, error) {
	if k.Single {
		return nil, fmt.Errorf("cms.Create: %s: %w", k.Slug, ErrSingleton)
	}
	if err := domain.Validate(k, values); err != nil {
		return nil, fmt.Errorf("cms.Create: %w", err)
	}
	vars := map[string]any{"data": domain.Payload(k, values)}
	rec, err := s.one(ctx, createMutation(k), vars, "create"+k.Type, k.Singular)
	if err != nil {
		return nil, fmt.Errorf("cms.Create: %w", err)
	}
	if rec == nil {
		return nil, fmt.Errorf("cms.Create: %s: empty result", k.Singular)
	}
	s.logger.Info("record created", "kind", k.Slug, "id", rec.ID)
	return rec, nil
}

// Update validates values and updates record id of k. For singleton kinds
// id is ignored.
func (s *Service) Update(ctx context.Context, k domain.Kind, id string, values map[string]string) (*domain.Record, error) {
	if err := domain.Validate(k, values); err != nil {
		return nil, fmt.Errorf("cms.Update: %w", err)
	}
	vars := map[string]any{"data": domain.UpdatePayload(k, values)}
	if !k.Single {
		vars["id"] = id
	}
	rec, err := s.one(ctx, updateMutation(k), vars, "update"+k.Type, k.Singular)
	if err != nil {
		return nil, fmt.Errorf("cms.Update: %w", err)
	}
	if rec == nil {
		return nil, fmt.Errorf("cms.Update: %s %s: %w", k.Singular, id, ErrNotFound)
	}
	s.logger.Info("record updated", "kind", k.Slug, "id", rec.ID)
	return rec, nil
}

// Delete removes record id of k.
func (s *Service) Delete(ctx context.Context, k domain.Kind, id string) error {
	if k.Single {
		return fmt.Errorf("cms.Delete: %s: %w", k.Slug, ErrSingleton)
	}
	rec, err := s.one(ctx, deleteMutation(k), map[string]any{"id": id}, "delete"+k.Type, k.Singular)
	if err != nil {
		return fmt.Errorf("cms.Delete: %w", err)
	}
	if rec == nil {
		return fmt.Errorf("cms.Delete: %s %s: %w", k.Singular, id, ErrNotFound)
	}
	s.logger.Info("record deleted", "kind", k.Slug, "id", id)
	return nil
}

// ItemError is the failure of one item in a batch.
type ItemError struct {
	ID  string
	Err error
}

// BatchResult reports the outcome of every item in a bulk operation.
type BatchResult struct {
	Deleted []string
	Failed  []ItemError
}

// Err joins the item failures, or returns nil if every item succeeded.
func (r BatchResult) Err() error {
	if len(r.Failed) == 0 {
		return nil
	}
	errs := make([]error, 0, len(r.Failed))
	for _, f := range r.Failed {
		errs = append(errs, fmt.Errorf("%s: %w", f.ID, f.Err))
	}
	return errors.Join(errs...)
}

// BulkDelete deletes every id independently. A failed item never stops the
// others and nothing is rolled back. Results are reported in input order.
func (s *Service) BulkDelete(ctx context.Context, k domain.Kind, ids []string) BatchResult {
	errs := make([]error, len(ids))
	var g errgroup.Group
	g.SetLimit(bulkLimit)
	for i, id := range ids {
		g.Go(func() error {
			errs[i] = s.Delete(ctx, k, id)
			return nil
		})
	}
	g.Wait() //nolint:errcheck // per-item errors are collected above

	var res BatchResult
	for i, id := range ids {
		if errs[i] != nil {
			s.logger.Warn("bulk delete item failed", "kind", k.Slug, "id", id, "error", errs[i])
			res.Failed = append(res.Failed, ItemError{ID: id, Err: errs[i]})
			continue
		}
		res.Deleted = append(res.Deleted, id)
	}
	return res
}

// one runs a document and extracts the record at the given path of the
// data object. A null at any step yields a nil record.
func (s *Service) one(ctx context.Context, query string, vars map[string]any, path ...string) (*domain.Record, error) {
	var out map[string]any
	if err := s.api.GraphQL(ctx, query, vars, &out); err != nil {
		return nil, err
	}
	var cur any = out
	for _, key := range path {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil, nil
		}
		cur = obj[key]
	}
	obj, ok := cur.(map[string]any)
	if !ok {
		return nil, nil
	}
	rec := domain.RecordFromMap(obj)
	return &rec, nil
}
