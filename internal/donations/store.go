package donations

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/multierr"

	"github.com/solidarityfund/fundraiser-backend/pkg/blob"
	pkgerrors "github.com/solidarityfund/fundraiser-backend/pkg/errors"
)

const defaultPaymentsPrefix = "donations/payments/"

type blobStore interface {
	Put(ctx context.Context, key string, data []byte, opts blob.PutOptions) error
	Get(ctx context.Context, key string) ([]byte, error)
	List(ctx context.Context, prefix, cursor string) (*blob.Page, error)
}

// Store persists donation records as one blob per payment id.
type Store struct {
	blob   blobStore
	prefix string
}

func NewStore(b blobStore, prefix string) (*Store, error) {
	if b == nil {
		return nil, errors.New("blob store is required")
	}
	if prefix == "" {
		prefix = defaultPaymentsPrefix
	}
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &Store{blob: b, prefix: prefix}, nil
}

func (s *Store) key(id string) string {
	return s.prefix + id + ".json"
}

// Upsert writes the record, overwriting any previous version. Overwrite is
// deliberate: the provider re-delivers events and occasionally corrects a
// payment's status, and the latest version wins.
func (s *Store) Upsert(ctx context.Context, rec Record) error {
	if strings.TrimSpace(rec.ID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "record id is required")
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode donation record")
	}
	if err := s.blob.Put(ctx, s.key(rec.ID), data, blob.PutOptions{ContentType: "application/json"}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "write failed")
	}
	return nil
}

// Get loads one record by payment id.
func (s *Store) Get(ctx context.Context, id string) (*Record, error) {
	data, err := s.blob.Get(ctx, s.key(id))
	if err != nil {
		if errors.Is(err, blob.ErrNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "donation not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read donation")
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode donation record")
	}
	return &rec, nil
}

// ScanReport summarizes one ForEach pass. SkipErr aggregates the decode
// failures of skipped blobs; the scan itself continues past them.
type ScanReport struct {
	Scanned int
	Skipped int
	SkipErr error
}

// ForEach visits every stored record in listing order, restarting across
// pages via the blob cursor. Non-JSON keys and undecodable blobs are skipped
// and reported on the ScanReport. A non-nil error from fn stops the scan.
func (s *Store) ForEach(ctx context.Context, fn func(Record) error) (*ScanReport, error) {
	report := &ScanReport{}
	cursor := ""
	for {
		page, err := s.blob.List(ctx, s.prefix, cursor)
		if err != nil {
			return report, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list donations")
		}
		for _, obj := range page.Objects {
			if !strings.HasSuffix(obj.Name, ".json") {
				report.Skipped++
				continue
			}
			data, err := s.blob.Get(ctx, obj.Name)
			if err != nil {
				return report, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read donation")
			}
			var rec Record
			if err := json.Unmarshal(data, &rec); err != nil {
				report.Skipped++
				report.SkipErr = multierr.Append(report.SkipErr, fmt.Errorf("decode %s: %w", obj.Name, err))
				continue
			}
			report.Scanned++
			if err := fn(rec); err != nil {
				return report, err
			}
		}
		if page.Cursor == "" {
			break
		}
		cursor = page.Cursor
	}
	return report, nil
}

// ListByTeam returns every record attributed to the given team.
func (s *Store) ListByTeam(ctx context.Context, teamRef string) ([]Record, error) {
	var out []Record
	_, err := s.ForEach(ctx, func(rec Record) error {
		if rec.TeamRef != nil && *rec.TeamRef == teamRef {
			out = append(out, rec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
