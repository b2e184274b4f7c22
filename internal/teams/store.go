package teams

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/solidarityfund/fundraiser-backend/pkg/blob"
	pkgerrors "github.com/solidarityfund/fundraiser-backend/pkg/errors"
)

const defaultTeamsPrefix = "teams/"

type blobStore interface {
	Put(ctx context.Context, key string, data []byte, opts blob.PutOptions) error
	Get(ctx context.Context, key string) ([]byte, error)
	List(ctx context.Context, prefix, cursor string) (*blob.Page, error)
	Delete(ctx context.Context, key string) error
}

// Store persists the team directory, one blob per slug.
type Store struct {
	blob   blobStore
	prefix string
}

func NewStore(b blobStore, prefix string) (*Store, error) {
	if b == nil {
		return nil, errors.New("blob store is required")
	}
	if prefix == "" {
		prefix = defaultTeamsPrefix
	}
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &Store{blob: b, prefix: prefix}, nil
}

func (s *Store) key(slug string) string {
	return s.prefix + slug + ".json"
}

// Create writes a new team with a create-if-absent guard; a second
// registration under the same slug conflicts instead of overwriting.
func (s *Store) Create(ctx context.Context, team Team) error {
	if team.Slug == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "team slug is required")
	}
	data, err := json.Marshal(team)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode team")
	}
	err = s.blob.Put(ctx, s.key(team.Slug), data, blob.PutOptions{
		ContentType: "application/json",
		IfAbsent:    true,
	})
	if err != nil {
		if errors.Is(err, blob.ErrPreconditionFailed) {
			return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "team already exists")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "write team")
	}
	return nil
}

// Get loads one team by slug.
func (s *Store) Get(ctx context.Context, slug string) (*Team, error) {
	data, err := s.blob.Get(ctx, s.key(slug))
	if err != nil {
		if errors.Is(err, blob.ErrNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "team not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read team")
	}
	var team Team
	if err := json.Unmarshal(data, &team); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode team")
	}
	return &team, nil
}

// List returns every registered team, walking the directory prefix page by
// page. Undecodable blobs are skipped.
func (s *Store) List(ctx context.Context) ([]Team, error) {
	var out []Team
	cursor := ""
	for {
		page, err := s.blob.List(ctx, s.prefix, cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list teams")
		}
		for _, obj := range page.Objects {
			if !strings.HasSuffix(obj.Name, ".json") {
				continue
			}
			data, err := s.blob.Get(ctx, obj.Name)
			if err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read team")
			}
			var team Team
			if err := json.Unmarshal(data, &team); err != nil {
				continue
			}
			out = append(out, team)
		}
		if page.Cursor == "" {
			break
		}
		cursor = page.Cursor
	}
	return out, nil
}

// DeleteAll removes every team blob. Organizers use it between campaigns;
// the HTTP surface refuses it in production.
func (s *Store) DeleteAll(ctx context.Context) (int, error) {
	deleted := 0
	// Deleting invalidates listing cursors, so restart the listing from the
	// top until a pass comes back empty.
	for {
		page, err := s.blob.List(ctx, s.prefix, "")
		if err != nil {
			return deleted, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list teams")
		}
		if len(page.Objects) == 0 {
			return deleted, nil
		}
		for _, obj := range page.Objects {
			if err := s.blob.Delete(ctx, obj.Name); err != nil {
				if errors.Is(err, blob.ErrNotFound) {
					continue
				}
				return deleted, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete team")
			}
			deleted++
		}
	}
}
