package resumes

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strconv"
	"strings"

	"interview-backend/internal/extract"
	"interview-backend/internal/shared/keylock"
	"interview-backend/internal/shared/storage/object"
	"interview-backend/internal/shared/telemetry"
	"interview-backend/internal/users"
)

// ErrNoSource is returned when the current resume has no archived original.
var ErrNoSource = errors.New("resume source not archived")

type UserLookup interface {
	GetByID(ctx context.Context, id int64) (users.User, error)
}

// Document is an uploaded resume file.
type Document struct {
	FileName    string
	ContentType string
	Data        []byte
}

func (d Document) metadata() extract.Metadata {
	return extract.Metadata{FileName: d.FileName, ContentType: d.ContentType, Size: int64(len(d.Data))}
}

type Service struct {
	Users     UserLookup
	Store     Store
	Extractor *Extractor
	// Objects archives the uploaded original when set.
	Objects object.Store

	locks keylock.Map
}

func NewService(users UserLookup, store Store, extractor *Extractor, objects object.Store) *Service {
	return &Service{Users: users, Store: store, Extractor: extractor, Objects: objects}
}

// Upload extracts text from doc, runs structured extraction and stores the
// result as the user's resume.
func (s *Service) Upload(ctx context.Context, userID int64, doc Document) (Record, error) {
	if _, err := s.Users.GetByID(ctx, userID); err != nil {
		return Record{}, err
	}
	meta := doc.metadata()
	if !extract.IsSupported(meta) {
		return Record{}, fmt.Errorf("%w: %s (%s)", extract.ErrUnsupportedDocument, doc.FileName, doc.ContentType)
	}
	text, err := extract.Text(ctx, doc.Data, meta)
	if err != nil {
		if errors.Is(err, extract.ErrUnsupportedDocument) || ctx.Err() != nil {
			return Record{}, err
		}
		return Record{}, fmt.Errorf("%w: %w", ErrExtractionFailed, err)
	}

	unlock, err := s.locks.Lock(ctx, lockKey(userID))
	if err != nil {
		return Record{}, err
	}
	defer unlock()

	rec, err := s.Extractor.Extract(ctx, text, userID)
	if err != nil {
		return Record{}, err
	}
	if key := s.archive(ctx, userID, doc); key != "" {
		rec.SourceKey = key
	}
	return rec, nil
}

// The resume is already stored; losing the original only costs the download.
func (s *Service) archive(ctx context.Context, userID int64, doc Document) string {
	if s.Objects == nil {
		return ""
	}
	obj, err := s.Objects.Save(ctx, userID, doc.FileName, bytes.NewReader(doc.Data))
	if err != nil {
		telemetry.Warn("resume.archive_failed", map[string]any{"user_id": userID, "error": err})
		return ""
	}
	if err := s.Store.AttachSource(ctx, userID, obj.Key); err != nil {
		telemetry.Warn("resume.archive_failed", map[string]any{"user_id": userID, "key": obj.Key, "error": err})
		return ""
	}
	return obj.Key
}

// Save validates and stores a resume edited by the user.
func (s *Service) Save(ctx context.Context, userID int64, resume StructuredResume) (Record, error) {
	if _, err := s.Users.GetByID(ctx, userID); err != nil {
		return Record{}, err
	}
	resume = resume.Normalize()
	if err := resume.Validate(); err != nil {
		return Record{}, err
	}

	unlock, err := s.locks.Lock(ctx, lockKey(userID))
	if err != nil {
		return Record{}, err
	}
	defer unlock()

	rec, err := s.Store.Upsert(ctx, userID, resume)
	if err != nil {
		return Record{}, fmt.Errorf("%w: %w", ErrPersistenceFailed, err)
	}
	telemetry.Info("resume.saved", map[string]any{"user_id": userID, "resume_id": rec.ID})
	return rec, nil
}

func (s *Service) Get(ctx context.Context, id int64) (Record, error) {
	return s.Store.GetByID(ctx, id)
}

func (s *Service) Current(ctx context.Context, userID int64) (Record, error) {
	return s.Store.GetByUserID(ctx, userID)
}

// OpenSource streams the archived original of the user's current resume.
func (s *Service) OpenSource(ctx context.Context, userID int64) (io.ReadCloser, string, error) {
	rec, err := s.Store.GetByUserID(ctx, userID)
	if err != nil {
		return nil, "", err
	}
	if !rec.HasSource() || s.Objects == nil {
		return nil, "", ErrNoSource
	}
	rc, err := s.Objects.Open(ctx, rec.SourceKey)
	if err != nil {
		if errors.Is(err, object.ErrNotFound) {
			return nil, "", ErrNoSource
		}
		return nil, "", err
	}
	return rc, sourceFileName(rec.SourceKey), nil
}

// Keys are <owner>/<uuid>_<name>.
func sourceFileName(key string) string {
	base := path.Base(key)
	if i := strings.IndexByte(base, '_'); i >= 0 && i+1 < len(base) {
		return base[i+1:]
	}
	return base
}

func lockKey(userID int64) string {
	return "resume:" + strconv.FormatInt(userID, 10)
}
