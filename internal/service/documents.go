package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"settingsapi/internal/config"
	"settingsapi/internal/model"
	"settingsapi/internal/repository"
	"settingsapi/internal/storage"
)

// sniffLen is how much of each upload is buffered to detect its content type.
const sniffLen = 3072

var documentTypes = []string{
	"application/pdf",
	"application/msword",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"text/plain",
}

// Upload is one file of a multipart request. Content is read exactly once.
type Upload struct {
	Filename string
	Size     int64
	Content  io.Reader
}

// UploadMeta carries the form fields that apply to every file of a document upload.
type UploadMeta struct {
	Description string
	Category    string
}

// DocumentListResult is the list payload for a user's documents.
type DocumentListResult struct {
	Items []model.Document `json:"data"`
	Total int              `json:"total"`
}

// Download is a readable stored file. The caller must close Body.
type Download struct {
	Body     io.ReadCloser
	Filename string
	MimeType string
	Size     int64
}

// DocumentService defines the use cases for a user's uploaded files.
type DocumentService interface {
	List(ctx context.Context, userID string) (*DocumentListResult, error)

	// Upload validates the whole batch before writing anything, stores each file, and then
	// appends their metadata in a single record write. Any failure returns one *UploadError
	// after removing the objects written by this call.
	Upload(ctx context.Context, userID string, files []Upload, meta UploadMeta) ([]model.Document, error)

	// Delete removes the metadata and then, best effort, the backing object.
	Delete(ctx context.Context, userID, documentID string) error

	Download(ctx context.Context, userID, documentID string) (*Download, error)

	// PresignDownload returns a time-limited direct URL for the document.
	PresignDownload(ctx context.Context, userID, documentID string) (string, error)

	// UploadProfilePicture stores an image and makes it the current picture. The previous
	// picture is removed best effort once the new path is saved.
	UploadProfilePicture(ctx context.Context, userID string, file Upload) (*model.Settings, error)

	DownloadProfilePicture(ctx context.Context, userID string) (*Download, error)
}

type documentService struct {
	repo   repository.SettingsRepository
	store  storage.Storage
	limits config.UploadConfig
	log    log.FieldLogger
	now    func() time.Time
}

// NewDocumentService constructs a DocumentService.
func NewDocumentService(repo repository.SettingsRepository, store storage.Storage, limits config.UploadConfig, logger log.FieldLogger) DocumentService {
	return &documentService{
		repo:   repo,
		store:  store,
		limits: limits,
		log:    logger.WithField("component", "document_service"),
		now:    time.Now,
	}
}

func (s *documentService) List(ctx context.Context, userID string) (res *DocumentListResult, err error) {
	ctx, span := tracer.Start(ctx, "DocumentService.List")
	defer func() { endSpan(span, err) }()

	rec, err := s.load(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return &DocumentListResult{Items: []model.Document{}, Total: 0}, nil
		}
		return nil, err
	}
	return &DocumentListResult{Items: rec.Documents, Total: len(rec.Documents)}, nil
}

// prepared is a validated file waiting to be written.
type prepared struct {
	doc     model.Document
	content io.Reader
}

func (s *documentService) Upload(ctx context.Context, userID string, files []Upload, meta UploadMeta) (docs []model.Document, err error) {
	ctx, span := tracer.Start(ctx, "DocumentService.Upload")
	defer func() { endSpan(span, err) }()
	span.SetAttributes(attribute.Int("upload.files", len(files)))

	if err := authorize(ctx, userID); err != nil {
		return nil, err
	}

	batch, err := s.validateBatch(userID, files, meta)
	if err != nil {
		return nil, err
	}

	rec, err := s.loadForWrite(ctx, userID)
	if err != nil {
		return nil, err
	}

	written := make([]string, 0, len(batch))
	for i := range batch {
		p := &batch[i]
		info, err := s.store.Put(ctx, p.doc.Path, p.content, storage.PutObjectOptions{
			Size:        p.doc.Size,
			ContentType: p.doc.MimeType,
			Metadata:    map[string]string{"original-filename": p.doc.OriginalName},
		})
		if err != nil {
			removeObjects(ctx, s.store, s.log, written)
			return nil, &UploadError{Stage: StageStorage, Reason: fmt.Sprintf("storing %q", p.doc.OriginalName), Err: err}
		}
		if info.Size > 0 {
			p.doc.Size = info.Size
		}
		written = append(written, p.doc.Path)
	}

	docs = make([]model.Document, len(batch))
	for i, p := range batch {
		docs[i] = p.doc
	}
	rec.Documents = append(rec.Documents, docs...)
	rec.UpdatedAt = s.now().UTC()

	if _, err := s.repo.Save(ctx, rec); err != nil {
		removeObjects(ctx, s.store, s.log, written)
		return nil, &UploadError{Stage: StagePersist, Reason: "saving document metadata", Err: err}
	}
	return docs, nil
}

// validateBatch checks every file before anything is written, sniffing content types from
// the first bytes of each stream.
func (s *documentService) validateBatch(userID string, files []Upload, meta UploadMeta) ([]prepared, error) {
	if len(files) == 0 {
		return nil, rejectUpload("no files provided")
	}
	if len(files) > s.limits.MaxDocuments {
		return nil, rejectUpload("too many files: at most %d per upload", s.limits.MaxDocuments)
	}

	category := meta.Category
	if category == "" {
		category = model.CategoryOther
	}
	if errs := (&model.Document{Category: category}).Validate(); len(errs) > 0 {
		return nil, rejectUpload("category %s", errs["category"])
	}

	ts := s.now().UTC()
	batch := make([]prepared, 0, len(files))
	for _, f := range files {
		if err := s.checkSize(f); err != nil {
			return nil, err
		}
		mt, content, err := sniff(f.Content)
		if err != nil {
			return nil, &UploadError{Stage: StageValidation, Reason: fmt.Sprintf("reading %q", f.Filename), Err: err}
		}
		storedType, ok := allowedDocument(mt)
		if !ok {
			return nil, rejectUpload("%q has unsupported type %s", f.Filename, mt.String())
		}

		doc := newDocument(userID, f, mt, ts)
		doc.MimeType = storedType
		doc.Description = meta.Description
		doc.Category = category
		batch = append(batch, prepared{doc: doc, content: content})
	}
	return batch, nil
}

func (s *documentService) checkSize(f Upload) error {
	if f.Content == nil {
		return rejectUpload("%q has no content", f.Filename)
	}
	if f.Size <= 0 {
		return rejectUpload("%q is empty", f.Filename)
	}
	if f.Size > s.maxBytes() {
		return rejectUpload("%q exceeds %d MB", f.Filename, s.limits.MaxFileSizeMB)
	}
	return nil
}

func (s *documentService) Delete(ctx context.Context, userID, documentID string) (err error) {
	ctx, span := tracer.Start(ctx, "DocumentService.Delete")
	defer func() { endSpan(span, err) }()

	rec, err := s.load(ctx, userID)
	if err != nil {
		return err
	}
	idx := rec.FindDocument(documentID)
	if idx < 0 {
		return ErrNotFound
	}

	key := rec.Documents[idx].Path
	rec.Documents = append(rec.Documents[:idx], rec.Documents[idx+1:]...)
	rec.UpdatedAt = s.now().UTC()
	if _, err := s.repo.Save(ctx, rec); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}

	removeObjects(ctx, s.store, s.log, []string{key})
	return nil
}

func (s *documentService) Download(ctx context.Context, userID, documentID string) (dl *Download, err error) {
	ctx, span := tracer.Start(ctx, "DocumentService.Download")
	defer func() { endSpan(span, err) }()

	doc, err := s.findDocument(ctx, userID, documentID)
	if err != nil {
		return nil, err
	}
	body, info, err := s.open(ctx, doc.Path)
	if err != nil {
		return nil, err
	}
	return &Download{Body: body, Filename: doc.OriginalName, MimeType: doc.MimeType, Size: info.Size}, nil
}

func (s *documentService) PresignDownload(ctx context.Context, userID, documentID string) (u string, err error) {
	ctx, span := tracer.Start(ctx, "DocumentService.PresignDownload")
	defer func() { endSpan(span, err) }()

	doc, err := s.findDocument(ctx, userID, documentID)
	if err != nil {
		return "", err
	}
	u, err = s.store.PresignGet(ctx, doc.Path, time.Duration(s.limits.PresignExpirySec)*time.Second)
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", doc.Path, err)
	}
	return u, nil
}

func (s *documentService) UploadProfilePicture(ctx context.Context, userID string, file Upload) (out *model.Settings, err error) {
	ctx, span := tracer.Start(ctx, "DocumentService.UploadProfilePicture")
	defer func() { endSpan(span, err) }()

	if err := authorize(ctx, userID); err != nil {
		return nil, err
	}
	if err := s.checkSize(file); err != nil {
		return nil, err
	}
	mt, content, err := sniff(file.Content)
	if err != nil {
		return nil, &UploadError{Stage: StageValidation, Reason: "reading profile picture", Err: err}
	}
	if !strings.HasPrefix(mt.String(), "image/") {
		return nil, rejectUpload("profile picture must be an image, got %s", mt.String())
	}

	rec, err := s.loadForWrite(ctx, userID)
	if err != nil {
		return nil, err
	}

	key := objectKey("profile-pictures", userID, file.Filename, mt)
	if _, err := s.store.Put(ctx, key, content, storage.PutObjectOptions{
		Size:        file.Size,
		ContentType: mt.String(),
		Metadata:    map[string]string{"original-filename": file.Filename},
	}); err != nil {
		return nil, &UploadError{Stage: StageStorage, Reason: "storing profile picture", Err: err}
	}

	previous := rec.ProfilePicture
	rec.ProfilePicture = key
	rec.UpdatedAt = s.now().UTC()
	out, err = s.repo.Save(ctx, rec)
	if err != nil {
		removeObjects(ctx, s.store, s.log, []string{key})
		return nil, &UploadError{Stage: StagePersist, Reason: "saving profile picture", Err: err}
	}

	if previous != "" && previous != key {
		removeObjects(ctx, s.store, s.log, []string{previous})
	}
	return out, nil
}

func (s *documentService) DownloadProfilePicture(ctx context.Context, userID string) (dl *Download, err error) {
	ctx, span := tracer.Start(ctx, "DocumentService.DownloadProfilePicture")
	defer func() { endSpan(span, err) }()

	rec, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if rec.ProfilePicture == "" {
		return nil, ErrNotFound
	}
	body, info, err := s.open(ctx, rec.ProfilePicture)
	if err != nil {
		return nil, err
	}
	return &Download{Body: body, Filename: path.Base(rec.ProfilePicture), MimeType: info.ContentType, Size: info.Size}, nil
}

// load authorizes the caller and returns the stored record, or ErrNotFound.
func (s *documentService) load(ctx context.Context, userID string) (*model.Settings, error) {
	if err := authorize(ctx, userID); err != nil {
		return nil, err
	}
	rec, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load settings: %w", err)
	}
	return rec, nil
}

// loadForWrite returns the stored record, or fresh defaults when the user has none yet.
func (s *documentService) loadForWrite(ctx context.Context, userID string) (*model.Settings, error) {
	rec, err := s.repo.FindByUserID(ctx, userID)
	if err == nil {
		return rec, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	rec = model.DefaultSettings(userID)
	ts := s.now().UTC()
	rec.CreatedAt = ts
	rec.UpdatedAt = ts
	return rec, nil
}

func (s *documentService) findDocument(ctx context.Context, userID, documentID string) (*model.Document, error) {
	rec, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	idx := rec.FindDocument(documentID)
	if idx < 0 {
		return nil, ErrNotFound
	}
	return &rec.Documents[idx], nil
}

func (s *documentService) open(ctx context.Context, key string) (io.ReadCloser, storage.ObjectInfo, error) {
	body, info, err := s.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, storage.ObjectInfo{}, ErrNotFound
		}
		return nil, storage.ObjectInfo{}, fmt.Errorf("open %s: %w", key, err)
	}
	return body, info, nil
}

func (s *documentService) maxBytes() int64 {
	return int64(s.limits.MaxFileSizeMB) << 20
}

// sniff detects the content type of r and returns a reader that replays the consumed prefix.
func sniff(r io.Reader) (*mimetype.MIME, io.Reader, error) {
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, nil, err
	}
	head = head[:n]
	return mimetype.Detect(head), io.MultiReader(bytes.NewReader(head), r), nil
}

// allowedDocument reports whether mt, or one of its ancestors in the mimetype tree, is an
// accepted document type. It returns the type to record: the detected one on an exact match,
// otherwise the accepted ancestor, so text that merely looks like CSV, JSON or HTML is kept
// as text/plain.
func allowedDocument(mt *mimetype.MIME) (string, bool) {
	if strings.HasPrefix(mt.String(), "image/") {
		return mt.String(), true
	}
	for m := mt; m != nil; m = m.Parent() {
		for _, t := range documentTypes {
			if m.Is(t) {
				if m == mt {
					return mt.String(), true
				}
				return t, true
			}
		}
	}
	return "", false
}

func newDocument(userID string, f Upload, mt *mimetype.MIME, ts time.Time) model.Document {
	key := objectKey("documents", userID, f.Filename, mt)
	return model.Document{
		ID:           uuid.NewString(),
		Filename:     path.Base(key),
		OriginalName: f.Filename,
		Path:         key,
		Size:         f.Size,
		MimeType:     mt.String(),
		UploadDate:   ts,
	}
}

// objectKey builds "<prefix>/<userId>/<uuid><ext>". The extension comes from the client
// filename, or from the sniffed type when the filename has none.
func objectKey(prefix, userID, filename string, mt *mimetype.MIME) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		ext = mt.Extension()
	}
	return path.Join(prefix, userID, uuid.NewString()+ext)
}

// removeObjects deletes keys concurrently. Failures are logged, never returned.
func removeObjects(ctx context.Context, store storage.Storage, logger log.FieldLogger, keys []string) {
	if len(keys) == 0 {
		return
	}
	// Cleanup must run even when the request context is already cancelled.
	ctx = context.WithoutCancel(ctx)

	var g errgroup.Group
	g.SetLimit(4)
	for _, key := range keys {
		key := key
		g.Go(func() error {
			if err := store.Delete(ctx, key); err != nil {
				logger.WithError(err).WithField("key", key).Warn("object cleanup failed")
			}
			return nil
		})
	}
	_ = g.Wait()
}
