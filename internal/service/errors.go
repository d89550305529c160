package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.mongodb.org/mongo-driver/v2/bson"

	"settingsapi/internal/model"
	"settingsapi/internal/security"
)

var (
	ErrInvalidID    = errors.New("invalid user id")
	ErrUnauthorized = errors.New("missing caller identity")
	ErrForbidden    = errors.New("caller may only access their own settings")
	ErrNotFound     = errors.New("not found")
	ErrUnknownField = errors.New("unknown settings field")
)

// ValidationError lists every offending field of a rejected write.
type ValidationError struct {
	Fields model.FieldErrors
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + " " + e.Fields[k]
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// UploadStage tells where in the pipeline an upload failed.
type UploadStage string

const (
	StageValidation UploadStage = "validation"
	StageStorage    UploadStage = "storage"
	StagePersist    UploadStage = "persist"
)

// UploadError is the single error returned for a failed upload call.
type UploadError struct {
	Stage  UploadStage
	Reason string
	Err    error
}

func (e *UploadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("upload failed: %s: %v", e.Reason, e.Err)
	}
	return "upload failed: " + e.Reason
}

func (e *UploadError) Unwrap() error { return e.Err }

func rejectUpload(format string, args ...any) *UploadError {
	return &UploadError{Stage: StageValidation, Reason: fmt.Sprintf(format, args...)}
}

// authorize runs the per-request checks in order: well-formed id, identity present, identity matches.
func authorize(ctx context.Context, userID string) error {
	if _, err := bson.ObjectIDFromHex(userID); err != nil {
		return ErrInvalidID
	}
	caller, ok := security.IdentityFromContext(ctx)
	if !ok {
		return ErrUnauthorized
	}
	if caller != userID {
		return ErrForbidden
	}
	return nil
}
