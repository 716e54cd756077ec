package resumes

import (
	"context"
	"errors"
	"fmt"

	"interview-backend/internal/llm"
	"interview-backend/internal/shared/metrics"
	"interview-backend/internal/shared/telemetry"
)

var (
	// ErrExtractionFailed means the model produced no usable structured resume.
	ErrExtractionFailed = errors.New("resume extraction failed")
	// ErrPersistenceFailed means a valid resume could not be stored.
	ErrPersistenceFailed = errors.New("resume persistence failed")
)

// Extractor turns raw resume text into a stored StructuredResume with one
// completion call and, on success only, one store write.
type Extractor struct {
	LLM   llm.Completer
	Store Store
}

func NewExtractor(completer llm.Completer, store Store) *Extractor {
	return &Extractor{LLM: completer, Store: store}
}

// Extract parses rawText and stores the result as the user's resume.
// Provider failures come back as *llm.ServiceError.
func (e *Extractor) Extract(ctx context.Context, rawText string, userID int64) (Record, error) {
	resume, err := e.Parse(ctx, rawText)
	if err != nil {
		return Record{}, err
	}

	rec, err := e.Store.Upsert(ctx, userID, resume)
	if err != nil {
		telemetry.Error("resume.persist_failed", map[string]any{"user_id": userID, "error": err})
		return Record{}, fmt.Errorf("%w: %w", ErrPersistenceFailed, err)
	}
	metrics.IncResumeExtracted()
	telemetry.Info("resume.extracted", map[string]any{
		"user_id":   userID,
		"resume_id": rec.ID,
		"skills":    len(rec.Resume.Skills),
		"jobs":      len(rec.Resume.WorkExperience),
	})
	return rec, nil
}

// Parse runs the completion and returns a validated resume without storing
// it. rawText is passed through unchanged; an empty or garbled dump is the
// model's to reject.
func (e *Extractor) Parse(ctx context.Context, rawText string) (StructuredResume, error) {
	var resume StructuredResume
	_, err := e.LLM.Complete(ctx, llm.Request{
		System: extractSystem,
		Prompt: llm.Prompt{
			Template: extractUser,
			Params:   map[string]any{"rawText": rawText},
		},
		Schema: StructuredResumeSchema,
		Target: &resume,
	})
	if err != nil {
		var decErr *llm.DecodeError
		if errors.As(err, &decErr) {
			return StructuredResume{}, fmt.Errorf("%w: %w", ErrExtractionFailed, err)
		}
		return StructuredResume{}, err
	}

	resume = resume.Normalize()
	if err := resume.Validate(); err != nil {
		return StructuredResume{}, fmt.Errorf("%w: %w", ErrExtractionFailed, err)
	}
	return resume, nil
}
