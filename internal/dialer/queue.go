package dialer

import (
	"context"
	"fmt"
	"strings"

	"outdial-platform/internal/candidate"
	"outdial-platform/internal/phone"
)

// FieldError points at one bad row in a queue upload.
type FieldError struct {
	Index   int    `json:"index"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError rejects a whole upload; nothing is persisted when any
// row fails.
type ValidationError struct {
	Fields []FieldError `json:"fields"`
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 1 {
		f := e.Fields[0]
		return fmt.Sprintf("row %d: %s %s", f.Index, f.Field, f.Message)
	}
	return fmt.Sprintf("%d invalid rows in upload", len(e.Fields))
}

// AddToQueue bulk-creates pending candidates. Every row needs a name and
// a dialable phone number; numbers are normalized to E.164 before
// storage so later matching and dialing see a consistent form.
func (s *Service) AddToQueue(ctx context.Context, rows []candidate.New) ([]candidate.Candidate, error) {
	if len(rows) == 0 {
		return nil, &ValidationError{Fields: []FieldError{{Index: 0, Field: "candidates", Message: "at least one candidate is required"}}}
	}

	var fieldErrs []FieldError
	cleaned := make([]candidate.New, 0, len(rows))
	for i, row := range rows {
		row.Name = strings.TrimSpace(row.Name)
		row.Phone = strings.TrimSpace(row.Phone)
		if row.Name == "" {
			fieldErrs = append(fieldErrs, FieldError{Index: i, Field: "name", Message: "is required"})
		}
		if row.Phone == "" {
			fieldErrs = append(fieldErrs, FieldError{Index: i, Field: "phone", Message: "is required"})
		} else if !phone.Valid(row.Phone) {
			fieldErrs = append(fieldErrs, FieldError{Index: i, Field: "phone", Message: fmt.Sprintf("%q is not a dialable number", row.Phone)})
		} else {
			row.Phone = phone.NormalizeE164(row.Phone)
		}
		cleaned = append(cleaned, row)
	}
	if len(fieldErrs) > 0 {
		return nil, &ValidationError{Fields: fieldErrs}
	}

	created, err := s.candidates.CreateBatch(ctx, cleaned)
	if err != nil {
		return nil, fmt.Errorf("create candidates: %w", err)
	}
	s.log.Info("candidates queued", "count", len(created))
	return created, nil
}

// ClearQueue drops every pending candidate. In-flight and completed
// records are untouched.
func (s *Service) ClearQueue(ctx context.Context) error {
	return s.candidates.DeleteByStatus(ctx, candidate.StatusPending)
}
