package campaigns

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// FieldError describes one invalid field in a create request.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type ValidationError struct {
	Fields []FieldError `json:"fields"`
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + " " + f.Message
	}
	return "invalid campaign: " + strings.Join(parts, ", ")
}

const (
	maxNameLen   = 120
	maxScriptLen = 5000
)

type Service struct {
	store Store
	log   *slog.Logger
}

func NewService(store Store, log *slog.Logger) *Service {
	return &Service{store: store, log: log}
}

func (s *Service) List(ctx context.Context) ([]Campaign, error) {
	return s.store.List(ctx)
}

// Create validates and persists a campaign. Name uniqueness ignores case
// and surrounding or repeated whitespace, so "Sales  Q3" and "sales q3"
// collide.
func (s *Service) Create(ctx context.Context, n New) (Campaign, error) {
	n.Name = strings.TrimSpace(n.Name)
	n.Industry = strings.TrimSpace(n.Industry)
	n.Goal = strings.TrimSpace(n.Goal)

	var fieldErrs []FieldError
	if n.Name == "" {
		fieldErrs = append(fieldErrs, FieldError{Field: "name", Message: "is required"})
	} else if len(n.Name) > maxNameLen {
		fieldErrs = append(fieldErrs, FieldError{Field: "name", Message: fmt.Sprintf("must be at most %d characters", maxNameLen)})
	}
	if n.Industry == "" {
		fieldErrs = append(fieldErrs, FieldError{Field: "industry", Message: "is required"})
	}
	if n.Goal == "" {
		fieldErrs = append(fieldErrs, FieldError{Field: "goal", Message: "is required"})
	}
	if len(n.OpeningScript) > maxScriptLen {
		fieldErrs = append(fieldErrs, FieldError{Field: "openingScript", Message: fmt.Sprintf("must be at most %d characters", maxScriptLen)})
	}
	if len(fieldErrs) > 0 {
		return Campaign{}, &ValidationError{Fields: fieldErrs}
	}

	c, err := s.store.Create(ctx, n)
	if err != nil {
		return Campaign{}, err
	}
	s.log.Info("campaign created", "campaign_id", c.ID, "name", c.Name)
	return c, nil
}

func (s *Service) Delete(ctx context.Context, ids []int64) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	return s.store.DeleteMany(ctx, ids)
}

// NameKey is the canonical form used for uniqueness: lowercased, with
// whitespace runs collapsed to single spaces.
func NameKey(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}
