// Package assistants exposes the provider-hosted call agents in a local
// shape: just the identity and script fields the dashboard edits.
package assistants

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"outdial-platform/internal/vapi"
	"outdial-platform/pkg/utils"
)

// Assistant is the locally relevant projection of a provider assistant.
type Assistant struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	FirstMessage string `json:"firstMessage"`
	Script       string `json:"script"`
}

// Update carries the only two fields editable locally.
type Update struct {
	FirstMessage *string `json:"firstMessage,omitempty"`
	Script       *string `json:"script,omitempty"`
}

type Provider interface {
	ListAssistants(ctx context.Context) ([]vapi.Assistant, error)
	UpdateAssistant(ctx context.Context, id string, firstMessage, instructions *string) (vapi.Assistant, error)
}

const (
	cacheKey = "assistants:list"
	cacheTTL = 5 * time.Minute
)

// Service lists and edits assistants. The redis list cache is optional;
// with rdb nil every call hits the provider.
type Service struct {
	provider Provider
	rdb      *redis.Client
	log      *slog.Logger
}

func NewService(provider Provider, rdb *redis.Client, log *slog.Logger) *Service {
	return &Service{provider: provider, rdb: rdb, log: log}
}

func (s *Service) List(ctx context.Context) ([]Assistant, error) {
	if cached, ok := s.cachedList(ctx); ok {
		return cached, nil
	}

	raw, err := s.provider.ListAssistants(ctx)
	if err != nil {
		return nil, fmt.Errorf("list provider assistants: %w", err)
	}
	out := make([]Assistant, 0, len(raw))
	for _, a := range raw {
		out = append(out, fromProvider(a))
	}
	s.cacheList(ctx, out)
	return out, nil
}

// Set pushes edits to the provider and drops the stale list cache.
func (s *Service) Set(ctx context.Context, id string, upd Update) (Assistant, error) {
	a, err := s.provider.UpdateAssistant(ctx, id, upd.FirstMessage, upd.Script)
	if err != nil {
		return Assistant{}, fmt.Errorf("update provider assistant: %w", err)
	}
	if s.rdb != nil {
		if err := s.rdb.Del(ctx, cacheKey).Err(); err != nil {
			s.log.Warn("assistant cache invalidation failed", "error", err)
		}
	}
	return fromProvider(a), nil
}

func (s *Service) cachedList(ctx context.Context) ([]Assistant, bool) {
	if s.rdb == nil {
		return nil, false
	}
	raw, ok, err := utils.CacheGet(ctx, s.rdb, cacheKey)
	if err != nil {
		s.log.Warn("assistant cache read failed", "error", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}
	var out []Assistant
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, false
	}
	return out, true
}

func (s *Service) cacheList(ctx context.Context, list []Assistant) {
	if s.rdb == nil {
		return
	}
	raw, err := json.Marshal(list)
	if err != nil {
		return
	}
	if err := utils.CacheSet(ctx, s.rdb, cacheKey, string(raw), cacheTTL); err != nil {
		s.log.Warn("assistant cache write failed", "error", err)
	}
}

func fromProvider(a vapi.Assistant) Assistant {
	return Assistant{
		ID:           a.ID,
		Name:         a.Name,
		FirstMessage: a.FirstMessage,
		Script:       a.Script(),
	}
}
