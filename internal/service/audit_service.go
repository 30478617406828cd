package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"atlantic-photo/internal/event"
	"atlantic-photo/internal/model"
)

const (
	AuditStatusSuccess = "success"
	AuditStatusFailure = "failure"
)

// AuditService persists every bus event as an audit entry and serves
// filtered queries over them.
type AuditService struct {
	store AuditStore
}

func NewAuditService(store AuditStore) *AuditService {
	return &AuditService{store: store}
}

// Consume records events from bus until ctx is cancelled.
func (s *AuditService) Consume(ctx context.Context, bus event.Bus) {
	events, unsubscribe := bus.Subscribe()
	defer unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-events:
			if !ok {
				return
			}
			if err := s.Record(ctx, e); err != nil {
				slog.Error("failed to record audit entry", "type", e.Type, "error", err)
			}
		}
	}
}

func (s *AuditService) Record(ctx context.Context, e event.Event) error {
	return s.store.Log(ctx, entryFor(e))
}

func (s *AuditService) Query(ctx context.Context, query model.AuditQuery) ([]model.AuditEntry, model.Meta, error) {
	if err := validateAuditTime("from", query.From); err != nil {
		return nil, model.Meta{}, err
	}
	if err := validateAuditTime("to", query.To); err != nil {
		return nil, model.Meta{}, err
	}
	if actor := strings.TrimSpace(query.ActorID); actor != "" {
		if _, err := strconv.ParseInt(actor, 10, 64); err != nil {
			return nil, model.Meta{}, invalid("actor_id %q is not a number", actor)
		}
	}

	return s.store.Query(ctx, query)
}

func entryFor(e event.Event) model.AuditEntry {
	status := AuditStatusSuccess
	if e.Type.Failure() {
		status = AuditStatusFailure
	}

	detail := ""
	if e.Payload != nil {
		if data, err := json.Marshal(e.Payload); err == nil {
			detail = string(data)
		}
	}

	return model.AuditEntry{
		Action:     string(e.Type),
		OccurredAt: e.Timestamp,
		ActorID:    e.ActorID,
		ActorEmail: e.ActorEmail,
		Status:     status,
		Resource:   e.Resource,
		Detail:     detail,
	}
}

func validateAuditTime(field string, raw string) error {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil
	}
	if _, err := time.Parse(time.RFC3339Nano, trimmed); err == nil {
		return nil
	}
	if _, err := time.Parse(time.RFC3339, trimmed); err != nil {
		return fmt.Errorf("%w: invalid '%s' datetime format", model.ErrValidationFailed, field)
	}
	return nil
}
