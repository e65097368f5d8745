package consumer

import (
	"context"
	"log/slog"
	"sync"

	"example.com/mergington/internal/domain"
)

// AuditHandler writes one log line per roster change and keeps a running
// net enrollment count per activity since the consumer started.
type AuditHandler struct {
	logger *slog.Logger

	mu     sync.Mutex
	deltas map[string]int
}

// NewAuditHandler builds an AuditHandler.
func NewAuditHandler(logger *slog.Logger) *AuditHandler {
	return &AuditHandler{logger: logger, deltas: make(map[string]int)}
}

// Handle implements Handler.
func (h *AuditHandler) Handle(_ context.Context, msg Message) error {
	h.mu.Lock()
	switch domain.EnrollmentAction(msg.Change.Action) {
	case domain.EnrollmentActionEnrolled:
		h.deltas[msg.Change.Activity]++
	case domain.EnrollmentActionUnenrolled:
		h.deltas[msg.Change.Activity]--
	}
	delta := h.deltas[msg.Change.Activity]
	h.mu.Unlock()

	h.logger.Info("roster change",
		"activity", msg.Change.Activity,
		"email", msg.Change.Email,
		"action", msg.Change.Action,
		"occurred_at", msg.Change.OccurredAt,
		"net_change", delta,
		"partition", msg.Partition,
		"offset", msg.Offset,
	)
	return nil
}

// NetChange reports enrollments minus unenrollments seen for activity.
func (h *AuditHandler) NetChange(activity string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.deltas[activity]
}
