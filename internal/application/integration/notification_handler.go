package integration

import (
	"context"
	"fmt"

	"github.com/gasdist/backend/internal/domain/approval"
	"github.com/gasdist/backend/internal/domain/integration"
	"github.com/gasdist/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// NotificationMetrics counts notification deliveries
type NotificationMetrics interface {
	NotificationSent(provider string, err error)
}

// NotificationHandler forwards approval events to the notify port
type NotificationHandler struct {
	notifier           integration.NotifyPort
	notifyOnSubmission bool
	metrics            NotificationMetrics
	logger             *zap.Logger
}

// NewNotificationHandler creates a handler for approval decisions, and for new
// submissions when notifyOnSubmission is set
func NewNotificationHandler(notifier integration.NotifyPort, notifyOnSubmission bool, logger *zap.Logger) *NotificationHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationHandler{
		notifier:           notifier,
		notifyOnSubmission: notifyOnSubmission,
		logger:             logger,
	}
}

// SetMetrics sets the delivery counters
func (h *NotificationHandler) SetMetrics(m NotificationMetrics) {
	h.metrics = m
}

// EventTypes returns the approval events this handler sends notifications for
func (h *NotificationHandler) EventTypes() []string {
	types := []string{approval.EventTypeApproved, approval.EventTypeRejected}
	if h.notifyOnSubmission {
		types = append(types, approval.EventTypeSubmitted)
	}
	return types
}

// Handle sends the notification for event. Other events are ignored.
func (h *NotificationHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	var n integration.Notification
	switch e := event.(type) {
	case *approval.SubmittedEvent:
		if !h.notifyOnSubmission {
			return nil
		}
		n = submittedNotification(e)
	case *approval.DecidedEvent:
		n = decidedNotification(e)
	default:
		return nil
	}
	n.CreatedAt = event.OccurredAt()

	err := h.notifier.Send(ctx, n)
	if h.metrics != nil {
		h.metrics.NotificationSent(h.notifier.Name(), err)
	}
	if err != nil {
		h.logger.Warn("Notification delivery failed",
			zap.String("provider", h.notifier.Name()),
			zap.String("type", n.Type),
			zap.Error(err),
		)
		return err
	}
	return nil
}

func submittedNotification(e *approval.SubmittedEvent) integration.Notification {
	body := fmt.Sprintf("A %s request for %s %s is waiting for review.",
		humanRequestType(e.RequestType), e.EntityType, e.EntityID)
	if e.Reason != "" {
		body += " Reason: " + e.Reason
	}
	return integration.Notification{
		Type:      e.EventType(),
		Subject:   "Approval requested",
		Body:      body,
		Recipient: "managers",
		Data: map[string]any{
			"approvalId":  e.ApprovalID.String(),
			"requestType": string(e.RequestType),
			"entityId":    e.EntityID.String(),
			"requestedBy": e.RequestedBy.String(),
		},
	}
}

func decidedNotification(e *approval.DecidedEvent) integration.Notification {
	subject := "Request approved"
	if e.Status == approval.StatusRejected {
		subject = "Request rejected"
	}
	body := fmt.Sprintf("Your %s request for %s was %s.", humanRequestType(e.RequestType), e.EntityID, e.Status)
	if e.ManagerNotes != "" {
		body += " Notes: " + e.ManagerNotes
	}
	return integration.Notification{
		Type:      e.EventType(),
		Subject:   subject,
		Body:      body,
		Recipient: e.RequestedBy.String(),
		Data: map[string]any{
			"approvalId":  e.ApprovalID.String(),
			"requestType": string(e.RequestType),
			"entityId":    e.EntityID.String(),
			"decidedBy":   e.DecidedBy.String(),
			"status":      string(e.Status),
		},
	}
}

func humanRequestType(t approval.RequestType) string {
	if t.IsDelete() {
		return "delete"
	}
	return "edit"
}

var _ shared.EventHandler = (*NotificationHandler)(nil)
