package pharmacy

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	pkgerrors "github.com/angelmondragon/practicerx-backend/pkg/errors"
)

const (
	EventType      = "order.pharmacy_submitted"
	envelopeVer    = 1
	defaultTimeout = 5 * time.Second
)

// Submission identifies one order line routed to a pharmacy.
type Submission struct {
	OrderID     uuid.UUID
	OrderLineID uuid.UUID
	PharmacyID  uuid.UUID
}

type envelope struct {
	Version    int         `json:"version"`
	EventID    string      `json:"event_id"`
	EventType  string      `json:"event_type"`
	OccurredAt time.Time   `json:"occurred_at"`
	Data       payloadData `json:"data"`
}

type payloadData struct {
	OrderID     uuid.UUID `json:"order_id"`
	OrderLineID uuid.UUID `json:"order_line_id"`
	PharmacyID  uuid.UUID `json:"pharmacy_id"`
}

type publisher interface {
	Publish(context.Context, *gcppubsub.Message) publishResult
}

type publishResult interface {
	Get(ctx context.Context) (string, error)
}

// Submitter publishes pharmacy submissions and waits for the broker ack.
type Submitter struct {
	pub     publisher
	timeout time.Duration
	now     func() time.Time
}

// NewSubmitter wraps the pharmacy topic publisher.
func NewSubmitter(pub *gcppubsub.Publisher, timeout time.Duration) (*Submitter, error) {
	if pub == nil {
		return nil, fmt.Errorf("pharmacy publisher required")
	}
	return newSubmitter(&gcpPublisher{Publisher: pub}, timeout), nil
}

func newSubmitter(pub publisher, timeout time.Duration) *Submitter {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Submitter{
		pub:     pub,
		timeout: timeout,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Submit publishes one order line and returns the broker message id.
func (s *Submitter) Submit(ctx context.Context, sub Submission) (string, error) {
	if sub.OrderID == uuid.Nil || sub.OrderLineID == uuid.Nil || sub.PharmacyID == uuid.Nil {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "order, order line and pharmacy ids are required")
	}

	eventID := uuid.NewString()
	occurredAt := s.now()
	payload, err := json.Marshal(envelope{
		Version:    envelopeVer,
		EventID:    eventID,
		EventType:  EventType,
		OccurredAt: occurredAt,
		Data: payloadData{
			OrderID:     sub.OrderID,
			OrderLineID: sub.OrderLineID,
			PharmacyID:  sub.PharmacyID,
		},
	})
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marshal pharmacy submission")
	}

	msg := &gcppubsub.Message{
		Data: payload,
		Attributes: map[string]string{
			"event_id":    eventID,
			"event_type":  EventType,
			"order_id":    sub.OrderID.String(),
			"pharmacy_id": sub.PharmacyID.String(),
			"created_at":  occurredAt.Format(time.RFC3339Nano),
		},
	}

	publishCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	result := s.pub.Publish(publishCtx, msg)
	if result == nil {
		return "", pkgerrors.New(pkgerrors.CodeDependency, "pharmacy publisher returned nil")
	}
	id, err := result.Get(publishCtx)
	if err != nil {
		return "", classifyPublishError(err)
	}
	return id, nil
}

func classifyPublishError(err error) error {
	switch status.Code(err) {
	case codes.NotFound, codes.PermissionDenied:
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "pharmacy topic unavailable")
	default:
		return pkgerrors.Wrap(pkgerrors.CodeUpstream, err, "publish pharmacy submission")
	}
}

type gcpPublisher struct {
	*gcppubsub.Publisher
}

func (p *gcpPublisher) Publish(ctx context.Context, msg *gcppubsub.Message) publishResult {
	if p == nil || p.Publisher == nil {
		return nil
	}
	return &gcpPublishResult{PublishResult: p.Publisher.Publish(ctx, msg)}
}

type gcpPublishResult struct {
	*gcppubsub.PublishResult
}

func (r *gcpPublishResult) Get(ctx context.Context) (string, error) {
	if r == nil || r.PublishResult == nil {
		return "", fmt.Errorf("publish result missing")
	}
	return r.PublishResult.Get(ctx)
}
