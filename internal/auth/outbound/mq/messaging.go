package mq

import (
	"context"
	"encoding/json"

	"github.com/gramconnect/gramconnect/internal/auth/usecase"
	"github.com/gramconnect/gramconnect/internal/pkg/instrument"
	"github.com/gramconnect/gramconnect/internal/pkg/messaging"
	"github.com/gramconnect/gramconnect/internal/shared/event"
	"go.opentelemetry.io/otel/codes"
)

const keyOfCorrelationID string = "cID"

type Messaging struct {
	client messaging.Messaging
	ins    instrument.Instrumentation
}

func NewMessaging(client messaging.Messaging, ins instrument.Instrumentation) *Messaging {
	return &Messaging{client: client, ins: ins}
}

func (m *Messaging) PublishVerifiedLogin(ctx context.Context, msg usecase.VerifiedLoginEvent) error {
	ctx, span := m.ins.Tracer("auth.outbound.mq").Start(ctx, "PublishVerifiedLogin")
	defer span.End()

	body, err := json.Marshal(event.VerifiedLoginMessage{
		UserID:     msg.UserID,
		Identifier: msg.Identifier,
		Purpose:    msg.Purpose,
		LoginAt:    msg.LoginAt,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	cID := instrument.GetCorrelationID(ctx)
	if _, err := m.client.Publish(ctx, event.VerifiedLoginDestination, messaging.OutgoingMessage{
		Body:    body,
		Headers: []messaging.Header{{Key: keyOfCorrelationID, Value: []byte(cID)}},
	}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}
