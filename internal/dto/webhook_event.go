package dto

import (
	"github.com/ledgerlink/exchange-bot/internal/core/domain"
	"github.com/shopspring/decimal"
)

// WebhookEventRequest is the inbound platform event payload. Exactly one of
// Data.Transaction or Data.Group is present depending on the event type;
// book-level events carry neither.
type WebhookEventRequest struct {
	Event  string           `json:"event" binding:"required"`
	BookID string           `json:"bookId" binding:"required"`
	Data   WebhookEventData `json:"data"`
}

// WebhookEventData carries the event's object and, on renames, the object's
// previous attributes.
type WebhookEventData struct {
	Transaction        *TransactionPayload `json:"transaction,omitempty"`
	Group              *GroupPayload       `json:"group,omitempty"`
	PreviousAttributes map[string]string   `json:"previousAttributes,omitempty"`
}

// TransactionPayload is the wire form of a transaction inside an event.
type TransactionPayload struct {
	ID            string            `json:"id"`
	Date          string            `json:"date"`
	Amount        *decimal.Decimal  `json:"amount,omitempty"`
	CreditAccount string            `json:"creditAccount"`
	DebitAccount  string            `json:"debitAccount"`
	Description   string            `json:"description"`
	Properties    map[string]string `json:"properties,omitempty"`
}

// GroupPayload is the wire form of a group inside an event.
type GroupPayload struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	Properties map[string]string `json:"properties,omitempty"`
}

// eventKinds maps the platform's event type strings onto the router's kinds.
var eventKinds = map[string]domain.EventKind{
	"transaction.posted":  domain.EventTransactionPosted,
	"transaction.checked": domain.EventTransactionChecked,
	"group.created":       domain.EventGroupCreated,
	"group.updated":       domain.EventGroupUpdated,
	"book.updated":        domain.EventBookUpdated,
}

// ToDomainEvent converts the wire payload into the router's tagged union.
// Unrecognized event types map to EventUnknown, which the router ignores.
func (r *WebhookEventRequest) ToDomainEvent() domain.Event {
	kind, ok := eventKinds[r.Event]
	if !ok {
		kind = domain.EventUnknown
	}

	event := domain.Event{
		Kind:               kind,
		BookID:             r.BookID,
		PreviousAttributes: r.Data.PreviousAttributes,
	}
	if r.Data.Transaction != nil {
		event.Transaction = &domain.Transaction{
			TransactionID: r.Data.Transaction.ID,
			Date:          r.Data.Transaction.Date,
			Amount:        r.Data.Transaction.Amount,
			CreditAccount: r.Data.Transaction.CreditAccount,
			DebitAccount:  r.Data.Transaction.DebitAccount,
			Description:   r.Data.Transaction.Description,
			Properties:    r.Data.Transaction.Properties,
		}
	}
	if r.Data.Group != nil {
		event.Group = &domain.Group{
			GroupID:    r.Data.Group.ID,
			Name:       r.Data.Group.Name,
			Properties: r.Data.Group.Properties,
		}
	}
	return event
}
