package domain

// EventKind classifies an inbound platform event. Kinds outside this set are
// ignored by the router.
type EventKind string

const (
	EventTransactionPosted  EventKind = "TRANSACTION_POSTED"
	EventTransactionChecked EventKind = "TRANSACTION_CHECKED"
	EventGroupCreated       EventKind = "GROUP_CREATED"
	EventGroupUpdated       EventKind = "GROUP_UPDATED"
	EventBookUpdated        EventKind = "BOOK_UPDATED"
	EventUnknown            EventKind = "UNKNOWN"
)

// Event is the tagged union handed to the router: exactly one of Transaction
// or Group is set depending on the kind, and PreviousAttributes carries the
// object's prior values on renames.
type Event struct {
	Kind               EventKind
	BookID             string
	Transaction        *Transaction
	Group              *Group
	PreviousAttributes map[string]string
}

// PreviousName returns the object's name before a rename, or "".
func (e *Event) PreviousName() string {
	if e.PreviousAttributes == nil {
		return ""
	}
	return e.PreviousAttributes["name"]
}
