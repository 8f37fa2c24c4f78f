package domain

// Group is a named set of accounts within a book. Like accounts, groups are
// joined across books by name; renames are tracked through the event's
// previous attributes.
type Group struct {
	GroupID    string            `json:"groupID"`
	Name       string            `json:"name"`
	Properties map[string]string `json:"properties"`
}
