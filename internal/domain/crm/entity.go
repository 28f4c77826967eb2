package crm

import "strings"

// Kind identifies one CRM entity type that accepts spreadsheet uploads. The
// value doubles as the URL path segment of its upload endpoints.
type Kind string

const (
	KindContacts       Kind = "contacts"
	KindLeads          Kind = "leads"
	KindOpportunities  Kind = "opportunities"
	KindAccounts       Kind = "accounts"
	KindTasks          Kind = "tasks"
	KindCalendarEvents Kind = "calendar-events"
	KindEmailCampaigns Kind = "email-campaigns"
)

var kinds = []Kind{
	KindContacts,
	KindLeads,
	KindOpportunities,
	KindAccounts,
	KindTasks,
	KindCalendarEvents,
	KindEmailCampaigns,
}

func Kinds() []Kind {
	out := make([]Kind, len(kinds))
	copy(out, kinds)
	return out
}

func ParseKind(raw string) (Kind, error) {
	candidate := Kind(strings.ToLower(strings.TrimSpace(raw)))
	for _, kind := range kinds {
		if kind == candidate {
			return kind, nil
		}
	}
	return "", ErrUnknownEntity
}
