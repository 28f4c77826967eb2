package crm

type FieldType int

const (
	FieldString FieldType = iota
	FieldEmail
	FieldInt
	FieldFloat
)

type Field struct {
	Name        string
	Type        FieldType
	Required    bool
	Allowed     []string
	Min         *float64
	Max         *float64
	Default     string
	Description string
	Example     string
}

// Schema lists every column an upload for Kind understands. NaturalKey names
// the column used for duplicate detection and is empty for kinds without one.
type Schema struct {
	Kind       Kind
	Fields     []Field
	NaturalKey string
}

func SchemaFor(kind Kind) (Schema, error) {
	switch kind {
	case KindContacts:
		return contactSchema, nil
	case KindLeads:
		return leadSchema, nil
	case KindOpportunities:
		return opportunitySchema, nil
	case KindAccounts:
		return accountSchema, nil
	case KindTasks:
		return taskSchema, nil
	case KindCalendarEvents:
		return calendarEventSchema, nil
	case KindEmailCampaigns:
		return emailCampaignSchema, nil
	default:
		return Schema{}, ErrUnknownEntity
	}
}

func (s Schema) Field(name string) (Field, bool) {
	for _, field := range s.Fields {
		if field.Name == name {
			return field, true
		}
	}
	return Field{}, false
}

func (s Schema) Columns() []string {
	columns := make([]string, 0, len(s.Fields))
	for _, field := range s.Fields {
		columns = append(columns, field.Name)
	}
	return columns
}

// MissingColumns returns the required columns absent from headers, in schema
// order.
func (s Schema) MissingColumns(headers []string) []string {
	present := make(map[string]struct{}, len(headers))
	for _, header := range headers {
		present[header] = struct{}{}
	}

	var missing []string
	for _, field := range s.Fields {
		if !field.Required {
			continue
		}
		if _, ok := present[field.Name]; !ok {
			missing = append(missing, field.Name)
		}
	}
	return missing
}

func bound(v float64) *float64 {
	return &v
}

var contactSchema = Schema{
	Kind:       KindContacts,
	NaturalKey: "email",
	Fields: []Field{
		{Name: "name", Type: FieldString, Required: true, Description: "Full name of the contact", Example: "John Doe"},
		{Name: "email", Type: FieldEmail, Required: true, Description: "Email address", Example: "john.doe@example.com"},
		{Name: "phone", Type: FieldString, Description: "Phone number", Example: "+1-234-567-8900"},
		{Name: "company", Type: FieldString, Description: "Company name", Example: "Acme Corp"},
		{Name: "position", Type: FieldString, Description: "Job position/title", Example: "Sales Manager"},
		{Name: "location", Type: FieldString, Description: "Location/Address", Example: "New York, NY"},
		{Name: "status", Type: FieldString, Allowed: []string{"Active", "Inactive"}, Default: "Active", Description: "Contact status", Example: "Active"},
		{Name: "last_contact", Type: FieldString, Description: "Last contact date (YYYY-MM-DD)", Example: "2025-01-15"},
	},
}

var leadSchema = Schema{
	Kind:       KindLeads,
	NaturalKey: "email",
	Fields: []Field{
		{Name: "name", Type: FieldString, Required: true, Description: "Lead name", Example: "Jane Smith"},
		{Name: "company", Type: FieldString, Required: true, Description: "Company name", Example: "Tech Solutions Inc"},
		{Name: "email", Type: FieldEmail, Required: true, Description: "Email address", Example: "jane.smith@techsolutions.com"},
		{Name: "phone", Type: FieldString, Description: "Phone number", Example: "+1-234-567-8901"},
		{Name: "source", Type: FieldString, Description: "Lead source", Example: "Website"},
		{Name: "status", Type: FieldString, Allowed: []string{"New", "Contacted", "Qualified", "Nurturing", "Lost"}, Default: "New", Description: "Lead status", Example: "New"},
		{Name: "score", Type: FieldInt, Min: bound(0), Max: bound(100), Default: "0", Description: "Lead score (0-100)", Example: "75"},
		{Name: "value", Type: FieldString, Description: "Expected deal value", Example: "$50000"},
		{Name: "assigned_to", Type: FieldString, Description: "Assigned sales rep", Example: "Sarah Johnson"},
	},
}

var opportunitySchema = Schema{
	Kind: KindOpportunities,
	Fields: []Field{
		{Name: "name", Type: FieldString, Required: true, Description: "Opportunity name", Example: "Enterprise Software Deal"},
		{Name: "account", Type: FieldString, Required: true, Description: "Account/Company name", Example: "Global Tech Corp"},
		{Name: "value", Type: FieldFloat, Required: true, Min: bound(0), Description: "Deal value (numeric only)", Example: "150000"},
		{Name: "stage", Type: FieldString, Allowed: []string{"Prospecting", "Qualification", "Proposal", "Negotiation", "Closed Won", "Closed Lost"}, Default: "Prospecting", Description: "Sales stage", Example: "Proposal"},
		{Name: "probability", Type: FieldInt, Min: bound(0), Max: bound(100), Default: "10", Description: "Win probability (0-100)", Example: "60"},
		{Name: "close_date", Type: FieldString, Description: "Expected close date (YYYY-MM-DD)", Example: "2025-03-31"},
		{Name: "owner", Type: FieldString, Description: "Opportunity owner", Example: "Mike Wilson"},
		{Name: "contact_id", Type: FieldInt, Description: "Associated contact ID (optional)", Example: "123"},
	},
}

var accountSchema = Schema{
	Kind:       KindAccounts,
	NaturalKey: "name",
	Fields: []Field{
		{Name: "name", Type: FieldString, Required: true, Description: "Account name", Example: "Global Enterprises LLC"},
		{Name: "industry", Type: FieldString, Description: "Industry sector", Example: "Technology"},
		{Name: "revenue", Type: FieldString, Description: "Annual revenue", Example: "$10M-50M"},
		{Name: "employees", Type: FieldInt, Min: bound(0), Description: "Number of employees", Example: "500"},
		{Name: "location", Type: FieldString, Description: "Location/Address", Example: "San Francisco, CA"},
		{Name: "phone", Type: FieldString, Description: "Main phone number", Example: "+1-415-555-0100"},
		{Name: "website", Type: FieldString, Description: "Company website", Example: "https://www.example.com"},
		{Name: "account_owner", Type: FieldString, Description: "Account owner/manager", Example: "Robert Brown"},
		{Name: "status", Type: FieldString, Allowed: []string{"Active", "Inactive", "Prospect"}, Default: "Active", Description: "Account status", Example: "Active"},
	},
}

var taskSchema = Schema{
	Kind: KindTasks,
	Fields: []Field{
		{Name: "title", Type: FieldString, Required: true, Description: "Task title", Example: "Follow up with client"},
		{Name: "description", Type: FieldString, Description: "Task description", Example: "Discuss Q1 renewal terms"},
		{Name: "priority", Type: FieldString, Allowed: []string{"Low", "Medium", "High", "Urgent"}, Default: "Medium", Description: "Task priority", Example: "High"},
		{Name: "status", Type: FieldString, Allowed: []string{"To Do", "In Progress", "Completed", "Cancelled"}, Default: "To Do", Description: "Task status", Example: "To Do"},
		{Name: "due_date", Type: FieldString, Description: "Due date (YYYY-MM-DD)", Example: "2025-01-20"},
		{Name: "assigned_to", Type: FieldString, Description: "Assigned to", Example: "Alice Cooper"},
		{Name: "related_to", Type: FieldString, Description: "Related entity", Example: "Acme Corp Deal"},
		{Name: "contact_id", Type: FieldInt, Description: "Associated contact ID (optional)", Example: "123"},
	},
}

var calendarEventSchema = Schema{
	Kind: KindCalendarEvents,
	Fields: []Field{
		{Name: "title", Type: FieldString, Required: true, Description: "Event title", Example: "Client Meeting"},
		{Name: "description", Type: FieldString, Description: "Event description", Example: "Quarterly business review"},
		{Name: "event_type", Type: FieldString, Allowed: []string{"Meeting", "Call", "Demo", "Conference", "Other"}, Default: "Meeting", Description: "Type of event", Example: "Meeting"},
		{Name: "start_time", Type: FieldString, Required: true, Description: "Start time (YYYY-MM-DD HH:MM)", Example: "2025-01-20 14:00"},
		{Name: "end_time", Type: FieldString, Description: "End time (YYYY-MM-DD HH:MM)", Example: "2025-01-20 15:00"},
		{Name: "location", Type: FieldString, Description: "Location or meeting link", Example: "Conference Room A"},
		{Name: "attendees", Type: FieldString, Description: "Attendees (comma-separated)", Example: "john@example.com, jane@example.com"},
		{Name: "status", Type: FieldString, Allowed: []string{"Scheduled", "Completed", "Cancelled", "Rescheduled"}, Default: "Scheduled", Description: "Event status", Example: "Scheduled"},
	},
}

var emailCampaignSchema = Schema{
	Kind: KindEmailCampaigns,
	Fields: []Field{
		{Name: "name", Type: FieldString, Required: true, Description: "Campaign name", Example: "Q1 Product Launch"},
		{Name: "subject", Type: FieldString, Required: true, Description: "Email subject line", Example: "Introducing Our Latest Innovation"},
		{Name: "status", Type: FieldString, Allowed: []string{"Draft", "Scheduled", "Sent", "Paused"}, Default: "Draft", Description: "Campaign status", Example: "Draft"},
		{Name: "sent_count", Type: FieldInt, Min: bound(0), Default: "0", Description: "Number of emails sent", Example: "0"},
		{Name: "open_rate", Type: FieldFloat, Min: bound(0), Max: bound(100), Default: "0", Description: "Open rate percentage (0-100)", Example: "25.5"},
		{Name: "click_rate", Type: FieldFloat, Min: bound(0), Max: bound(100), Default: "0", Description: "Click rate percentage (0-100)", Example: "5.2"},
		{Name: "conversion_rate", Type: FieldFloat, Min: bound(0), Max: bound(100), Default: "0", Description: "Conversion rate percentage (0-100)", Example: "2.1"},
		{Name: "scheduled_date", Type: FieldString, Description: "Scheduled date (YYYY-MM-DD)", Example: "2025-02-01"},
	},
}
