package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/yash-jain-1224/crm-dashboard/internal/domain/crm"
	"github.com/yash-jain-1224/crm-dashboard/internal/infrastructure/db/models"
	"gorm.io/gorm"
)

type EntityRepository struct {
	db *gorm.DB
}

func NewEntityRepository(db *gorm.DB) *EntityRepository {
	return &EntityRepository{db: db}
}

// Insert writes one validated record and returns its id. A unique-key
// violation is reported as crm.ErrDuplicateKey.
func (r *EntityRepository) Insert(ctx context.Context, record crm.Record) (int64, error) {
	row, id, err := toModel(record)
	if err != nil {
		return 0, err
	}

	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return 0, crm.ErrDuplicateKey
		}
		return 0, fmt.Errorf("insert %s: %w", record.Kind, err)
	}
	return *id, nil
}

// ExistingKeys returns which of keys are already stored for kind, compared
// case-insensitively.
func (r *EntityRepository) ExistingKeys(ctx context.Context, kind crm.Kind, keys []string) (map[string]struct{}, error) {
	existing := make(map[string]struct{})
	table, column, ok := naturalKeyColumn(kind)
	if !ok || len(keys) == 0 {
		return existing, nil
	}

	var found []string
	expr := fmt.Sprintf("lower(%s)", column)
	err := r.db.WithContext(ctx).
		Table(table).
		Where(expr+" IN ?", keys).
		Pluck(expr, &found).Error
	if err != nil {
		return nil, fmt.Errorf("lookup existing %s keys: %w", kind, err)
	}

	for _, key := range found {
		existing[key] = struct{}{}
	}
	return existing, nil
}

func naturalKeyColumn(kind crm.Kind) (table, column string, ok bool) {
	switch kind {
	case crm.KindContacts:
		return models.Contact{}.TableName(), "email", true
	case crm.KindLeads:
		return models.Lead{}.TableName(), "email", true
	case crm.KindAccounts:
		return models.Account{}.TableName(), "name", true
	default:
		return "", "", false
	}
}

func optionalInt(record crm.Record, name string) *int64 {
	v, ok := record.Int(name)
	if !ok {
		return nil
	}
	return &v
}

func intOrZero(record crm.Record, name string) int64 {
	v, _ := record.Int(name)
	return v
}

func floatOrZero(record crm.Record, name string) float64 {
	v, _ := record.Float(name)
	return v
}

// toModel maps a record onto its gorm model. The returned id pointer is
// filled in by Create.
func toModel(record crm.Record) (any, *int64, error) {
	s := record.String

	switch record.Kind {
	case crm.KindContacts:
		row := &models.Contact{
			Name:        s("name"),
			Email:       s("email"),
			Phone:       s("phone"),
			Company:     s("company"),
			Position:    s("position"),
			Location:    s("location"),
			Status:      s("status"),
			LastContact: s("last_contact"),
		}
		return row, &row.ID, nil
	case crm.KindLeads:
		row := &models.Lead{
			Name:       s("name"),
			Company:    s("company"),
			Email:      s("email"),
			Phone:      s("phone"),
			Source:     s("source"),
			Status:     s("status"),
			Score:      intOrZero(record, "score"),
			Value:      s("value"),
			AssignedTo: s("assigned_to"),
		}
		return row, &row.ID, nil
	case crm.KindOpportunities:
		row := &models.Opportunity{
			Name:        s("name"),
			Account:     s("account"),
			Value:       floatOrZero(record, "value"),
			Stage:       s("stage"),
			Probability: intOrZero(record, "probability"),
			CloseDate:   s("close_date"),
			Owner:       s("owner"),
			ContactID:   optionalInt(record, "contact_id"),
		}
		return row, &row.ID, nil
	case crm.KindAccounts:
		row := &models.Account{
			Name:         s("name"),
			Industry:     s("industry"),
			Revenue:      s("revenue"),
			Employees:    optionalInt(record, "employees"),
			Location:     s("location"),
			Phone:        s("phone"),
			Website:      s("website"),
			AccountOwner: s("account_owner"),
			Status:       s("status"),
		}
		return row, &row.ID, nil
	case crm.KindTasks:
		row := &models.Task{
			Title:       s("title"),
			Description: s("description"),
			Priority:    s("priority"),
			Status:      s("status"),
			DueDate:     s("due_date"),
			AssignedTo:  s("assigned_to"),
			RelatedTo:   s("related_to"),
			ContactID:   optionalInt(record, "contact_id"),
		}
		return row, &row.ID, nil
	case crm.KindCalendarEvents:
		row := &models.CalendarEvent{
			Title:       s("title"),
			Description: s("description"),
			EventType:   s("event_type"),
			StartTime:   s("start_time"),
			EndTime:     s("end_time"),
			Location:    s("location"),
			Attendees:   s("attendees"),
			Status:      s("status"),
		}
		return row, &row.ID, nil
	case crm.KindEmailCampaigns:
		row := &models.EmailCampaign{
			Name:           s("name"),
			Subject:        s("subject"),
			Status:         s("status"),
			SentCount:      intOrZero(record, "sent_count"),
			OpenRate:       floatOrZero(record, "open_rate"),
			ClickRate:      floatOrZero(record, "click_rate"),
			ConversionRate: floatOrZero(record, "conversion_rate"),
			ScheduledDate:  s("scheduled_date"),
		}
		return row, &row.ID, nil
	default:
		return nil, nil, fmt.Errorf("%w: %s", crm.ErrUnknownEntity, record.Kind)
	}
}
