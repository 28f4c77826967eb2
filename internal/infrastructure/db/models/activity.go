package models

import "time"

type Opportunity struct {
	ID          int64   `gorm:"primaryKey"`
	Name        string  `gorm:"size:255;not null"`
	Account     string  `gorm:"size:255;not null"`
	Value       float64 `gorm:"not null"`
	Stage       string  `gorm:"size:32;not null;default:Prospecting"`
	Probability int64   `gorm:"not null;default:10"`
	CloseDate   string  `gorm:"size:32"`
	Owner       string  `gorm:"size:255"`
	ContactID   *int64  `gorm:"index"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (Opportunity) TableName() string {
	return "opportunities"
}

// Task is a CRM to-do item, unrelated to upload tasks.
type Task struct {
	ID          int64  `gorm:"primaryKey"`
	Title       string `gorm:"size:255;not null"`
	Description string `gorm:"type:text"`
	Priority    string `gorm:"size:16;not null;default:Medium"`
	Status      string `gorm:"size:32;not null;default:'To Do'"`
	DueDate     string `gorm:"size:32"`
	AssignedTo  string `gorm:"size:255"`
	RelatedTo   string `gorm:"size:255"`
	ContactID   *int64 `gorm:"index"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (Task) TableName() string {
	return "tasks"
}

type CalendarEvent struct {
	ID          int64  `gorm:"primaryKey"`
	Title       string `gorm:"size:255;not null"`
	Description string `gorm:"type:text"`
	EventType   string `gorm:"size:32;not null;default:Meeting"`
	StartTime   string `gorm:"size:32;not null"`
	EndTime     string `gorm:"size:32"`
	Location    string `gorm:"size:255"`
	Attendees   string `gorm:"type:text"`
	Status      string `gorm:"size:32;not null;default:Scheduled"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (CalendarEvent) TableName() string {
	return "calendar_events"
}

type EmailCampaign struct {
	ID             int64   `gorm:"primaryKey"`
	Name           string  `gorm:"size:255;not null"`
	Subject        string  `gorm:"size:255;not null"`
	Status         string  `gorm:"size:32;not null;default:Draft"`
	SentCount      int64   `gorm:"not null;default:0"`
	OpenRate       float64 `gorm:"not null;default:0"`
	ClickRate      float64 `gorm:"not null;default:0"`
	ConversionRate float64 `gorm:"not null;default:0"`
	ScheduledDate  string  `gorm:"size:32"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (EmailCampaign) TableName() string {
	return "email_campaigns"
}

// All lists every model for auto-migration.
func All() []any {
	return []any{
		&Contact{},
		&Lead{},
		&Account{},
		&Opportunity{},
		&Task{},
		&CalendarEvent{},
		&EmailCampaign{},
	}
}
