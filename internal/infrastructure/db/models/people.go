package models

import "time"

type Contact struct {
	ID          int64  `gorm:"primaryKey"`
	Name        string `gorm:"size:255;not null"`
	Email       string `gorm:"size:320;not null;uniqueIndex"`
	Phone       string `gorm:"size:64"`
	Company     string `gorm:"size:255"`
	Position    string `gorm:"size:255"`
	Location    string `gorm:"size:255"`
	Status      string `gorm:"size:32;not null;default:Active"`
	LastContact string `gorm:"size:32"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (Contact) TableName() string {
	return "contacts"
}

type Lead struct {
	ID         int64  `gorm:"primaryKey"`
	Name       string `gorm:"size:255;not null"`
	Company    string `gorm:"size:255;not null"`
	Email      string `gorm:"size:320;not null;uniqueIndex"`
	Phone      string `gorm:"size:64"`
	Source     string `gorm:"size:120"`
	Status     string `gorm:"size:32;not null;default:New"`
	Score      int64  `gorm:"not null;default:0"`
	Value      string `gorm:"size:64"`
	AssignedTo string `gorm:"size:255"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (Lead) TableName() string {
	return "leads"
}

type Account struct {
	ID           int64  `gorm:"primaryKey"`
	Name         string `gorm:"size:255;not null;uniqueIndex"`
	Industry     string `gorm:"size:120"`
	Revenue      string `gorm:"size:64"`
	Employees    *int64
	Location     string `gorm:"size:255"`
	Phone        string `gorm:"size:64"`
	Website      string `gorm:"size:255"`
	AccountOwner string `gorm:"size:255"`
	Status       string `gorm:"size:32;not null;default:Active"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (Account) TableName() string {
	return "accounts"
}
