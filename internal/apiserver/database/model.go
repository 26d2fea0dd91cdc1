package database

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserRole represents the role of a user
type UserRole string

const (
	RoleAdmin       UserRole = "admin"
	RoleSalesperson UserRole = "salesperson"
)

// Lead pipeline statuses
const (
	LeadStatusNew        = "New"
	LeadStatusContacted  = "Contacted"
	LeadStatusInterested = "Interested"
	LeadStatusSiteVisit  = "Site Visit"
	LeadStatusBooked     = "Booked"
	LeadStatusLost       = "Lost"
)

// Plot inventory statuses
const (
	PlotStatusAvailable = "Available"
	PlotStatusBooked    = "Booked"
	PlotStatusHold      = "Hold"
	PlotStatusSold      = "Sold"
)

// Booking types for payments
const (
	BookingTypeToken = "Token"
	BookingTypeFull  = "Full"
)

// StringList stores a list of ids as a JSON text column so the same model
// works across sqlite, postgres and mysql.
type StringList []string

// Value implements driver.Valuer
func (l StringList) Value() (driver.Value, error) {
	if len(l) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner
func (l *StringList) Scan(value interface{}) error {
	if value == nil {
		*l = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	default:
		return fmt.Errorf("unsupported type for StringList: %T", value)
	}
}

// User represents a dashboard account (admin or salesperson)
type User struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name      string    `json:"name" gorm:"not null"`
	Email     string    `json:"email" gorm:"type:varchar(255);uniqueIndex;not null"`
	Password  string    `json:"-" gorm:"not null"` // bcrypt hash, never exposed in JSON
	Role      UserRole  `json:"role" gorm:"type:varchar(20);not null;default:'salesperson'"`
	Phone     string    `json:"phone,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Lead represents a prospective buyer in the pipeline
type Lead struct {
	ID             string     `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name           string     `json:"name" gorm:"not null"`
	Email          string     `json:"email,omitempty"`
	Phone          string     `json:"phone" gorm:"not null;index"`
	Source         string     `json:"source" gorm:"type:varchar(50)"`
	Status         string     `json:"status" gorm:"type:varchar(30);index;default:'New'"`
	Rating         string     `json:"rating" gorm:"type:varchar(20);default:'High'"`
	Classification string     `json:"classification,omitempty" gorm:"type:varchar(20)"`
	AssignedTo     string     `json:"assignedTo,omitempty" gorm:"type:varchar(36);index"`
	AssignedBy     string     `json:"assignedBy,omitempty" gorm:"type:varchar(36)"`
	FollowUpDate   *time.Time `json:"followUpDate,omitempty"`
	Notes          string     `json:"notes,omitempty"`
	ProjectID      string     `json:"projectId,omitempty" gorm:"type:varchar(36)"`
	PlotIDs        StringList `json:"plotIds,omitempty" gorm:"type:text"`
	HighestOffer   float64    `json:"highestOffer,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

// Project represents a plotted development
type Project struct {
	ID          string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name        string    `json:"name" gorm:"not null"`
	Location    string    `json:"location" gorm:"not null"`
	TotalPlots  int       `json:"totalPlots"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Plot represents a single unit of inventory inside a project
type Plot struct {
	ID         string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	ProjectID  string    `json:"projectId" gorm:"type:varchar(36);index;not null"`
	PlotNumber string    `json:"plotNumber" gorm:"not null"`
	Size       string    `json:"size"`
	Price      float64   `json:"price"`
	Facing     string    `json:"facing,omitempty"`
	Status     string    `json:"status" gorm:"type:varchar(20);index;default:'Available'"`
	Category   string    `json:"category" gorm:"type:varchar(40)"`
	Amenities  string    `json:"amenities,omitempty"`
	BookedBy   string    `json:"bookedBy,omitempty" gorm:"type:varchar(36)"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Payment represents a booking payment against a plot
type Payment struct {
	ID            string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	LeadID        string    `json:"leadId" gorm:"type:varchar(36);index;not null"`
	PlotID        string    `json:"plotId" gorm:"type:varchar(36);index;not null"`
	Amount        float64   `json:"amount"`
	Mode          string    `json:"mode" gorm:"type:varchar(20)"` // Cash, UPI, Cheque, Bank Transfer
	BookingType   string    `json:"bookingType" gorm:"type:varchar(10)"`
	TransactionID string    `json:"transactionId,omitempty"`
	Notes         string    `json:"notes,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

// CallLog represents one recorded call against a lead
type CallLog struct {
	ID               string     `json:"id" gorm:"primaryKey;type:varchar(36)"`
	LeadID           string     `json:"leadId" gorm:"type:varchar(36);index;not null"`
	SalespersonID    string     `json:"salespersonId" gorm:"type:varchar(36);index;not null"`
	SalespersonName  string     `json:"salespersonName"`
	CallStatus       string     `json:"callStatus" gorm:"type:varchar(40)"`
	CallDuration     int        `json:"callDuration,omitempty"` // seconds
	Notes            string     `json:"notes,omitempty"`
	NextFollowUpDate *time.Time `json:"nextFollowUpDate,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
}

// BuyerInterest represents a walk-in buyer's offer on a specific plot
type BuyerInterest struct {
	ID              string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	PlotID          string    `json:"plotId" gorm:"type:varchar(36);index;not null"`
	BuyerName       string    `json:"buyerName" gorm:"not null"`
	BuyerContact    string    `json:"buyerContact" gorm:"not null"`
	BuyerEmail      string    `json:"buyerEmail,omitempty"`
	OfferedPrice    float64   `json:"offeredPrice"`
	SalespersonID   string    `json:"salespersonId" gorm:"type:varchar(36);index"`
	SalespersonName string    `json:"salespersonName"`
	Notes           string    `json:"notes,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// LeadInterest links a lead to the project and plots it is negotiating on
type LeadInterest struct {
	ID           string     `json:"id" gorm:"primaryKey;type:varchar(36)"`
	LeadID       string     `json:"leadId" gorm:"type:varchar(36);index;not null"`
	ProjectID    string     `json:"projectId" gorm:"type:varchar(36);index;not null"`
	PlotIDs      StringList `json:"plotIds" gorm:"type:text"`
	HighestOffer float64    `json:"highestOffer"`
	Notes        string     `json:"notes,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// ActivityLog represents one audit trail entry
type ActivityLog struct {
	ID         string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID     string    `json:"userId" gorm:"type:varchar(36);index"`
	UserName   string    `json:"userName"`
	Action     string    `json:"action"`
	EntityType string    `json:"entityType" gorm:"type:varchar(20)"` // lead, plot, payment, user
	EntityID   string    `json:"entityId" gorm:"type:varchar(36)"`
	Details    string    `json:"details"`
	CreatedAt  time.Time `json:"createdAt"`
}

// ensureID is shared by the BeforeCreate hooks below.
func ensureID(id *string) {
	if *id == "" {
		*id = uuid.NewString()
	}
}

func (u *User) BeforeCreate(*gorm.DB) error          { ensureID(&u.ID); return nil }
func (l *Lead) BeforeCreate(*gorm.DB) error          { ensureID(&l.ID); return nil }
func (p *Project) BeforeCreate(*gorm.DB) error       { ensureID(&p.ID); return nil }
func (p *Plot) BeforeCreate(*gorm.DB) error          { ensureID(&p.ID); return nil }
func (p *Payment) BeforeCreate(*gorm.DB) error       { ensureID(&p.ID); return nil }
func (c *CallLog) BeforeCreate(*gorm.DB) error       { ensureID(&c.ID); return nil }
func (b *BuyerInterest) BeforeCreate(*gorm.DB) error { ensureID(&b.ID); return nil }
func (l *LeadInterest) BeforeCreate(*gorm.DB) error  { ensureID(&l.ID); return nil }
func (a *ActivityLog) BeforeCreate(*gorm.DB) error   { ensureID(&a.ID); return nil }
