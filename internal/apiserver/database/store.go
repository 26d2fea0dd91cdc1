package database

import (
	"context"
	"time"
)

// Store defines the persistence operations used by the API server.
type Store interface {
	// Close closes the database connection.
	Close() error

	// Users
	CreateUser(ctx context.Context, user *User) error
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	GetUserByID(ctx context.Context, id string) (*User, error)
	ListUsers(ctx context.Context) ([]*User, error)
	ListSalespersons(ctx context.Context) ([]*User, error)
	UpdateUser(ctx context.Context, user *User) error
	DeleteUser(ctx context.Context, id string) error

	// Leads
	CreateLead(ctx context.Context, lead *Lead) error
	GetLead(ctx context.Context, id string) (*Lead, error)
	ListLeads(ctx context.Context, assignedTo string) ([]*Lead, error)
	ListLeadsByStatus(ctx context.Context, statuses []string, assignedTo string) ([]*Lead, error)
	ListLeadsWithFollowUpBetween(ctx context.Context, from, to time.Time, assignedTo string) ([]*Lead, error)
	UpdateLead(ctx context.Context, lead *Lead) error
	DeleteLead(ctx context.Context, id string) error

	// Projects
	CreateProject(ctx context.Context, project *Project) error
	GetProject(ctx context.Context, id string) (*Project, error)
	ListProjects(ctx context.Context) ([]*Project, error)

	// Plots
	CreatePlot(ctx context.Context, plot *Plot) error
	GetPlot(ctx context.Context, id string) (*Plot, error)
	ListPlots(ctx context.Context) ([]*Plot, error)
	ListPlotsByProject(ctx context.Context, projectID string) ([]*Plot, error)
	ListPlotsByCategory(ctx context.Context, category string) ([]*Plot, error)
	UpdatePlot(ctx context.Context, plot *Plot) error
	DeletePlot(ctx context.Context, id string) error

	// Payments
	CreatePayment(ctx context.Context, payment *Payment) error
	ListPayments(ctx context.Context) ([]*Payment, error)
	ListPaymentsByLead(ctx context.Context, leadID string) ([]*Payment, error)
	SumPayments(ctx context.Context) (float64, error)

	// Call logs
	CreateCallLog(ctx context.Context, log *CallLog) error
	ListCallLogs(ctx context.Context) ([]*CallLog, error)
	ListCallLogsByLead(ctx context.Context, leadID string) ([]*CallLog, error)
	ListCallLogsBySalesperson(ctx context.Context, salespersonID string) ([]*CallLog, error)

	// Buyer interests
	CreateBuyerInterest(ctx context.Context, interest *BuyerInterest) error
	GetBuyerInterest(ctx context.Context, id string) (*BuyerInterest, error)
	UpdateBuyerInterest(ctx context.Context, interest *BuyerInterest) error
	ListBuyerInterests(ctx context.Context) ([]*BuyerInterest, error)
	ListBuyerInterestsByPlot(ctx context.Context, plotID string) ([]*BuyerInterest, error)
	CountBuyerInterests(ctx context.Context) (int64, error)
	DeleteBuyerInterest(ctx context.Context, id string) error

	// Lead interests
	CreateLeadInterest(ctx context.Context, interest *LeadInterest) error
	GetLeadInterest(ctx context.Context, id string) (*LeadInterest, error)
	UpdateLeadInterest(ctx context.Context, interest *LeadInterest) error
	ListLeadInterests(ctx context.Context) ([]*LeadInterest, error)
	ListLeadInterestsByLead(ctx context.Context, leadID string) ([]*LeadInterest, error)
	ListLeadInterestsByProject(ctx context.Context, projectID string) ([]*LeadInterest, error)
	DeleteLeadInterest(ctx context.Context, id string) error

	// Activity logs
	CreateActivityLog(ctx context.Context, log *ActivityLog) error
	ListActivityLogs(ctx context.Context, limit int) ([]*ActivityLog, error)
}
