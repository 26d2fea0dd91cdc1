package dto

import "time"

// UserInfo is the public shape of an account, returned by auth and user
// endpoints. The password hash never leaves the database layer.
type UserInfo struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
	Phone string `json:"phone,omitempty"`
}

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse represents a login response
type LoginResponse struct {
	Token string    `json:"token"`
	User  *UserInfo `json:"user"`
}

// ChangePasswordRequest represents a password change request
type ChangePasswordRequest struct {
	OldPassword string `json:"oldPassword" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required"`
}

// CreateUserRequest represents a user creation request
type CreateUserRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Role     string `json:"role"`
	Phone    string `json:"phone"`
}

// UpdateUserRequest represents a user update request. Zero-valued fields are
// left unchanged.
type UpdateUserRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
	Phone    string `json:"phone"`
}

// CreateLeadRequest represents a lead create or update request
type CreateLeadRequest struct {
	Name           string     `json:"name" binding:"required"`
	Email          string     `json:"email"`
	Phone          string     `json:"phone" binding:"required"`
	Source         string     `json:"source"`
	Status         string     `json:"status"`
	Rating         string     `json:"rating"`
	Classification string     `json:"classification"`
	AssignedTo     string     `json:"assignedTo"`
	FollowUpDate   *time.Time `json:"followUpDate"`
	Notes          string     `json:"notes"`
	ProjectID      string     `json:"projectId"`
	PlotIDs        []string   `json:"plotIds"`
	HighestOffer   float64    `json:"highestOffer"`
}

// AssignLeadRequest represents an assign or transfer request
type AssignLeadRequest struct {
	SalespersonID string `json:"salespersonId" binding:"required"`
}

// CreateProjectRequest represents a project creation request
type CreateProjectRequest struct {
	Name        string `json:"name" binding:"required"`
	Location    string `json:"location" binding:"required"`
	TotalPlots  int    `json:"totalPlots"`
	Description string `json:"description"`
}

// CreatePlotRequest represents a plot create or update request
type CreatePlotRequest struct {
	ProjectID  string  `json:"projectId" binding:"required"`
	PlotNumber string  `json:"plotNumber" binding:"required"`
	Size       string  `json:"size"`
	Price      float64 `json:"price"`
	Facing     string  `json:"facing"`
	Status     string  `json:"status"`
	Category   string  `json:"category"`
	Amenities  string  `json:"amenities"`
}

// CreatePaymentRequest represents a booking payment request
type CreatePaymentRequest struct {
	LeadID        string  `json:"leadId" binding:"required"`
	PlotID        string  `json:"plotId" binding:"required"`
	Amount        float64 `json:"amount" binding:"required"`
	Mode          string  `json:"mode"`
	BookingType   string  `json:"bookingType" binding:"required"`
	TransactionID string  `json:"transactionId"`
	Notes         string  `json:"notes"`
}

// CreateCallLogRequest represents a call log request
type CreateCallLogRequest struct {
	LeadID           string     `json:"leadId" binding:"required"`
	CallStatus       string     `json:"callStatus" binding:"required"`
	CallDuration     int        `json:"callDuration"`
	Notes            string     `json:"notes"`
	NextFollowUpDate *time.Time `json:"nextFollowUpDate"`
}

// CreateBuyerInterestRequest represents a walk-in buyer offer on a plot
type CreateBuyerInterestRequest struct {
	PlotID        string  `json:"plotId" binding:"required"`
	BuyerName     string  `json:"buyerName" binding:"required"`
	BuyerContact  string  `json:"buyerContact" binding:"required"`
	BuyerEmail    string  `json:"buyerEmail"`
	OfferedPrice  float64 `json:"offeredPrice"`
	SalespersonID string  `json:"salespersonId" binding:"required"`
	Notes         string  `json:"notes"`
}

// UpdateBuyerInterestRequest represents an offer revision
type UpdateBuyerInterestRequest struct {
	OfferedPrice float64 `json:"offeredPrice"`
	Notes        string  `json:"notes"`
}

// CreateLeadInterestRequest links a lead to a project and plots
type CreateLeadInterestRequest struct {
	LeadID       string   `json:"leadId" binding:"required"`
	ProjectID    string   `json:"projectId" binding:"required"`
	PlotIDs      []string `json:"plotIds" binding:"required"`
	HighestOffer float64  `json:"highestOffer"`
	Notes        string   `json:"notes"`
}

// UpdateLeadInterestRequest revises an existing lead interest
type UpdateLeadInterestRequest struct {
	ProjectID    string   `json:"projectId"`
	PlotIDs      []string `json:"plotIds"`
	HighestOffer float64  `json:"highestOffer"`
	Notes        string   `json:"notes"`
}

// DashboardStats is the admin dashboard summary
type DashboardStats struct {
	TotalLeads      int64   `json:"totalLeads"`
	ConvertedLeads  int64   `json:"convertedLeads"`
	LostLeads       int64   `json:"lostLeads"`
	UnassignedLeads int64   `json:"unassignedLeads"`
	TotalProjects   int64   `json:"totalProjects"`
	TotalPlots      int64   `json:"totalPlots"`
	AvailablePlots  int64   `json:"availablePlots"`
	BookedPlots     int64   `json:"bookedPlots"`
	TotalRevenue    float64 `json:"totalRevenue"`
	TodayFollowUps  int64   `json:"todayFollowUps"`
}

// SalespersonStats is the per-salesperson dashboard summary
type SalespersonStats struct {
	AssignedLeads  int64   `json:"assignedLeads"`
	TodayFollowUps int64   `json:"todayFollowUps"`
	ConvertedLeads int64   `json:"convertedLeads"`
	TotalRevenue   float64 `json:"totalRevenue"`
}

// AnalyticsOverview is the admin analytics summary for a date range
type AnalyticsOverview struct {
	TotalLeads          int64   `json:"totalLeads"`
	ConvertedLeads      int64   `json:"convertedLeads"`
	ConversionRate      string  `json:"conversionRate"`
	TotalSalespersons   int64   `json:"totalSalespersons"`
	TotalRevenue        float64 `json:"totalRevenue"`
	TotalBuyerInterests int64   `json:"totalBuyerInterests"`
	TotalBookings       int64   `json:"totalBookings"`
	ActiveLeads         int64   `json:"activeLeads"`
}

// SalespersonPerformance aggregates one salesperson's pipeline activity
type SalespersonPerformance struct {
	SalespersonID  string  `json:"salespersonId"`
	Name           string  `json:"name"`
	Email          string  `json:"email"`
	TotalContacts  int64   `json:"totalContacts"`
	LeadsAssigned  int64   `json:"leadsAssigned"`
	Conversions    int64   `json:"conversions"`
	Revenue        float64 `json:"revenue"`
	Contacted      int64   `json:"contacted"`
	Interested     int64   `json:"interested"`
	SiteVisits     int64   `json:"siteVisits"`
	Lost           int64   `json:"lost"`
	CallsLogged    int64   `json:"callsLogged"`
	ConversionRate string  `json:"conversionRate"`
}

// DailyMetric is one day's pipeline activity
type DailyMetric struct {
	Date           string `json:"date"`
	LeadsCreated   int64  `json:"leadsCreated"`
	Conversions    int64  `json:"conversions"`
	BuyerInterests int64  `json:"buyerInterests"`
	Bookings       int64  `json:"bookings"`
}

// MonthlyMetric is one month's pipeline activity
type MonthlyMetric struct {
	Month        string  `json:"month"`
	LeadsCreated int64   `json:"leadsCreated"`
	Conversions  int64   `json:"conversions"`
	Revenue      float64 `json:"revenue"`
}

// SourcePerformance aggregates leads by acquisition source
type SourcePerformance struct {
	Source         string `json:"source"`
	TotalLeads     int64  `json:"totalLeads"`
	Conversions    int64  `json:"conversions"`
	ConversionRate string `json:"conversionRate"`
}

// CategoryPerformance aggregates plots by category
type CategoryPerformance struct {
	Category      string  `json:"category"`
	TotalPlots    int64   `json:"totalPlots"`
	Available     int64   `json:"available"`
	Booked        int64   `json:"booked"`
	Sold          int64   `json:"sold"`
	AvgPrice      float64 `json:"avgPrice"`
	OccupancyRate string  `json:"occupancyRate"`
}

// PlotStats summarizes buyer demand for one plot
type PlotStats struct {
	TotalInterestedBuyers int     `json:"totalInterestedBuyers"`
	AverageOfferedPrice   float64 `json:"averageOfferedPrice"`
	HighestOffer          float64 `json:"highestOffer"`
}
