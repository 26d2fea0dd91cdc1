package database

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// gormStore implements Store on top of any gorm dialector. The per-driver
// constructors in sqlite.go, postgres.go and mysql.go only differ in how the
// connection is opened.
type gormStore struct {
	db *gorm.DB
}

func newGormStore(db *gorm.DB) (Store, error) {
	if err := db.AutoMigrate(
		&User{}, &Lead{}, &Project{}, &Plot{}, &Payment{},
		&CallLog{}, &BuyerInterest{}, &LeadInterest{}, &ActivityLog{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return &gormStore{db: db}, nil
}

// Close closes the database connection
func (s *gormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// ---- Users ----

func (s *gormStore) CreateUser(ctx context.Context, user *User) error {
	return s.db.WithContext(ctx).Create(user).Error
}

func (s *gormStore) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	var user User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *gormStore) GetUserByID(ctx context.Context, id string) (*User, error) {
	var user User
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *gormStore) ListUsers(ctx context.Context) ([]*User, error) {
	var users []*User
	err := s.db.WithContext(ctx).Order("created_at asc").Find(&users).Error
	return users, err
}

func (s *gormStore) ListSalespersons(ctx context.Context) ([]*User, error) {
	var users []*User
	err := s.db.WithContext(ctx).
		Where("role = ?", RoleSalesperson).
		Order("name asc").
		Find(&users).Error
	return users, err
}

func (s *gormStore) UpdateUser(ctx context.Context, user *User) error {
	return s.db.WithContext(ctx).Save(user).Error
}

func (s *gormStore) DeleteUser(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Delete(&User{}, "id = ?", id).Error
}

// ---- Leads ----

func (s *gormStore) CreateLead(ctx context.Context, lead *Lead) error {
	return s.db.WithContext(ctx).Create(lead).Error
}

func (s *gormStore) GetLead(ctx context.Context, id string) (*Lead, error) {
	var lead Lead
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&lead).Error; err != nil {
		return nil, err
	}
	return &lead, nil
}

// ListLeads returns all leads, or only those assigned to the given
// salesperson when assignedTo is non-empty.
func (s *gormStore) ListLeads(ctx context.Context, assignedTo string) ([]*Lead, error) {
	var leads []*Lead
	q := s.db.WithContext(ctx).Order("created_at desc")
	if assignedTo != "" {
		q = q.Where("assigned_to = ?", assignedTo)
	}
	err := q.Find(&leads).Error
	return leads, err
}

func (s *gormStore) ListLeadsByStatus(ctx context.Context, statuses []string, assignedTo string) ([]*Lead, error) {
	var leads []*Lead
	q := s.db.WithContext(ctx).Where("status IN ?", statuses).Order("updated_at desc")
	if assignedTo != "" {
		q = q.Where("assigned_to = ?", assignedTo)
	}
	err := q.Find(&leads).Error
	return leads, err
}

func (s *gormStore) ListLeadsWithFollowUpBetween(ctx context.Context, from, to time.Time, assignedTo string) ([]*Lead, error) {
	var leads []*Lead
	q := s.db.WithContext(ctx).
		Where("follow_up_date >= ? AND follow_up_date < ?", from, to).
		Order("follow_up_date asc")
	if assignedTo != "" {
		q = q.Where("assigned_to = ?", assignedTo)
	}
	err := q.Find(&leads).Error
	return leads, err
}

func (s *gormStore) UpdateLead(ctx context.Context, lead *Lead) error {
	return s.db.WithContext(ctx).Save(lead).Error
}

func (s *gormStore) DeleteLead(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Delete(&Lead{}, "id = ?", id).Error
}

// ---- Projects ----

func (s *gormStore) CreateProject(ctx context.Context, project *Project) error {
	return s.db.WithContext(ctx).Create(project).Error
}

func (s *gormStore) GetProject(ctx context.Context, id string) (*Project, error) {
	var project Project
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&project).Error; err != nil {
		return nil, err
	}
	return &project, nil
}

func (s *gormStore) ListProjects(ctx context.Context) ([]*Project, error) {
	var projects []*Project
	err := s.db.WithContext(ctx).Order("created_at desc").Find(&projects).Error
	return projects, err
}

// ---- Plots ----

func (s *gormStore) CreatePlot(ctx context.Context, plot *Plot) error {
	return s.db.WithContext(ctx).Create(plot).Error
}

func (s *gormStore) GetPlot(ctx context.Context, id string) (*Plot, error) {
	var plot Plot
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&plot).Error; err != nil {
		return nil, err
	}
	return &plot, nil
}

func (s *gormStore) ListPlots(ctx context.Context) ([]*Plot, error) {
	var plots []*Plot
	err := s.db.WithContext(ctx).Order("plot_number asc").Find(&plots).Error
	return plots, err
}

func (s *gormStore) ListPlotsByProject(ctx context.Context, projectID string) ([]*Plot, error) {
	var plots []*Plot
	err := s.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("plot_number asc").
		Find(&plots).Error
	return plots, err
}

func (s *gormStore) ListPlotsByCategory(ctx context.Context, category string) ([]*Plot, error) {
	var plots []*Plot
	err := s.db.WithContext(ctx).
		Where("category = ?", category).
		Order("plot_number asc").
		Find(&plots).Error
	return plots, err
}

func (s *gormStore) UpdatePlot(ctx context.Context, plot *Plot) error {
	return s.db.WithContext(ctx).Save(plot).Error
}

func (s *gormStore) DeletePlot(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Delete(&Plot{}, "id = ?", id).Error
}

// ---- Payments ----

func (s *gormStore) CreatePayment(ctx context.Context, payment *Payment) error {
	return s.db.WithContext(ctx).Create(payment).Error
}

func (s *gormStore) ListPayments(ctx context.Context) ([]*Payment, error) {
	var payments []*Payment
	err := s.db.WithContext(ctx).Order("created_at desc").Find(&payments).Error
	return payments, err
}

func (s *gormStore) ListPaymentsByLead(ctx context.Context, leadID string) ([]*Payment, error) {
	var payments []*Payment
	err := s.db.WithContext(ctx).
		Where("lead_id = ?", leadID).
		Order("created_at desc").
		Find(&payments).Error
	return payments, err
}

func (s *gormStore) SumPayments(ctx context.Context) (float64, error) {
	var total *float64
	err := s.db.WithContext(ctx).
		Model(&Payment{}).
		Select("SUM(amount)").
		Scan(&total).Error
	if err != nil || total == nil {
		return 0, err
	}
	return *total, nil
}

// ---- Call logs ----

func (s *gormStore) CreateCallLog(ctx context.Context, log *CallLog) error {
	return s.db.WithContext(ctx).Create(log).Error
}

func (s *gormStore) ListCallLogs(ctx context.Context) ([]*CallLog, error) {
	var logs []*CallLog
	err := s.db.WithContext(ctx).Order("created_at desc").Find(&logs).Error
	return logs, err
}

func (s *gormStore) ListCallLogsByLead(ctx context.Context, leadID string) ([]*CallLog, error) {
	var logs []*CallLog
	err := s.db.WithContext(ctx).
		Where("lead_id = ?", leadID).
		Order("created_at desc").
		Find(&logs).Error
	return logs, err
}

func (s *gormStore) ListCallLogsBySalesperson(ctx context.Context, salespersonID string) ([]*CallLog, error) {
	var logs []*CallLog
	err := s.db.WithContext(ctx).
		Where("salesperson_id = ?", salespersonID).
		Order("created_at desc").
		Find(&logs).Error
	return logs, err
}

// ---- Buyer interests ----

func (s *gormStore) CreateBuyerInterest(ctx context.Context, interest *BuyerInterest) error {
	return s.db.WithContext(ctx).Create(interest).Error
}

func (s *gormStore) GetBuyerInterest(ctx context.Context, id string) (*BuyerInterest, error) {
	var interest BuyerInterest
	if err := s.db.WithContext(ctx).First(&interest, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &interest, nil
}

func (s *gormStore) UpdateBuyerInterest(ctx context.Context, interest *BuyerInterest) error {
	return s.db.WithContext(ctx).Save(interest).Error
}

func (s *gormStore) ListBuyerInterests(ctx context.Context) ([]*BuyerInterest, error) {
	var interests []*BuyerInterest
	err := s.db.WithContext(ctx).Order("created_at desc").Find(&interests).Error
	return interests, err
}

func (s *gormStore) ListBuyerInterestsByPlot(ctx context.Context, plotID string) ([]*BuyerInterest, error) {
	var interests []*BuyerInterest
	err := s.db.WithContext(ctx).
		Where("plot_id = ?", plotID).
		Order("offered_price desc").
		Find(&interests).Error
	return interests, err
}

func (s *gormStore) CountBuyerInterests(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&BuyerInterest{}).Count(&count).Error
	return count, err
}

func (s *gormStore) DeleteBuyerInterest(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Delete(&BuyerInterest{}, "id = ?", id).Error
}

// ---- Lead interests ----

func (s *gormStore) CreateLeadInterest(ctx context.Context, interest *LeadInterest) error {
	return s.db.WithContext(ctx).Create(interest).Error
}

func (s *gormStore) GetLeadInterest(ctx context.Context, id string) (*LeadInterest, error) {
	var interest LeadInterest
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&interest).Error; err != nil {
		return nil, err
	}
	return &interest, nil
}

func (s *gormStore) UpdateLeadInterest(ctx context.Context, interest *LeadInterest) error {
	return s.db.WithContext(ctx).Save(interest).Error
}

func (s *gormStore) ListLeadInterests(ctx context.Context) ([]*LeadInterest, error) {
	var interests []*LeadInterest
	err := s.db.WithContext(ctx).Order("updated_at desc").Find(&interests).Error
	return interests, err
}

func (s *gormStore) ListLeadInterestsByLead(ctx context.Context, leadID string) ([]*LeadInterest, error) {
	var interests []*LeadInterest
	err := s.db.WithContext(ctx).
		Where("lead_id = ?", leadID).
		Order("updated_at desc").
		Find(&interests).Error
	return interests, err
}

func (s *gormStore) ListLeadInterestsByProject(ctx context.Context, projectID string) ([]*LeadInterest, error) {
	var interests []*LeadInterest
	err := s.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("updated_at desc").
		Find(&interests).Error
	return interests, err
}

func (s *gormStore) DeleteLeadInterest(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Delete(&LeadInterest{}, "id = ?", id).Error
}

// ---- Activity logs ----

func (s *gormStore) CreateActivityLog(ctx context.Context, log *ActivityLog) error {
	return s.db.WithContext(ctx).Create(log).Error
}

func (s *gormStore) ListActivityLogs(ctx context.Context, limit int) ([]*ActivityLog, error) {
	if limit <= 0 {
		limit = 50
	}
	var logs []*ActivityLog
	err := s.db.WithContext(ctx).
		Order("created_at desc").
		Limit(limit).
		Find(&logs).Error
	return logs, err
}
