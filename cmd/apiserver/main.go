package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/plotdesk/plotdesk/internal/apiserver/cache"
	"github.com/plotdesk/plotdesk/internal/apiserver/database"
	"github.com/plotdesk/plotdesk/internal/apiserver/handler"
	"github.com/plotdesk/plotdesk/internal/apiserver/middleware"
	"github.com/plotdesk/plotdesk/internal/apiserver/scheduler"
	"github.com/plotdesk/plotdesk/internal/auth/jwt"
	"github.com/plotdesk/plotdesk/internal/common/config"
	"github.com/plotdesk/plotdesk/internal/realtime"
	"github.com/plotdesk/plotdesk/pkg/logger"
	"github.com/plotdesk/plotdesk/pkg/metrics"
	"github.com/plotdesk/plotdesk/pkg/subscription"
	"github.com/plotdesk/plotdesk/pkg/version"
)

var (
	configPath string

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of apiserver",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("apiserver version %s\n", version.Get())
		},
	}

	rootCmd = &cobra.Command{
		Use:   "apiserver",
		Short: "PlotDesk API Server",
		Long:  `PlotDesk API Server provides the CRM REST API and the realtime websocket gateway`,
		Run: func(cmd *cobra.Command, args []string) {
			run()
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "conf", "configs/apiserver.yaml", "path to configuration file")
	rootCmd.AddCommand(versionCmd)
}

func run() {
	cfg, cfgPath, err := config.LoadConfig[config.APIServerConfig](configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zapLogger, err := logger.NewLogger(&cfg.Logger)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() {
		_ = zapLogger.Sync()
	}()
	zapLogger.Info("loaded configuration", zap.String("path", cfgPath))

	store, err := database.NewStore(&cfg.Database)
	if err != nil {
		zapLogger.Fatal("failed to initialize database", zap.Error(err))
	}
	defer store.Close()

	if err := seedSuperAdmin(context.Background(), store, cfg.SuperAdmin, zapLogger); err != nil {
		zapLogger.Fatal("failed to seed super admin", zap.Error(err))
	}

	jwtService, err := jwt.NewService(jwt.Config{
		SecretKey: cfg.JWT.SecretKey,
		Duration:  cfg.JWT.Duration,
	})
	if err != nil {
		zapLogger.Fatal("failed to initialize JWT service", zap.Error(err))
	}

	gateway := realtime.NewGateway(zapLogger, jwtService, cfg.Realtime)
	defer gateway.CloseAll()

	queryCache := cache.New(cfg.Cache, zapLogger)

	// Every publish also invalidates the server-side query cache through the
	// same routing table the subscription client uses, so cached dashboards
	// never outlive the write that changed them.
	gateway.OnPublish(func(topic realtime.Topic, data realtime.Payload) {
		for _, key := range subscription.ResolveTargets(string(topic), data) {
			queryCache.Invalidate(context.Background(), key)
		}
	})

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New(cfg.Metrics)
		m.RegisterConnectionGauge(gateway.ConnectionCount)
		gateway.OnPublish(func(topic realtime.Topic, data realtime.Payload) {
			m.EnvelopePublished(string(topic))
		})
	}

	sweep := scheduler.NewFollowUpScheduler(zapLogger, store, gateway, 0)
	if err := sweep.Start(); err != nil {
		zapLogger.Fatal("failed to start follow-up scheduler", zap.Error(err))
	}
	defer sweep.Stop()

	h := handler.NewHandler(store, jwtService, gateway, queryCache, zapLogger)

	router := buildRouter(cfg, h, gateway, jwtService, m)

	port := cfg.Port
	if port == 0 {
		port = 5234
	}
	zapLogger.Info("starting apiserver",
		zap.String("version", version.Get()),
		zap.Int("port", port))
	if err := router.Run(fmt.Sprintf(":%d", port)); err != nil {
		zapLogger.Fatal("server exited", zap.Error(err))
	}
}

func buildRouter(cfg *config.APIServerConfig, h *handler.Handler, gateway *realtime.Gateway, jwtService *jwt.Service, m *metrics.Metrics) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	if m != nil {
		router.Use(m.Middleware())
		router.GET("/metrics", gin.WrapH(m.Handler()))
	}

	// Websocket upgrade endpoint. Authentication happens inside the gateway,
	// before the upgrade.
	wsPath := cfg.Realtime.Path
	if wsPath == "" {
		wsPath = "/ws"
	}
	router.GET(wsPath, gateway.HandleWS)

	router.POST("/api/auth/login", h.Login)

	authed := router.Group("/api", middleware.JWTAuthMiddleware(jwtService))
	admin := authed.Group("", middleware.AdminOnly())

	authed.GET("/auth/me", h.Me)
	authed.POST("/auth/change-password", h.ChangePassword)

	authed.GET("/users/salespersons", h.ListSalespersons)
	admin.GET("/users", h.ListUsers)
	admin.POST("/users", h.CreateUser)
	admin.PATCH("/users/:id", h.UpdateUser)
	admin.DELETE("/users/:id", h.DeleteUser)

	authed.GET("/leads", h.ListLeads)
	authed.GET("/leads/today-followups", h.TodayFollowUps)
	authed.GET("/leads/contacted", h.ContactedLeads)
	authed.POST("/leads", h.CreateLead)
	authed.GET("/leads/:id", h.GetLead)
	authed.PATCH("/leads/:id", h.UpdateLead)
	authed.DELETE("/leads/:id", h.DeleteLead)
	admin.PATCH("/leads/:id/assign", h.AssignLead)
	authed.PATCH("/leads/:id/transfer", h.TransferLead)
	authed.GET("/missed-followups", h.MissedFollowUps)

	authed.GET("/lead-interests", h.ListLeadInterests)
	authed.GET("/lead-interests/lead/:leadId", h.ListLeadInterestsByLead)
	authed.GET("/lead-interests/project/:projectId", h.ListLeadInterestsByProject)
	authed.POST("/lead-interests", h.CreateLeadInterest)
	authed.PATCH("/lead-interests/:id", h.UpdateLeadInterest)
	authed.DELETE("/lead-interests/:id", h.DeleteLeadInterest)

	authed.GET("/projects", h.ListProjects)
	admin.POST("/projects", h.CreateProject)
	authed.GET("/projects/overview", h.ProjectsOverview)

	authed.GET("/plots", h.ListPlots)
	admin.POST("/plots", h.CreatePlot)
	admin.PATCH("/plots/:id", h.UpdatePlot)
	admin.DELETE("/plots/:id", h.DeletePlot)
	authed.GET("/plots/category/:category", h.PlotsByCategory)
	authed.GET("/plots/:id/stats", h.PlotStats)

	authed.GET("/buyer-interests/plot/:plotId", h.ListBuyerInterestsByPlot)
	authed.POST("/buyer-interests", h.CreateBuyerInterest)
	authed.PATCH("/buyer-interests/:id", h.UpdateBuyerInterest)
	authed.DELETE("/buyer-interests/:id", h.DeleteBuyerInterest)

	authed.POST("/payments", h.CreatePayment)
	authed.GET("/payments", h.ListPayments)
	authed.GET("/payments/lead/:leadId", h.ListPaymentsByLead)

	authed.POST("/call-logs", h.CreateCallLog)
	authed.GET("/call-logs/lead/:leadId", h.CallLogsByLead)
	authed.GET("/call-logs/salesperson/:salespersonId", h.CallLogsBySalesperson)
	admin.GET("/call-logs/all", h.AllCallLogs)

	authed.GET("/activities", h.ListActivities)

	admin.GET("/dashboard/admin", h.AdminDashboard)
	authed.GET("/dashboard/salesperson", h.SalespersonDashboard)

	admin.GET("/analytics/overview", h.AnalyticsOverview)
	admin.GET("/analytics/salesperson-performance", h.SalespersonPerformance)
	admin.GET("/analytics/daily-metrics", h.DailyMetrics)
	admin.GET("/analytics/monthly-metrics", h.MonthlyMetrics)
	admin.GET("/analytics/activity-timeline", h.ActivityTimeline)
	admin.GET("/analytics/lead-source-analysis", h.LeadSourceAnalysis)
	admin.GET("/analytics/plot-category-performance", h.PlotCategoryPerformance)
	admin.GET("/analytics/customer-contacts/:salespersonId", h.CustomerContacts)

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	return router
}

// seedSuperAdmin ensures the configured administrator account exists.
func seedSuperAdmin(ctx context.Context, store database.Store, cfg config.SuperAdminConfig, logger *zap.Logger) error {
	if cfg.Email == "" || cfg.Password == "" {
		logger.Warn("super admin not configured, skipping seed")
		return nil
	}
	if _, err := store.GetUserByEmail(ctx, cfg.Email); err == nil {
		return nil
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(cfg.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	name := cfg.Name
	if name == "" {
		name = "Administrator"
	}
	user := &database.User{
		Name:     name,
		Email:    cfg.Email,
		Password: string(hashed),
		Role:     database.RoleAdmin,
	}
	if err := store.CreateUser(ctx, user); err != nil {
		return err
	}
	logger.Info("seeded super admin account", zap.String("email", cfg.Email))
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
