package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/harshahs/digital-bank/internal/config"
	"github.com/harshahs/digital-bank/internal/handler"
	"github.com/harshahs/digital-bank/internal/integrations/ratefeed"
	"github.com/harshahs/digital-bank/internal/middleware"
	"github.com/harshahs/digital-bank/internal/repository"
	"github.com/harshahs/digital-bank/internal/scheduler"
	"github.com/harshahs/digital-bank/internal/service"
	"github.com/harshahs/digital-bank/internal/utils/email"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	// Load configuration
	cfg, err := config.NewConfig()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}
	logLevel, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	// Initialize storage
	repo, err := repository.NewRepository(cfg.DataDir, logger)
	if err != nil {
		logger.Fatalf("Failed to open data directory: %v", err)
	}

	// Initialize layers
	bank := service.NewBankingService(repo, logger)
	loans := service.NewLoanService(repo, logger)
	admin := service.NewAdminService(bank, loans, repo, logger)
	rates := ratefeed.NewClient(cfg, logger)
	sender := email.NewSender(cfg, logger)
	h := handler.NewHandler(bank, loans, admin, rates, sender, cfg, logger)

	// Daily loan digest
	sched := scheduler.New(cfg, logger, loans, sender)
	if err := sched.Start(); err != nil {
		logger.Fatalf("Failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	// Setup router
	r := mux.NewRouter()
	r.Use(middleware.LoggingMiddleware(logger))

	// Public routes
	r.HandleFunc("/register", h.CreateAccount).Methods("POST")
	r.HandleFunc("/login", h.Login).Methods("POST")
	r.HandleFunc("/admin/login", h.AdminLogin).Methods("POST")
	r.HandleFunc("/key-rate", h.KeyRate).Methods("GET")

	// Account-holder routes
	userRouter := r.PathPrefix("/account").Subrouter()
	userRouter.Use(middleware.AuthMiddleware(cfg))
	userRouter.HandleFunc("/balance", h.Balance).Methods("GET")
	userRouter.HandleFunc("/deposit", h.Deposit).Methods("POST")
	userRouter.HandleFunc("/withdraw", h.Withdraw).Methods("POST")
	userRouter.HandleFunc("/transfer", h.Transfer).Methods("POST")
	userRouter.HandleFunc("/history", h.History).Methods("GET")
	userRouter.HandleFunc("/limits", h.Limits).Methods("GET")
	userRouter.HandleFunc("/interest", h.SimpleInterest).Methods("GET")
	userRouter.HandleFunc("/rename", h.Rename).Methods("POST")
	userRouter.HandleFunc("/upgrade", h.Upgrade).Methods("POST")
	userRouter.HandleFunc("/reopen", h.Reopen).Methods("POST")
	userRouter.HandleFunc("/close", h.Close).Methods("POST")
	userRouter.HandleFunc("/loan/apply", h.ApplyForLoan).Methods("POST")
	userRouter.HandleFunc("/loan/take", h.TakeLoan).Methods("POST")
	userRouter.HandleFunc("/loan/repay", h.RepayLoan).Methods("POST")
	userRouter.HandleFunc("/loan", h.LoanDetails).Methods("GET")

	// Admin routes
	adminRouter := r.PathPrefix("/admin").Subrouter()
	adminRouter.Use(middleware.AuthMiddleware(cfg), middleware.RequireAdmin)
	adminRouter.HandleFunc("/accounts", h.AdminAccounts).Methods("GET")
	adminRouter.HandleFunc("/accounts", h.AdminDeleteAll).Methods("DELETE")
	adminRouter.HandleFunc("/accounts/top", h.AdminTopAccounts).Methods("GET")
	adminRouter.HandleFunc("/accounts/age-extremes", h.AdminAgeExtremes).Methods("GET")
	adminRouter.HandleFunc("/accounts/{number}", h.AdminSearchAccount).Methods("GET")
	adminRouter.HandleFunc("/accounts/{number}/reactivate", h.AdminReactivate).Methods("POST")
	adminRouter.HandleFunc("/accounts/{number}/close", h.AdminForceClose).Methods("POST")
	adminRouter.HandleFunc("/applications", h.AdminApplications).Methods("GET")
	adminRouter.HandleFunc("/applications/{number}/approve", h.AdminApproveLoan).Methods("POST")
	adminRouter.HandleFunc("/applications/{number}/reject", h.AdminRejectLoan).Methods("POST")
	adminRouter.HandleFunc("/logs", h.AdminTransactionLogs).Methods("GET")
	adminRouter.HandleFunc("/actions", h.AdminActions).Methods("GET")
	adminRouter.HandleFunc("/summary", h.AdminSummary).Methods("GET")
	adminRouter.HandleFunc("/export", h.AdminExport).Methods("POST")
	adminRouter.HandleFunc("/import", h.AdminImport).Methods("POST")

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	logger.Infof("Starting server on %s", addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("Server failed: %v", err)
	}
}
