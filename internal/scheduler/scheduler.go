package scheduler

import (
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/harshahs/digital-bank/internal/config"
	"github.com/harshahs/digital-bank/internal/service"
	"github.com/harshahs/digital-bank/internal/utils/email"
)

// Scheduler runs the periodic admin digest: a daily email summarizing
// pending loan applications and outstanding loans.
type Scheduler struct {
	cron   *cron.Cron
	cfg    *config.Config
	log    *logrus.Logger
	loans  *service.LoanService
	sender *email.Sender
}

// New creates the scheduler. Jobs are registered by Start.
func New(cfg *config.Config, log *logrus.Logger, loans *service.LoanService, sender *email.Sender) *Scheduler {
	return &Scheduler{
		cron:   cron.New(),
		cfg:    cfg,
		log:    log,
		loans:  loans,
		sender: sender,
	}
}

// Start registers the digest job and starts the cron loop.
func (s *Scheduler) Start() error {
	if !s.cfg.EmailEnabled() {
		s.log.Info("SMTP not configured, loan digest disabled")
		return nil
	}
	if _, err := s.cron.AddFunc(s.cfg.DigestCron, s.sendDigest); err != nil {
		return fmt.Errorf("failed to schedule loan digest: %w", err)
	}
	s.cron.Start()
	s.log.Infof("Loan digest scheduled: %q", s.cfg.DigestCron)
	return nil
}

// Stop halts the cron loop.
func (s *Scheduler) Stop() {
	s.cron.Stop()
}

func (s *Scheduler) sendDigest() {
	applications := s.loans.ListApplications()
	active := s.loans.ActiveLoans()
	if err := s.sender.SendLoanDigest(s.cfg.AdminEmail, applications, active); err != nil {
		s.log.Errorf("Failed to send loan digest: %v", err)
	}
}
