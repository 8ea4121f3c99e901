package email

import (
	"fmt"
	"net/smtp"
	"time"

	"github.com/jordan-wright/email"
	"github.com/sirupsen/logrus"

	"github.com/harshahs/digital-bank/internal/config"
	"github.com/harshahs/digital-bank/internal/models"
)

// Sender handles sending emails via SMTP
type Sender struct {
	cfg    *config.Config
	logger *logrus.Logger
}

// NewSender creates a new email sender
func NewSender(cfg *config.Config, logger *logrus.Logger) *Sender {
	return &Sender{
		cfg:    cfg,
		logger: logger,
	}
}

// SendLoanDigest sends the admin the daily overview of pending loan
// applications and outstanding loans.
func (s *Sender) SendLoanDigest(to string, applications []models.LoanApplication, loans []models.Loan) error {
	e := email.NewEmail()
	e.From = s.cfg.SenderEmail
	e.To = []string{to}
	e.Subject = fmt.Sprintf("Loan Digest %s", time.Now().Format("2006-01-02"))

	body := "Daily loan overview.\n\n"
	if len(applications) == 0 {
		body += "No pending loan applications.\n"
	} else {
		body += fmt.Sprintf("Pending applications (%d):\n", len(applications))
		for _, app := range applications {
			body += fmt.Sprintf("  %d | %s | %s | %d years | requested %s\n",
				app.AccountNumber, app.Name, app.Principal, app.Years, app.RequestedAt)
		}
	}
	body += "\n"
	if len(loans) == 0 {
		body += "No outstanding loans.\n"
	} else {
		body += fmt.Sprintf("Outstanding loans (%d):\n", len(loans))
		for _, loan := range loans {
			body += fmt.Sprintf("  %d | %s | principal %s | pending %s\n",
				loan.AccountNumber, loan.Name, loan.Principal, loan.Pending)
		}
	}
	body += "\nBest regards,\nGlobal Digital Bank"
	e.Text = []byte(body)

	return s.send(e)
}

// SendRepaymentConfirmation notifies the holder-facing address that a
// repayment was applied.
func (s *Sender) SendRepaymentConfirmation(to string, accountNumber int64, applied, pending string) error {
	e := email.NewEmail()
	e.From = s.cfg.SenderEmail
	e.To = []string{to}
	e.Subject = "Loan Repayment Confirmation"

	body := fmt.Sprintf(
		"A repayment of %s has been applied to the loan on account %d.\n"+
			"Remaining payable: %s\n"+
			"Transaction time: %s\n",
		applied, accountNumber, pending, time.Now().Format(models.TimestampLayout),
	)
	body += "\nBest regards,\nGlobal Digital Bank"
	e.Text = []byte(body)

	return s.send(e)
}

func (s *Sender) send(e *email.Email) error {
	addr := fmt.Sprintf("%s:%s", s.cfg.SMTPHost, s.cfg.SMTPPort)
	auth := smtp.PlainAuth("", s.cfg.SMTPUsername, s.cfg.SMTPPassword, s.cfg.SMTPHost)
	if err := e.Send(addr, auth); err != nil {
		s.logger.Errorf("Failed to send email to %v: %v", e.To, err)
		return fmt.Errorf("failed to send email: %w", err)
	}
	s.logger.Infof("Email sent to %v: %s", e.To, e.Subject)
	return nil
}
