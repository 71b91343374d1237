// Package scheduler runs the periodic notification jobs: budget alerts when a
// category's monthly spend crosses its limit, and EMI reminders on each debt's
// due day.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/saks786/expense-tracker/internal/notifier"
	"github.com/saks786/expense-tracker/internal/storage"
)

// Scheduler owns the cron runner and its jobs.
type Scheduler struct {
	cron   *cron.Cron
	store  storage.Store
	mailer notifier.Mailer
}

// New creates a scheduler over the given store and mailer.
func New(store storage.Store, mailer notifier.Mailer) *Scheduler {
	return &Scheduler{
		cron:   cron.New(),
		store:  store,
		mailer: mailer,
	}
}

// Start registers the jobs with their cron expressions and begins running
// them in the background.
func (s *Scheduler) Start(budgetAlertSpec, emiReminderSpec string) error {
	if _, err := s.cron.AddFunc(budgetAlertSpec, s.runBudgetAlerts); err != nil {
		return fmt.Errorf("schedule budget alerts: %w", err)
	}
	if _, err := s.cron.AddFunc(emiReminderSpec, s.runEMIReminders); err != nil {
		return fmt.Errorf("schedule emi reminders: %w", err)
	}
	s.cron.Start()
	slog.Info("Scheduler started",
		"budget_alert_cron", budgetAlertSpec,
		"emi_reminder_cron", emiReminderSpec,
	)
	return nil
}

// Stop halts the cron runner and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

// runBudgetAlerts emails every user whose spend in a budgeted category has
// crossed the budget limit for the current month.
func (s *Scheduler) runBudgetAlerts() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	now := time.Now()
	budgets, err := s.store.ListBudgetsForMonth(ctx, now.Year(), int(now.Month()))
	if err != nil {
		slog.Error("Budget alert job failed to list budgets", "error", err)
		return
	}

	for _, b := range budgets {
		totals, err := s.store.CategoryTotalsForMonth(ctx, b.UserID, b.Year, b.Month)
		if err != nil {
			slog.Error("Budget alert job failed to load totals", "user_id", b.UserID, "error", err)
			continue
		}

		for _, t := range totals {
			if t.Category != b.Category || t.Total.LessThanOrEqual(b.LimitAmount) {
				continue
			}

			user, err := s.store.GetUserByID(ctx, b.UserID)
			if err != nil {
				slog.Error("Budget alert job failed to load user", "user_id", b.UserID, "error", err)
				break
			}

			subject := fmt.Sprintf("Budget exceeded: %s", b.Category)
			body := fmt.Sprintf(
				"<p>Hi %s,</p><p>Your spending in <b>%s</b> this month is %s, over your budget of %s.</p>",
				user.Username, b.Category, t.Total.StringFixed(2), b.LimitAmount.StringFixed(2),
			)
			if err := s.mailer.Send(ctx, user.Email, subject, body); err != nil {
				slog.Error("Budget alert mail failed", "user_id", b.UserID, "error", err)
			} else {
				slog.Info("Budget alert sent", "user_id", b.UserID, "category", b.Category)
			}
			break
		}
	}
}

// runEMIReminders emails every user with an active debt whose EMI falls due
// today.
func (s *Scheduler) runEMIReminders() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	day := time.Now().Day()
	debts, err := s.store.ListDebtsDueOn(ctx, day)
	if err != nil {
		slog.Error("EMI reminder job failed to list debts", "error", err)
		return
	}

	for _, d := range debts {
		user, err := s.store.GetUserByID(ctx, d.UserID)
		if err != nil {
			slog.Error("EMI reminder job failed to load user", "user_id", d.UserID, "error", err)
			continue
		}

		subject := fmt.Sprintf("EMI due today: %s", d.Name)
		body := fmt.Sprintf(
			"<p>Hi %s,</p><p>Your EMI of %s for <b>%s</b> is due today. Remaining balance: %s.</p>",
			user.Username, d.EMIAmount.StringFixed(2), d.Name, d.RemainingAmount.StringFixed(2),
		)
		if err := s.mailer.Send(ctx, user.Email, subject, body); err != nil {
			slog.Error("EMI reminder mail failed", "user_id", d.UserID, "error", err)
		} else {
			slog.Info("EMI reminder sent", "user_id", d.UserID, "debt_id", d.ID)
		}
	}
}
