package onboarding

import (
	"fmt"
	"strings"

	"routedesk/internal/model"
)

func welcomeEmail(clientName, tier string, monthlyValue int, tasks []model.OnboardingTask) (string, string) {
	subject := fmt.Sprintf("Welcome aboard, %s!", clientName)

	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\n", clientName)
	b.WriteString("Welcome! We are excited to start working with you.\n")
	if tier != "" {
		fmt.Fprintf(&b, "You are on the %s plan ($%d/month).\n", tier, monthlyValue)
	}
	b.WriteString("\nTo get started, please complete these onboarding steps:\n")
	for _, t := range tasks {
		marker := ""
		if !t.IsRequired {
			marker = " (optional)"
		}
		fmt.Fprintf(&b, "%d. %s%s\n", t.TaskOrder, t.Title, marker)
	}
	b.WriteString("\nReply to this email if you have any questions.\n")
	return subject, b.String()
}

func completionEmail(clientName string) (string, string) {
	subject := "Onboarding complete"
	body := fmt.Sprintf("Hi %s,\n\nYou have completed every onboarding step. "+
		"Your project manager will reach out shortly to kick things off.\n", clientName)
	return subject, body
}

func managerEmail(caller model.Caller, total int) (string, string) {
	subject := fmt.Sprintf("[ACTION REQUIRED] %s finished onboarding", caller.DisplayName())

	var b strings.Builder
	fmt.Fprintf(&b, "Client %s (%s) completed all %d onboarding tasks.\n", caller.DisplayName(), caller.Email, total)
	fmt.Fprintf(&b, "Client id: %s\n\n", caller.UserID)
	b.WriteString("Please assign a project manager and schedule the kickoff.\n")
	return subject, b.String()
}
