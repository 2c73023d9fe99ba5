package notification

import (
	"fmt"
	"time"

	"ticktask-backend/pkg/mailer"
)

const signoff = "Check it in TickTask!"

// AssignmentEmail tells a user someone else assigned them a task.
func AssignmentEmail(to, recipient, assigner, title string) mailer.Message {
	return mailer.Message{
		To:      []string{to},
		Subject: fmt.Sprintf("New task assigned: %s", title),
		Body: fmt.Sprintf("Hi %s,\n\n%s assigned you a new task: \"%s\".\n\n%s",
			recipient, assigner, title, signoff),
	}
}

// SelfAssignmentEmail confirms a task the user assigned to themselves.
func SelfAssignmentEmail(to, recipient, title string) mailer.Message {
	return mailer.Message{
		To:      []string{to},
		Subject: fmt.Sprintf("Task created: %s", title),
		Body: fmt.Sprintf("Hi %s,\n\nYou created the task \"%s\" and assigned it to yourself.\n\n%s",
			recipient, title, signoff),
	}
}

// StatusChangeEmail reports a status transition.
func StatusChangeEmail(to, recipient, actor, title, from, toStatus string) mailer.Message {
	return mailer.Message{
		To:      []string{to},
		Subject: fmt.Sprintf("Task status changed: %s", title),
		Body: fmt.Sprintf("Hi %s,\n\n%s changed the status of \"%s\" from %s to %s.\n\n%s",
			recipient, actor, title, from, toStatus, signoff),
	}
}

// CommentEmail forwards a new comment to the other side of the task.
func CommentEmail(to, recipient, author, title, content string) mailer.Message {
	return mailer.Message{
		To:      []string{to},
		Subject: fmt.Sprintf("New comment on task: %s", title),
		Body: fmt.Sprintf("Hi %s,\n\n%s commented on the task \"%s\":\n\"%s\"\n\n%s",
			recipient, author, title, content, signoff),
	}
}

// ReminderEmail warns about an approaching deadline.
func ReminderEmail(to, recipient, title string, days int, deadline time.Time) mailer.Message {
	return mailer.Message{
		To:      []string{to},
		Subject: fmt.Sprintf("Reminder: task \"%s\" is due soon", title),
		Body: fmt.Sprintf("Hi %s,\n\nThe task \"%s\" is due in %d days: %s.\n\n%s",
			recipient, title, days, deadline.UTC().Format(time.RFC1123), signoff),
	}
}
