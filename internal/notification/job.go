package notification

import (
	"time"

	"ticktask-backend/pkg/fcm"
	"ticktask-backend/pkg/mailer"

	"github.com/google/uuid"
)

// Kind distinguishes outbox jobs
type Kind string

const (
	KindEmail Kind = "email"
	KindPush  Kind = "push"
)

// Push addresses a push notification to every device of one user
type Push struct {
	UserID       string `json:"user_id"`
	fcm.Notification
}

// Job is one pending notification
type Job struct {
	ID        string          `json:"id"`
	Kind      Kind            `json:"kind"`
	Email     *mailer.Message `json:"email,omitempty"`
	Push      *Push           `json:"push,omitempty"`
	Retries   int             `json:"retries"`
	Timestamp time.Time       `json:"timestamp"`

	bucketKey []byte
}

// EmailJob wraps an e-mail message into a job
func EmailJob(msg mailer.Message) Job {
	return Job{Kind: KindEmail, Email: &msg}
}

// PushJob wraps a push notification into a job
func PushJob(userID string, n fcm.Notification) Job {
	return Job{Kind: KindPush, Push: &Push{UserID: userID, Notification: n}}
}

func (j *Job) normalize() {
	if j.ID == "" {
		j.ID = uuid.NewString()
	}
	if j.Timestamp.IsZero() {
		j.Timestamp = time.Now().UTC()
	}
}
