package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	TasksCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ticktask_tasks_created_total",
		Help: "Tasks created, one per assignee.",
	})
	ActivitiesLogged = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ticktask_activities_logged_total",
		Help: "Activity feed entries written.",
	})
	NotificationsQueued = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ticktask_notifications_queued_total",
		Help: "Notification jobs accepted by the outbox.",
	}, []string{"kind"})
	NotificationsDelivered = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ticktask_notifications_delivered_total",
		Help: "Notification delivery attempts by result.",
	}, []string{"kind", "result"})
)

// Registry holds the service collectors.
var Registry = prometheus.NewRegistry()

func init() {
	Registry.MustRegister(TasksCreated, ActivitiesLogged, NotificationsQueued, NotificationsDelivered)
}
