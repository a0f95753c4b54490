package worker

import (
	"github.com/spec-kit/request-service/internal/service"
)

// StartNotificationWorker subscribes the lifecycle notification handlers.
func StartNotificationWorker(notificationService *service.NotificationService) {
	if notificationService == nil {
		return
	}
	notificationService.RegisterHandlers()
}
