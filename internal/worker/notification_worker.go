package worker

import (
	"github.com/spec-kit/transfer-service/internal/service"
)

// StartNotificationWorker registers the transfer notification handlers.
func StartNotificationWorker(notificationService *service.NotificationService) {
	if notificationService == nil {
		return
	}
	notificationService.RegisterHandlers()
}
