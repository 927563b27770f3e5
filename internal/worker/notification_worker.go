package worker

import (
	"go.uber.org/zap"

	"github.com/spec-kit/learning-platform/internal/service"
)

// StartNotificationWorker subscribes the notification service to account events.
// Handlers run synchronously inside the publishing request.
func StartNotificationWorker(notificationService *service.NotificationService, logger *zap.Logger) {
	if notificationService == nil {
		if logger != nil {
			logger.Warn("notification worker disabled")
		}
		return
	}
	notificationService.RegisterHandlers()
	if logger != nil {
		logger.Info("notification worker started")
	}
}
