package notify

import (
	"github.com/sirupsen/logrus" // Logging library
)

// LogSender writes notifications to the application log. It is always
// configured, so every event is observable even without a chat channel.
type LogSender struct{}

// Send logs the notification as a structured info line
func (LogSender) Send(title, message string) error {
	logrus.WithFields(logrus.Fields{
		"title":   title,   // Notification title
		"message": message, // Notification body
	}).Info("Notification")
	return nil
}

// Name returns the sender identifier
func (LogSender) Name() string {
	return "log"
}
