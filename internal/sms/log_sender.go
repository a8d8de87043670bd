package sms

import (
	"context"

	"github.com/sirupsen/logrus"
)

// LogSender пишет сообщения в лог вместо отправки. Только для локальной разработки.
type LogSender struct {
	log *logrus.Logger
}

// NewLogSender создаёт отправителя, пишущего в log.
func NewLogSender(log *logrus.Logger) *LogSender {
	return &LogSender{log: log}
}

func (s *LogSender) Send(_ context.Context, phone, text string) error {
	s.log.WithFields(logrus.Fields{
		"phone": phone,
		"text":  text,
	}).Warn("sms: сообщение не отправлено, включён режим разработки")
	return nil
}
