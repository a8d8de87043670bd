package logger

import (
	"io"

	"github.com/sirupsen/logrus"
)

// Log глобальный логгер приложения. До вызова Init пишет в stderr с уровнем info.
var Log = logrus.New()

// Init настраивает уровень и формат логгера: JSON для production, текст для development.
func Init(level string, jsonFormat bool) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	Log.SetLevel(lvl)

	if jsonFormat {
		Log.SetFormatter(&logrus.JSONFormatter{})
		return
	}
	Log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
}

// SetOutput перенаправляет вывод логгера, используется в тестах.
func SetOutput(w io.Writer) {
	Log.SetOutput(w)
}
