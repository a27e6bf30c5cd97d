// Package log — тонкая обёртка над logrus с глобальным логгером сервиса.
package log

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Logger — глобальный логгер процесса.
var Logger = newLogger()

// Fields — набор структурированных полей записи.
type Fields = logrus.Fields

func newLogger() *logrus.Logger {
	l := logrus.New()
	l.Out = os.Stdout
	l.Level = logrus.InfoLevel
	l.Formatter = &logrus.TextFormatter{
		DisableColors: true,
		FullTimestamp: true,
	}
	return l
}

// SetOutput меняет вывод логгера.
func SetOutput(out io.Writer) {
	Logger.SetOutput(out)
}

// SetLevel выставляет уровень по имени ("debug", "info", ...). Неизвестное имя — ошибка.
func SetLevel(name string) error {
	lvl, err := logrus.ParseLevel(name)
	if err != nil {
		return err
	}
	Logger.SetLevel(lvl)
	return nil
}

// JSON переключает формат записей на JSON.
func JSON() {
	Logger.SetFormatter(&logrus.JSONFormatter{})
}

func WithField(key string, value any) *logrus.Entry {
	return Logger.WithField(key, value)
}

func WithFields(fields Fields) *logrus.Entry {
	return Logger.WithFields(fields)
}

func WithError(err error) *logrus.Entry {
	return Logger.WithError(err)
}

func Debugf(format string, args ...any) { Logger.Debugf(format, args...) }
func Infof(format string, args ...any)  { Logger.Infof(format, args...) }
func Warnf(format string, args ...any)  { Logger.Warnf(format, args...) }
func Errorf(format string, args ...any) { Logger.Errorf(format, args...) }
func Fatalf(format string, args ...any) { Logger.Fatalf(format, args...) }
