// Package logging holds the shared project logger.
package logging

import (
	"os"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

const envLevel = "REORCH_LOG_LEVEL"

var (
	once   sync.Once
	root   *logrus.Logger
	entry  *logrus.Entry
	levels = map[string]logrus.Level{
		"debug": logrus.DebugLevel,
		"info":  logrus.InfoLevel,
		"warn":  logrus.WarnLevel,
		"error": logrus.ErrorLevel,
	}
)

// GetProjectLogger returns the logger shared by every package in the module.
func GetProjectLogger() *logrus.Entry {
	once.Do(func() {
		root = logrus.New()
		root.SetOutput(os.Stderr)
		root.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
		root.SetLevel(logrus.InfoLevel)
		if lvl, ok := levels[strings.ToLower(os.Getenv(envLevel))]; ok {
			root.SetLevel(lvl)
		}
		entry = root.WithField("name", "reorch")
	})
	return entry
}

// SetLevel changes the level by name. Unknown names are ignored and reported false.
func SetLevel(name string) bool {
	lvl, ok := levels[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return false
	}
	GetProjectLogger().Logger.SetLevel(lvl)
	return true
}
