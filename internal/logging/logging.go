// Package logging wires structured logging for the signing core on top of
// logrus: WithFields plus a stable "function"/"component" field on every
// entry.
package logging

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Init configures the package-wide logrus logger. Called once from
// cmd/walletd at startup with the LOG_LEVEL env var's parsed value.
func Init(level string) {
	logrus.SetFormatter(&logrus.JSONFormatter{})
	logrus.SetOutput(os.Stdout)
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logrus.SetLevel(lvl)
}

// For returns a field logger scoped to a component name. Never pass secret
// bytes, passwords, mnemonics, or private keys as field values — only IDs,
// names, and non-secret metadata belong here.
func For(component string) *logrus.Entry {
	return logrus.WithField("component", component)
}
