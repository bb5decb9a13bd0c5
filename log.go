package quizchat

import "github.com/sirupsen/logrus"

var log = logrus.StandardLogger()

// SetVerbose switches debug-level logging on or off.
func SetVerbose(verbose bool) {
	if verbose {
		log.SetLevel(logrus.DebugLevel)
	} else {
		log.SetLevel(logrus.InfoLevel)
	}
}
