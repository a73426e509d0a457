package yaxi

import (
	"os"

	"github.com/sirupsen/logrus"
)

// PrintLog controls whether yaxi emits diagnostics to Logger. By default,
// it is enabled.
var PrintLog = true

// Logger receives protocol-level diagnostics: transport failures, dropped
// unsolicited errors and read loop termination. Swap it out to integrate
// with an application's own logging.
var Logger = newLogger()

func newLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetLevel(logrus.InfoLevel)
	return logger
}

func (c *Conn) logf(format string, v ...interface{}) {
	if PrintLog {
		Logger.WithField("display", c.display).Errorf(format, v...)
	}
}
