package log

import (
	"os"

	"go.uber.org/zap"
)

// Logger is the process wide sugared logger. LOG_FORMAT=json switches to the
// production encoder.
var Logger = New(os.Getenv("LOG_FORMAT"))

func New(format string) *zap.SugaredLogger {
	if format == "json" {
		return zap.Must(zap.NewProduction()).Sugar()
	}

	return zap.Must(zap.NewDevelopment()).Sugar()
}
