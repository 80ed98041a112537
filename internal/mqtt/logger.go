package mqtt

import (
	"fmt"
	"strings"

	"github.com/i474232898/marine-forecast/internal/log"
)

// pahoLogger routes paho's Println/Printf output to the service logger.
type pahoLogger struct {
	logger log.Logger
	debug  bool
}

func (l pahoLogger) Println(v ...any) {
	l.emit(strings.TrimSuffix(fmt.Sprintln(v...), "\n"))
}

func (l pahoLogger) Printf(format string, v ...any) {
	l.emit(fmt.Sprintf(format, v...))
}

func (l pahoLogger) emit(msg string) {
	if l.debug {
		l.logger.Debug(msg)
		return
	}
	l.logger.Warn(msg)
}
