package whatsapp

import (
	"fmt"

	"github.com/charmbracelet/log"
	waLog "go.mau.fi/whatsmeow/util/log"
)

// waLogger routes whatsmeow's internal logging into ours.
// whatsmeow is chatty at info, so its info lines go to debug.
type waLogger struct {
	l *log.Logger
}

func newWALogger(l *log.Logger) waLog.Logger {
	return &waLogger{l: l}
}

func (w *waLogger) Errorf(msg string, args ...any) { w.l.Error(fmt.Sprintf(msg, args...)) }
func (w *waLogger) Warnf(msg string, args ...any)  { w.l.Warn(fmt.Sprintf(msg, args...)) }
func (w *waLogger) Infof(msg string, args ...any)  { w.l.Debug(fmt.Sprintf(msg, args...)) }
func (w *waLogger) Debugf(msg string, args ...any) { w.l.Debug(fmt.Sprintf(msg, args...)) }

func (w *waLogger) Sub(module string) waLog.Logger {
	return &waLogger{l: w.l.With("module", module)}
}
