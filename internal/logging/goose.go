package logging

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/pressly/goose/v3"
)

type gooseLogger struct {
	l    Logger
	exit func(int)
}

// MigrationLogger routes goose progress lines to l at debug level so they
// stay out of stdout.
func MigrationLogger(l Logger) goose.Logger {
	return &gooseLogger{l: l.With("module", "migrations"), exit: os.Exit}
}

func (g *gooseLogger) Printf(format string, v ...any) {
	g.l.Debug(context.Background(), strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (g *gooseLogger) Fatalf(format string, v ...any) {
	g.l.Error(context.Background(), strings.TrimSpace(fmt.Sprintf(format, v...)))
	g.exit(1)
}
