package utils

import (
	"fmt"
	"log/slog"
	"os"
)

// FailOnError logs and exits when err is not nil.
func FailOnError(format string, err error, v ...any) {
	if err != nil {
		slog.Error(fmt.Sprintf(format, v...), slog.Any("error", err))
		os.Exit(1)
	}
}
