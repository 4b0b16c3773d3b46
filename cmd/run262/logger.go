package main

import (
	"fmt"
	"log/slog"
	"os"

	slogmulti "github.com/samber/slog-multi"
)

// newLogger fans records out to a text handler on stderr and, when a path
// is given, a JSON handler on that file.
func newLogger(levelName, jsonPath string) (*slog.Logger, func()) {
	level := new(slog.LevelVar)
	if err := level.UnmarshalText([]byte(levelName)); err != nil {
		fmt.Fprintf(os.Stderr, "invalid log level %q, using info\n", levelName)
		level.Set(slog.LevelInfo)
	}
	opts := &slog.HandlerOptions{Level: level}

	handlers := []slog.Handler{
		slog.NewTextHandler(os.Stderr, opts),
	}
	closer := func() {}

	if jsonPath != "" {
		f, err := os.Create(jsonPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "can't create log file %s: %s\n", jsonPath, err)
		} else {
			handlers = append(handlers, slog.NewJSONHandler(f, opts))
			closer = func() { f.Close() }
		}
	}

	return slog.New(slogmulti.Fanout(handlers...)), closer
}
