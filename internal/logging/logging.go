// Package logging configures the process-wide apex/log handler.
package logging

import (
	"fmt"
	"io"
	"strings"

	"github.com/apex/log"
	"github.com/apex/log/handlers/cli"
	"github.com/apex/log/handlers/json"
	"github.com/apex/log/handlers/text"
)

// Setup installs a handler writing to w. format is "cli", "text" or "json";
// level is any apex/log level name.
func Setup(w io.Writer, level, format string) error {
	lvl, err := log.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}

	handler, err := NewHandler(w, format)
	if err != nil {
		return err
	}

	log.SetHandler(handler)
	log.SetLevel(lvl)
	return nil
}

// NewHandler builds the handler for format without installing it.
func NewHandler(w io.Writer, format string) (log.Handler, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "cli":
		return cli.New(w), nil
	case "text":
		return text.New(w), nil
	case "json":
		return json.New(w), nil
	}
	return nil, fmt.Errorf("unknown log format %q (use cli, text or json)", format)
}
