package internal

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"strings"
)

// ParseLevel reads a slog level name such as "DEBUG" or "WARN+2". Unknown
// names fall back to INFO with a note on stderr.
func ParseLevel(level string) slog.Level {
	var result slog.Level
	if err := result.UnmarshalText([]byte(level)); err != nil {
		fmt.Fprintf(os.Stderr, "invalid log level %s: %v, using info\n", level, err)
		return slog.LevelInfo
	}
	return result
}

// NewLogger writes JSON records with source locations to w.
func NewLogger(w io.Writer, level slog.Leveler) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		AddSource: true,
		Level:     level,
	}))
}

// InitSlog installs a JSON logger on stderr as the process default.
func InitSlog(level string) {
	slog.SetDefault(NewLogger(os.Stderr, ParseLevel(level)))
}

// GetRequestLogger returns the default logger annotated with the request
// fields operators need when tracing contact spam or admin activity.
func GetRequestLogger(r *http.Request) *slog.Logger {
	return slog.With(
		"method", r.Method,
		"path", r.URL.Path,
		"user_agent", r.UserAgent(),
		"accept_language", r.Header.Get("Accept-Language"),
		"x-forwarded-for", r.Header.Get("X-Forwarded-For"),
		"x-real-ip", r.Header.Get("X-Real-Ip"),
	)
}

// disconnectNoise marks net/http errors caused by visitors going away.
var disconnectNoise = []string{
	"context canceled",
	"broken pipe",
	"connection reset by peer",
}

// httpErrorLog sends http.Server error lines to slog. Client disconnects
// are demoted to debug.
type httpErrorLog struct {
	lg *slog.Logger
}

func (h httpErrorLog) Write(p []byte) (int, error) {
	msg := strings.TrimSpace(string(p))

	level := slog.LevelWarn
	for _, noise := range disconnectNoise {
		if strings.Contains(msg, noise) {
			level = slog.LevelDebug
			break
		}
	}

	h.lg.Log(context.Background(), level, "http server error", "err", msg)
	return len(p), nil
}

// GetFilteredHTTPLogger is meant for http.Server.ErrorLog. It uses the
// default slog logger at the time of the call.
func GetFilteredHTTPLogger() *log.Logger {
	return log.New(httpErrorLog{lg: slog.Default().With("subsystem", "http")}, "", 0)
}
