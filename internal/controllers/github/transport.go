package github

import (
	"log/slog"
	"net/http"
)

// levelTrace sits below slog.LevelDebug and is reached with -vvv.
const levelTrace = slog.Level(-8)

type loggingRoundTripper struct {
	logger *slog.Logger
	next   http.RoundTripper
}

// RoundTrip logs the request and response.
func (l *loggingRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	l.logger.Log(req.Context(), levelTrace, "sending request", slog.String("method", req.Method), slog.String("url", req.URL.String()))
	resp, err := l.next.RoundTrip(req)
	if err != nil {
		l.logger.Log(req.Context(), levelTrace, "failed to send request", slog.Any("error", err))
		return nil, err
	}
	l.logger.Log(req.Context(), levelTrace, "received response", slog.String("status", resp.Status))
	return resp, nil
}
