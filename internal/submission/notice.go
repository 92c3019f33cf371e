package submission

import (
	"context"
	"errors"
	"net/http"

	"github.com/terramo-esg/terramo/internal/gateway"
	"github.com/terramo-esg/terramo/internal/utils"
)

// Level is the severity of a notice.
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Notice is the user-facing outcome of a save.
type Notice struct {
	Level Level
	// Key is the catalogue key, empty when Message came from the server.
	Key     string
	Message string
	// Err is the underlying failure, for logging. Nil unless Level is error.
	Err error
}

func notice(locale string, level Level, key string) Notice {
	return Notice{Level: level, Key: key, Message: utils.T(locale, key)}
}

// failureNotice maps a failed write to a message. Client errors carry the
// server's own message when it sent one; 401/403 get a dedicated message;
// everything else falls back to a generic one.
func failureNotice(locale string, err error) Notice {
	n := notice(locale, LevelError, "save.failed")
	n.Err = err
	if apiErr, ok := gateway.AsAPIError(err); ok {
		switch {
		case apiErr.Unauthorized():
			n.Key, n.Message = "save.unauthorized", utils.T(locale, "save.unauthorized")
		case apiErr.Status >= http.StatusBadRequest && apiErr.Status < http.StatusInternalServerError:
			if msg := apiErr.Message(); msg != "" {
				n.Key, n.Message = "", msg
			}
		}
		return n
	}
	if gateway.IsTransport(err) && !errors.Is(err, context.Canceled) {
		n.Key, n.Message = "save.network", utils.T(locale, "save.network")
	}
	return n
}
