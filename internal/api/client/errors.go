package client

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/d60-Lab/ideahub/pkg/apperr"
)

// parseHTTPError keeps the server's message verbatim: it may be a JSON object
// with message/error, or a plain text body.
func parseHTTPError(status int, raw []byte) error {
	body := strings.TrimSpace(string(raw))

	var env struct {
		Message string `json:"message"`
		Error   string `json:"error"`
		Code    string `json:"code"`
	}
	msg := ""
	code := ""
	if err := json.Unmarshal(raw, &env); err == nil {
		msg = strings.TrimSpace(env.Message)
		if msg == "" {
			msg = strings.TrimSpace(env.Error)
		}
		code = strings.TrimSpace(env.Code)
	} else {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			msg = strings.TrimSpace(s)
		} else {
			msg = body
		}
	}
	if msg == "" {
		msg = http.StatusText(status)
	}

	e := apperr.FromStatus(status, msg)
	e.Code = code
	return e
}
