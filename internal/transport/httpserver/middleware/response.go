package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

var errMissingSubject = errors.New("auth: user payload has no id")

type errStatus int

func (e errStatus) Error() string {
	return fmt.Sprintf("auth: unexpected status %d", int(e))
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"success": false,
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}
