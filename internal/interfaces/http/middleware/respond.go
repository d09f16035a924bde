package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/yumzoom/yumzoom/pkg/types/common"
)

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeGatewayError writes the bare {code, message} body used by the API
// key gate.
func writeGatewayError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, common.ErrorDetail{Code: code, Message: message})
}

// writeUnauthorized writes the standard failure envelope with 401.
func writeUnauthorized(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusUnauthorized, common.NewErrorResponse("UNAUTHORIZED", message))
}

//Personal.AI order the ending
