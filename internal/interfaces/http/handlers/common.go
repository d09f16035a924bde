package handlers

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"github.com/yumzoom/yumzoom/internal/interfaces/http/middleware"
	"github.com/yumzoom/yumzoom/pkg/errors"
	"github.com/yumzoom/yumzoom/pkg/types/common"
)

func getUserIDFromContext(r *http.Request) string {
	return middleware.ContextGetUserID(r.Context())
}

// parsePagination reads page and page_size.  Missing values take the
// defaults and page_size is capped at common.MaxPageSize; anything that is
// not a positive integer is rejected.
func parsePagination(r *http.Request) (page, pageSize int, err error) {
	q := r.URL.Query()
	if page, err = positiveParam(q, "page", 1); err != nil {
		return 0, 0, err
	}
	if pageSize, err = positiveParam(q, "page_size", common.DefaultPageSize); err != nil {
		return 0, 0, err
	}
	return page, min(pageSize, common.MaxPageSize), nil
}

// positiveParam returns def when key is absent.
func positiveParam(q url.Values, key string, def int) (int, error) {
	v := q.Get(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, errors.InvalidParam(key + " must be a positive integer").WithDetail(v)
	}
	return n, nil
}

func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

func writeSuccess[T any](w http.ResponseWriter, data T) {
	writeJSON(w, http.StatusOK, common.NewSuccessResponse(data))
}

func writePage[T any](w http.ResponseWriter, items []T, p common.Pagination) {
	writeJSON(w, http.StatusOK, common.NewPaginatedResponse(items, p))
}

// writeAppError writes the failure envelope with the client-safe view of err.
func writeAppError(w http.ResponseWriter, err error) {
	code, status, message := errors.Public(err)
	writeJSON(w, status, common.NewErrorResponse(string(code), message))
}

//Personal.AI order the ending
