package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/velmart/checkout-core/internal/domain/order"
	"github.com/velmart/checkout-core/internal/fault"
)

// errorBody is the uniform error response shape.
type errorBody struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Code: status, Message: msg})
}

// respondError maps a domain error onto an HTTP status via its fault kind.
// Authorization failures deliberately hide detail; dependency failures log
// the cause and return a generic 500.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		return
	}
	if errors.Is(err, order.ErrNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	switch fault.KindOf(err) {
	case fault.KindValidation:
		writeError(w, http.StatusBadRequest, err.Error())
	case fault.KindAuthorization:
		writeError(w, http.StatusUnauthorized, "unauthorized")
	case fault.KindAuthenticity:
		writeError(w, http.StatusBadRequest, err.Error())
	case fault.KindConflict:
		writeError(w, http.StatusConflict, err.Error())
	default:
		zctx.From(r.Context()).Error("request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fault.Wrap(fault.KindValidation, err, "invalid request body")
	}
	return nil
}
