package http

import (
	"net/http"

	"citycouncil/internal/domain"
)

// Error codes that do not come from the domain
const (
	ErrCodeInvalidBody = "INVALID_BODY"
	ErrCodeRateLimited = "RATE_LIMITED"
)

var kindStatus = map[domain.Kind]int{
	domain.KindNotFound:           http.StatusNotFound,
	domain.KindForbidden:          http.StatusForbidden,
	domain.KindInvalidState:       http.StatusConflict,
	domain.KindInvalidArgument:    http.StatusBadRequest,
	domain.KindPreconditionFailed: http.StatusPreconditionFailed,
	domain.KindConflict:           http.StatusConflict,
	domain.KindRoomFull:           http.StatusConflict,
	domain.KindBusy:               http.StatusServiceUnavailable,
	domain.KindInternal:           http.StatusInternalServerError,
}

// StatusForKind returns the HTTP status used for an error kind
func StatusForKind(kind domain.Kind) int {
	if status, ok := kindStatus[kind]; ok {
		return status
	}
	return http.StatusInternalServerError
}
