package api

import (
	"net/http"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"cfanalytics/model"
)

var httpStatus = map[codes.Code]int{
	codes.InvalidArgument:    http.StatusBadRequest,
	codes.NotFound:           http.StatusNotFound,
	codes.AlreadyExists:      http.StatusConflict,
	codes.FailedPrecondition: http.StatusUnprocessableEntity,
	codes.Unavailable:        http.StatusBadGateway,
	codes.DeadlineExceeded:   http.StatusGatewayTimeout,
	codes.Canceled:           499,
	codes.Internal:           http.StatusInternalServerError,
}

// errorInfo unpacks "ErrorType: X, Code: N, Details: D" status messages.
// Errors that are not gRPC statuses become INTERNAL_ERROR.
func errorInfo(err error) (int, *model.ErrorInfo) {
	st, ok := status.FromError(err)
	if !ok {
		return http.StatusInternalServerError, &model.ErrorInfo{
			ErrorType: "INTERNAL_ERROR",
			Code:      http.StatusInternalServerError,
			Message:   err.Error(),
		}
	}
	code, known := httpStatus[st.Code()]
	if !known {
		code = http.StatusInternalServerError
	}

	info := &model.ErrorInfo{ErrorType: "INTERNAL_ERROR", Code: code, Message: st.Message()}
	msg := st.Message()
	if rest, found := strings.CutPrefix(msg, "ErrorType: "); found {
		errType, rest, _ := strings.Cut(rest, ", Code: ")
		info.ErrorType = errType
		if _, details, ok := strings.Cut(rest, ", Details: "); ok {
			info.Message = details
		}
	}
	info.Details = st.Code().String()
	return code, info
}
