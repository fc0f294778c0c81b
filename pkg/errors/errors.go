package errors

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	ErrCodeJobUnknown       ErrCode = "JOB_UNKNOWN"
	ErrCodeJobExists        ErrCode = "JOB_EXISTS"
	ErrCodeJobNotTerminal   ErrCode = "JOB_NOT_TERMINAL"
	ErrCodeTuningUnknown    ErrCode = "TUNING_UNKNOWN"
	ErrCodeEndpointUnknown  ErrCode = "ENDPOINT_UNKNOWN"
	ErrCodeEndpointExists   ErrCode = "ENDPOINT_EXISTS"
	ErrCodeModelUnknown     ErrCode = "MODEL_UNKNOWN"
	ErrCodeSpecInvalid      ErrCode = "SPEC_INVALID"
	ErrCodeInvalidParameter ErrCode = "INVALID_PARAMETER"
	ErrCodeStorageUnknown   ErrCode = "STORAGE_UNKNOWN"
	ErrCodeUnauthorized     ErrCode = "UNAUTHORIZED"
	ErrCodeUnsupported      ErrCode = "UNSUPPORTED"
	ErrCodeUnknow           ErrCode = "UNKNOWN"
	ErrCodeInternal         ErrCode = "INTERNAL"
)

type ErrCode string

type ErrorInfo struct {
	HttpStatus int     `json:"-"`
	Code       ErrCode `json:"code"`
	Message    string  `json:"message"`
	Detail     string  `json:"detail"`
}

func (e ErrorInfo) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func IsErrCode(err error, code ErrCode) bool {
	if err == nil {
		return false
	}
	info := ErrorInfo{}
	if errors.As(err, &info) {
		return info.Code == code
	}
	return false
}

func NewJobUnknownError(name string) ErrorInfo {
	return ErrorInfo{HttpStatus: http.StatusNotFound, Code: ErrCodeJobUnknown, Message: fmt.Sprintf("training job: %s not found", name)}
}

func NewJobExistsError(name string) ErrorInfo {
	return ErrorInfo{HttpStatus: http.StatusConflict, Code: ErrCodeJobExists, Message: fmt.Sprintf("training job: %s already exists", name)}
}

func NewJobNotTerminalError(name string) ErrorInfo {
	return ErrorInfo{HttpStatus: http.StatusConflict, Code: ErrCodeJobNotTerminal, Message: fmt.Sprintf("training job: %s has not finished", name)}
}

func NewTuningUnknownError(name string) ErrorInfo {
	return ErrorInfo{HttpStatus: http.StatusNotFound, Code: ErrCodeTuningUnknown, Message: fmt.Sprintf("tuning job: %s not found", name)}
}

func NewEndpointUnknownError(name string) ErrorInfo {
	return ErrorInfo{HttpStatus: http.StatusNotFound, Code: ErrCodeEndpointUnknown, Message: fmt.Sprintf("endpoint: %s not found", name)}
}

func NewEndpointExistsError(name string) ErrorInfo {
	return ErrorInfo{HttpStatus: http.StatusConflict, Code: ErrCodeEndpointExists, Message: fmt.Sprintf("endpoint: %s already exists", name)}
}

func NewModelUnknownError(name string) ErrorInfo {
	return ErrorInfo{HttpStatus: http.StatusNotFound, Code: ErrCodeModelUnknown, Message: fmt.Sprintf("model: %s not found", name)}
}

func NewSpecInvalidError(err error) ErrorInfo {
	return ErrorInfo{HttpStatus: http.StatusBadRequest, Code: ErrCodeSpecInvalid, Message: err.Error()}
}

func NewParameterInvalidError(msg string) ErrorInfo {
	return ErrorInfo{HttpStatus: http.StatusBadRequest, Code: ErrCodeInvalidParameter, Message: msg}
}

func NewStorageUnknownError(key string) ErrorInfo {
	return ErrorInfo{HttpStatus: http.StatusNotFound, Code: ErrCodeStorageUnknown, Message: fmt.Sprintf("object: %s not found", key)}
}

func NewUnauthorizedError(msg string) ErrorInfo {
	return ErrorInfo{HttpStatus: http.StatusUnauthorized, Code: ErrCodeUnauthorized, Message: msg}
}

func NewUnsupportedError(msg string) ErrorInfo {
	return ErrorInfo{HttpStatus: http.StatusNotImplemented, Code: ErrCodeUnsupported, Message: msg}
}

func NewInternalError(err error) ErrorInfo {
	return ErrorInfo{HttpStatus: http.StatusInternalServerError, Code: ErrCodeInternal, Message: err.Error()}
}
