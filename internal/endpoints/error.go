package endpoints

import (
	"errors"
)

const (
	API_SUCCESS      = iota + 303000 // 303000
	API_FAILURE                      // 303001 - Generic API failure
	API_UNAUTHORIZED                 // 303002 - Authentication/Authorization failure
)

const (
	FUNCTION_NOT_TRACKED = iota + 101 // 101 - No records exist for the requested key
	INVALID_WINDOW                    // 102 - window query parameter is not a positive duration
	INVALID_PARAMETERS                // 103 - Invalid path or query parameters
	METHOD_NOT_ALLOWED                // 104 - Only GET is served
)

var (
	ErrFunctionNotTracked = errors.New("no records for the requested function")
	ErrInvalidWindow      = errors.New("window must be a positive duration such as 30s or 5m")
	ErrInvalidParameters  = errors.New("invalid request parameters")
	ErrMethodNotAllowed   = errors.New("method Not Allowed. Only GET requests are supported")
)

func GetErrorCode(err error) int {
	if err == nil {
		return API_SUCCESS
	}

	switch {
	case errors.Is(err, ErrFunctionNotTracked):
		return FUNCTION_NOT_TRACKED
	case errors.Is(err, ErrInvalidWindow):
		return INVALID_WINDOW
	case errors.Is(err, ErrInvalidParameters):
		return INVALID_PARAMETERS
	case errors.Is(err, ErrMethodNotAllowed):
		return METHOD_NOT_ALLOWED
	default:
		return API_FAILURE
	}
}
