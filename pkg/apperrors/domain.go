package apperrors

import (
	"fmt"
	"net/http"
)

/*
Factories and predefined values for discovery errors.
Message is what the UI banner shows, so it is written for people.
*/

// =========================================================================
// Factories
// =========================================================================

// ErrUpstreamStatus - the image search answered with a non-2xx status (502)
func ErrUpstreamStatus(status int, err error) *AppError {
	return Wrap(err, CodeUpstreamStatus, "discovery",
		fmt.Sprintf("Failed to fetch cat: HTTP error! status: %d. Please check your API key or network connection.", status),
		http.StatusBadGateway,
	).WithDetails(map[string]int{"status": status})
}

// ErrNetwork - transport or decoding failure talking to the image search (503)
func ErrNetwork(err error) *AppError {
	reason := "unknown error"
	if err != nil {
		reason = err.Error()
	}
	return Wrap(err, CodeNetworkError, "discovery",
		fmt.Sprintf("Failed to fetch cat: %s. Please check your API key or network connection.", reason),
		http.StatusServiceUnavailable,
	)
}

// =========================================================================
// Predefined values
// =========================================================================

// ErrDiscoveryExhausted - every batch within the retry ceiling was fully banned (409)
var ErrDiscoveryExhausted = New(
	CodeDiscoveryExhausted,
	"discovery",
	"Could not find an unbanned cat after multiple attempts. Try removing some items from the ban list.",
	http.StatusConflict,
)

// ErrInvalidAttributeType - ban rule type is not breedName, temperament or origin
var ErrInvalidAttributeType = New(
	CodeValidationFailed,
	"validation",
	"Attribute type must be one of: breedName, temperament, origin",
	http.StatusBadRequest,
)
