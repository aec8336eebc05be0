package app

import (
	"fmt"
	"net/http"
)

// DomainError is a business failure the client is expected to handle. Code is
// a stable machine-readable key; Message is for humans.
type DomainError struct {
	Status  int
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func inputError(code, message string) *DomainError {
	return &DomainError{Status: http.StatusBadRequest, Code: code, Message: message}
}

func logicError(code, message string) *DomainError {
	return &DomainError{Status: http.StatusConflict, Code: code, Message: message}
}

func unauthorizedError(message string) *DomainError {
	return &DomainError{Status: http.StatusUnauthorized, Code: "unauthorized", Message: message}
}

func notFoundError(message string) *DomainError {
	return &DomainError{Status: http.StatusNotFound, Code: "not_found", Message: message}
}
