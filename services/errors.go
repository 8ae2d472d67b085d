package services

import (
	"fmt"
	"strings"
)

// Error codes returned to API clients
const (
	CodeValidation        = "VALIDATION_ERROR"
	CodeCustomerNotFound  = "CUSTOMER_NOT_FOUND"
	CodeFoodItemNotFound  = "FOOD_ITEM_NOT_FOUND"
	CodeNotFound          = "NOT_FOUND"
	CodeDatabase          = "DATABASE_ERROR"
	CodePartialSubmission = "PARTIAL_SUBMISSION"
	CodeCustomerExists    = "CUSTOMER_CODE_EXISTS"
	CodeFoodExists        = "FOOD_CODE_EXISTS"
)

// ValidationError reports input rejected before anything was persisted
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Code() string { return CodeValidation }

// NotFoundError reports a customer, food item or other record that does not resolve
type NotFoundError struct {
	Resource string
	Key      string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", strings.ReplaceAll(e.Resource, "_", " "), e.Key)
}

func (e *NotFoundError) Code() string {
	switch e.Resource {
	case "customer":
		return CodeCustomerNotFound
	case "food_item":
		return CodeFoodItemNotFound
	default:
		return CodeNotFound
	}
}

// PersistenceError wraps a failed insert, update, delete or select
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func (e *PersistenceError) Code() string { return CodeDatabase }

// LineFailure describes one submission line that was not persisted
type LineFailure struct {
	Line     int    `json:"line"`
	FoodItem string `json:"food_item"`
	FoodCode string `json:"food_code"`
	Quantity int    `json:"quantity"`
	Reason   string `json:"reason"`
}

// PartialSubmissionError reports that some, or all, lines of a submission failed.
// The lines that succeeded stay persisted.
type PartialSubmissionError struct {
	Persisted int
	Failures  []LineFailure
}

func (e *PartialSubmissionError) Error() string {
	return fmt.Sprintf("%d of %d order lines failed", len(e.Failures), e.Persisted+len(e.Failures))
}

func (e *PartialSubmissionError) Code() string { return CodePartialSubmission }

// ConflictError reports a duplicate unique code
type ConflictError struct {
	Resource string
	Key      string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("a %s with code %q already exists", strings.ReplaceAll(e.Resource, "_", " "), e.Key)
}

func (e *ConflictError) Code() string {
	if e.Resource == "food_item" {
		return CodeFoodExists
	}
	return CodeCustomerExists
}

// isUniqueViolation checks for duplicate key errors (works with both PostgreSQL and SQLite)
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "unique")
}
