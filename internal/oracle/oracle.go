// Package oracle is the natural-language extraction and phrasing service the
// assistant consults for free-form text. Every payload it returns is validated
// against the task's JSON schema before any field is read.
package oracle

import (
	"context"
	"errors"

	"catalog-assistant/internal/common/validation"
)

var (
	ErrUnavailable = errors.New("ORACLE_UNAVAILABLE")
	ErrTimeout     = errors.New("ORACLE_TIMEOUT")
	// ErrUnusable marks a payload that could not be decoded or failed its schema.
	ErrUnusable = errors.New("ORACLE_UNUSABLE")
	// ErrNoResult is returned when the oracle answered with null.
	ErrNoResult = errors.New("ORACLE_NO_RESULT")
)

type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// Task describes one extraction: the instructions sent to the model and the
// shape the answer must have.
type Task struct {
	Name         string
	Instructions string
	SchemaJSON   string
	Schema       *validation.Schema
}

// Oracle returns the raw structured result for a task, or nil when the
// model declined to answer.
type Oracle interface {
	ExtractStructured(ctx context.Context, task Task, input string) (map[string]interface{}, error)
}

func newTask(name, instructions, schemaJSON string) Task {
	return Task{
		Name:         name,
		Instructions: instructions,
		SchemaJSON:   schemaJSON,
		Schema:       validation.MustCompile(name, schemaJSON),
	}
}
