package models

import (
	"errors"
	"fmt"
)

var (
	ErrMissingField = errors.New("missing field")
	ErrMalformed    = errors.New("malformed payload")
	ErrBadStatus    = errors.New("unexpected status")
	ErrRateLimited  = errors.New("rate limited locally")
)

// Fetch operations reported in FetchError.Op.
const (
	OpLastPrice  = "last_price"
	OpWindowOpen = "window_open"
	OpRateLimit  = "rate_limit"
)

// FetchError is the single failure kind a price source reports.
type FetchError struct {
	Source string
	Asset  Asset
	Op     string
	Msg    string
	Err    error
}

func NewFetchError(source, op string, err error, format string, args ...interface{}) *FetchError {
	return &FetchError{Source: source, Op: op, Err: err, Msg: fmt.Sprintf(format, args...)}
}

func (e *FetchError) Error() string {
	head := e.Source
	if e.Asset != "" {
		head += " " + string(e.Asset)
	}
	if e.Op != "" {
		head += " " + e.Op
	}
	switch {
	case e.Msg != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", head, e.Msg, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", head, e.Err)
	case e.Msg != "":
		return fmt.Sprintf("%s: %s", head, e.Msg)
	}
	return head + ": fetch failed"
}

func (e *FetchError) Unwrap() error { return e.Err }

// ConfigurationError is returned at startup for an unusable configuration.
type ConfigurationError struct {
	Field string
	Msg   string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("config %s: %s", e.Field, e.Msg)
}
