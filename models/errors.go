package models

import "errors"

var (
	ErrValidation       = errors.New("invalid request")
	ErrNotFound         = errors.New("not found")
	ErrScenarioNotFound = errors.New("scenario not found")
	ErrUpstreamModel    = errors.New("model provider call failed")
	ErrCacheUnavailable = errors.New("cache store unavailable")
	ErrPersistence      = errors.New("persistence failed")
	ErrAnalysisFailed   = errors.New("interaction analysis failed")
	ErrEvaluationFailed = errors.New("decision evaluation failed")
	ErrSessionNotFound  = errors.New("session not found")
)
