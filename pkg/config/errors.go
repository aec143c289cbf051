package config

import "errors"

// Config errors are fatal at load time; no partial deploy proceeds once
// one is encountered.
var (
	ErrParameterNotFound        = errors.New("config: required parameter not found")
	ErrParameterInvalid         = errors.New("config: parameter has invalid type")
	ErrVariableNotFound         = errors.New("config: variable not found")
	ErrEnvironmentValueNotFound = errors.New("config: environment.yaml value not found")
	ErrDuplicateFamilyName      = errors.New("config: duplicate family name across services and scheduled tasks")
)
