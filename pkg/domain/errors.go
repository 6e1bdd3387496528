package domain

import "errors"

var (
	// ErrModuleNotFound is returned when a module id cannot be found in the repository.
	ErrModuleNotFound = errors.New("module not found")

	// ErrSessionNotFound is returned when no cursor exists for a session key.
	ErrSessionNotFound = errors.New("session not found")

	// ErrProgressNotFound is returned when a learner has no recorded progress in a module.
	ErrProgressNotFound = errors.New("progress not found")

	// ErrNodeNotFound is returned when an operation targets an unknown node id.
	ErrNodeNotFound = errors.New("node not found")

	// ErrTooFewChoices is returned when a router update carries fewer than two choices.
	ErrTooFewChoices = errors.New("router requires at least two choices")

	// ErrNoActiveRouter is returned when a choice is made while no router is displayed.
	ErrNoActiveRouter = errors.New("no active router")

	// ErrChoiceRequired is returned when a learner tries to advance past a router
	// without picking one of its choices.
	ErrChoiceRequired = errors.New("choice required")

	// ErrChoiceNotFound is returned when a choice index is missing or has no target.
	ErrChoiceNotFound = errors.New("choice not found")

	// ErrChoiceBlocked is returned when strict condition gating rejects a choice.
	ErrChoiceBlocked = errors.New("choice blocked by conditions")

	// ErrAnswerRequired is returned when a required question receives an empty answer.
	ErrAnswerRequired = errors.New("answer required")

	// ErrInvalidAnswer is returned when an answer does not fit the node's options.
	ErrInvalidAnswer = errors.New("invalid answer")

	// ErrVariableNotFound is returned when a variable id is unknown to the module.
	ErrVariableNotFound = errors.New("variable not found")
)
