package cli

import (
	"errors"

	"terminal-bank/pkg/apperror"
)

const (
	invalidNumber = "Error: Invalid number format"
	operatorOnly  = "Error: Operator commands are disabled on this terminal"
)

// fail prints the user-facing text for err and logs what the user does not see.
func (c *Console) fail(op string, err error) {
	kind := apperror.KindOf(err)
	switch kind {
	case apperror.KindPersistence, apperror.KindInternal, apperror.KindTransferFailed, apperror.KindGenerationExhausted:
		c.log.Error().Err(err).Str("op", op).Str("kind", string(kind)).Msg("command failed")
	default:
		c.log.Debug().Err(err).Str("op", op).Str("kind", string(kind)).Msg("command rejected")
	}
	c.println(renderError(err))
}

// renderError maps an error to console text. Wrapped causes are never shown.
func renderError(err error) string {
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		return "Error: Something went wrong, please try again"
	}

	switch appErr.Kind {
	case apperror.KindPersistence, apperror.KindInternal:
		return "Error: Something went wrong, please try again"
	default:
		return "Error: " + appErr.Message
	}
}
