package consensus

import "github.com/splinter-platform/splinter/internal/errs"

func errInvalidRole(format string, args ...interface{}) error {
	return errs.Newf(errs.KindInvalidTransition, format, args...)
}

func errUnknownContext(format string, args ...interface{}) error {
	return errs.Newf(errs.KindUnknownContext, format, args...)
}
