package transport

import "github.com/splinter-platform/splinter/internal/errs"

func errIO(message string, cause error) error {
	return errs.Wrap(errs.KindIO, message, cause)
}

func errProtocol(format string, args ...interface{}) error {
	return errs.Newf(errs.KindProtocol, format, args...)
}

func errDisconnected(message string) error {
	return errs.New(errs.KindDisconnected, message)
}

func errUnsupportedVersion(got, min, max uint8) error {
	return errs.Newf(errs.KindUnsupportedVersion, "version %d outside supported range [%d,%d]", got, min, max)
}
