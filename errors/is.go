package errors

import stderrors "errors"

// Is and As are re-exported so callers importing this package keep a single errors import.
func Is(err, target error) bool { return stderrors.Is(err, target) }

func As(err error, target any) bool { return stderrors.As(err, target) }
