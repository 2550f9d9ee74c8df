package config

import (
	"github.com/muir/commonerrors"
)

// Every failure in this package is annotated with a category.  Almost
// everything is a ConfigurationError: a bad option name, a bad value, a
// malformed document, a class that cannot be instantiated.  ProgrammerError
// marks misuse of the API itself (nil objects, non-struct models), and
// LibraryError marks conditions that should be impossible.
var (
	ConfigurationError = commonerrors.ConfigurationError
	LibraryError       = commonerrors.LibraryError
	ProgrammerError    = commonerrors.ProgrammerError
	UsageError         = commonerrors.UsageError
	ValidationError    = commonerrors.ValidationError

	IsConfigurationError = commonerrors.IsConfigurationError
	IsLibraryError       = commonerrors.IsLibraryError
	IsProgrammerError    = commonerrors.IsProgrammerError
	IsUsageError         = commonerrors.IsUsageError
	IsValidationError    = commonerrors.IsValidationError
)
