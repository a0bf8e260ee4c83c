package nskeyed

import (
	"errors"
	"fmt"
)

var (
	// ErrNoRootObject means the archive has no "root" entry in its $top
	// dictionary.
	ErrNoRootObject = errors.New("root object is not found")

	// ErrMalformedObject means an object record does not have the structure
	// the decoding class expects, or is structurally broken (not a
	// dictionary, missing or dangling $class reference, bad class info).
	ErrMalformedObject = errors.New("structure of the decoding object is malformed")
)

// MalformedDataError means the input is not a parseable archive at all:
// the property list failed to parse or serialize, or the envelope is missing
// one of its required keys.
type MalformedDataError struct {
	Err error
}

func malformedData(err error) error {
	return &MalformedDataError{err}
}

func malformedDataf(format string, args ...any) error {
	return &MalformedDataError{fmt.Errorf(format, args...)}
}

func (e *MalformedDataError) Unwrap() error {
	return e.Err
}

func (e *MalformedDataError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("archive data is malformed: %v", e.Err)
	}
	return "archive data is malformed"
}

// UnsupportedArchiverError means the archive was produced by an archiver
// other than NSKeyedArchiver (e.g. the deprecated non-keyed NSArchiver).
type UnsupportedArchiverError struct {
	Archiver string
}

func (e *UnsupportedArchiverError) Error() string {
	return fmt.Sprintf("archiver %q is not supported", e.Archiver)
}

// UnknownClassError means the archive references a class name that is not
// present in the registry passed to Unmarshal.
type UnknownClassError struct {
	Class string
}

func (e *UnknownClassError) Error() string {
	return fmt.Sprintf("decoding class %q is unknown, did you forget to register it?", e.Class)
}
