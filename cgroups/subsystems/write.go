package subsystems

import (
	"fmt"
	"os"
)

// WriteError reports the control file a write failed on.
type WriteError struct {
	File string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write %s error %v", e.File, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

func (e *WriteError) Cause() error { return e.Err }

// writeControl replaces the whole content of the control file name.
func writeControl(name, value string) error {
	if err := os.WriteFile(name, []byte(value), 0644); err != nil {
		return &WriteError{File: name, Err: err}
	}
	return nil
}
