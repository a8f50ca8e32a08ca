package spy

import (
	"fmt"
)

// ConfigurationError reports a missing or illegal construction argument.
type ConfigurationError struct {
	Argument string
	Missing  bool
}

func (e *ConfigurationError) Error() string {
	if e.Missing {
		return fmt.Sprintf("argument %q must be provided", e.Argument)
	}
	return fmt.Sprintf("provided value to argument %q is not legal", e.Argument)
}
