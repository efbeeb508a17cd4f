package config

import (
	"fmt"
	"strings"
)

type Requirement struct {
	Env   string
	Value string
}

type MissingEnvError struct {
	Names []string
}

func (e *MissingEnvError) Error() string {
	return fmt.Sprintf("missing required env %s", strings.Join(e.Names, ", "))
}

// Require reports every empty requirement at once.
func Require(reqs ...Requirement) error {
	var missing []string
	for _, r := range reqs {
		if strings.TrimSpace(r.Value) == "" {
			missing = append(missing, r.Env)
		}
	}
	if len(missing) > 0 {
		return &MissingEnvError{Names: missing}
	}
	return nil
}
