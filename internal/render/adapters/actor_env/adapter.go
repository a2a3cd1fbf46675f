// Package actorenv detects who is running the render from ambient process
// state: the CI environment signal and the OS-reported user.
package actorenv

import (
	"os"
	"os/user"
)

// Adapter implements ports.ActorPort from environment variables and the OS
// user database.
type Adapter struct{}

// New creates an environment-backed actor adapter.
func New() *Adapter {
	return &Adapter{}
}

// IsCI reports whether the process runs under CI: the CI environment
// variable equal to "true" or "1".
func (a *Adapter) IsCI() bool {
	v := os.Getenv("CI")
	return v == "true" || v == "1"
}

// Name returns the OS-reported current username, or "unknown" when the
// lookup fails.
func (a *Adapter) Name() string {
	u, err := user.Current()
	if err != nil || u.Username == "" {
		return "unknown"
	}
	return u.Username
}
