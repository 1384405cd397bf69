package harness

import (
	"errors"
	"fmt"
)

// Stage names the bootstrap step that failed.
type Stage string

// Bootstrap stages.
const (
	StageResolve  Stage = "resolve"
	StageLoad     Stage = "load"
	StageProvider Stage = "provider"
	StageListen   Stage = "listen"
)

// FixtureKind distinguishes client fixtures from key fixtures.
type FixtureKind string

// Fixture kinds.
const (
	KindClient FixtureKind = "client"
	KindCert   FixtureKind = "cert"
)

// ErrAlreadyRemoved is reported when teardown finds a fixture that was
// removed during the group.
var ErrAlreadyRemoved = errors.New("fixture already removed")

// ErrRegistrationPanic is reported for a registration that panicked.
var ErrRegistrationPanic = errors.New("fixture registration panicked")

// BootstrapError is returned by Start when the harness cannot come up.
type BootstrapError struct {
	Stage Stage
	Err   error
}

func (e *BootstrapError) Error() string {
	return fmt.Sprintf("harness bootstrap failed at %s: %v", e.Stage, e.Err)
}

func (e *BootstrapError) Unwrap() error { return e.Err }

// FixtureRegistrationError describes one failed registration in a batch.
// Index is the position of the fixture in the batch input.
type FixtureRegistrationError struct {
	Kind  FixtureKind
	Index int
	Ident string
	Err   error
}

func (e *FixtureRegistrationError) Error() string {
	if e.Ident != "" {
		return fmt.Sprintf("%s fixture %d (%s): %v", e.Kind, e.Index, e.Ident, e.Err)
	}
	return fmt.Sprintf("%s fixture %d: %v", e.Kind, e.Index, e.Err)
}

func (e *FixtureRegistrationError) Unwrap() error { return e.Err }

// TeardownError describes a fixture that could not be removed. It is only
// ever logged.
type TeardownError struct {
	Kind  FixtureKind
	Ident string
	Err   error
}

func (e *TeardownError) Error() string {
	return fmt.Sprintf("%s fixture %s teardown: %v", e.Kind, e.Ident, e.Err)
}

func (e *TeardownError) Unwrap() error { return e.Err }
