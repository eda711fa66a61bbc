package model

import (
	"livedash/internal/evented"
	"livedash/internal/events"
)

// User events.
const (
	SignedInEvent  = "signed-in"
	SignedOutEvent = "signed-out"
)

var userSchema = evented.MustSchema(
	evented.Field{Name: "name", Default: nil, Validate: evented.Nullable(evented.Trimmed())},
)

// User is the signed-in identity, if any.
type User struct {
	e *evented.Entity
}

func NewUser(initial map[string]any) (*User, error) {
	e, err := evented.New(userSchema, initial)
	if err != nil {
		return nil, err
	}
	return &User{e: e}, nil
}

func (u *User) Entity() *evented.Entity { return u.e }

func (u *User) Name() string { return evented.Value[string](u.e, "name") }

func (u *User) SignedIn() bool { return u.Name() != "" }

// SignIn stores the account data (typically the auth endpoint's payload) and fires
// SignedInEvent with the user name. Invalid data leaves the user signed out.
func (u *User) SignIn(data map[string]any) bool {
	if !u.e.Set(data, false) {
		return false
	}
	if !u.SignedIn() {
		return false
	}
	u.e.Trigger(SignedInEvent, u.Name())
	return true
}

// SignOut clears the name and fires SignedOutEvent. It is a no-op when nobody is
// signed in.
func (u *User) SignOut() {
	if !u.SignedIn() {
		return
	}
	u.e.Set(map[string]any{"name": nil}, false)
	u.e.Trigger(SignedOutEvent)
}

func (u *User) Invalid() string          { return u.e.Invalid() }
func (u *User) Snapshot() map[string]any { return u.e.Snapshot() }

func (u *User) On(name string, fn func(evented.Event)) events.Handle { return u.e.On(name, fn) }
func (u *User) Off(name string, h events.Handle)                     { u.e.Off(name, h) }
