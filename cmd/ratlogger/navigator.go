package main

import (
	"fmt"
	"os"
)

// stderrNavigator stands in for the login screen of a graphical client.
type stderrNavigator struct{}

func (stderrNavigator) ToLogin(reason string) {
	fmt.Fprintf(os.Stderr, "Logged out (%s). Run `ratlogger login` to sign in again.\n", reason)
}
