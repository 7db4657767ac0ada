// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"errors"
	"os"
)

func main() {
	// This is cobra boilerplate documentation, except for the missing call to
	// fmt.Println(err) which in the original boilerplate is just plain wrong:
	// it renders the error message twice, see also:
	// https://github.com/spf13/cobra/issues/304
	if err := newRootCmd().Execute(); err != nil {
		if errors.Is(err, errProbeFailures) {
			osExit(1)
			return
		}
		osExit(2)
	}
}

// For CLI unit tests...
var osExit = os.Exit
