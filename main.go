// SPDX-License-Identifier: MPL-2.0

// toolshed installs command-line tool packages into a versioned local
// store and publishes launcher shims for the commands they declare.
package main

import cmd "toolshed-cli/cmd/toolshed"

func main() {
	cmd.Execute()
}
