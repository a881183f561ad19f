// SPDX-FileCopyrightText: 2025 Circular Drive Initiative and cdi-grading-tool contributors
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"github.com/circulardrives/cdi-grading-tool/pkg/commands"
)

func main() {
	commands.Execute()
}
