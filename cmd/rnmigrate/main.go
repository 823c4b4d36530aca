// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"os"

	"github.com/AleutianAI/rnmigrate/pkg/logging"
)

// appLogger is the process-wide logger, assembled in PersistentPreRun
// once flags and config are available.
var appLogger = logging.New(logging.Config{Quiet: true})

func main() {
	err := rootCmd.Execute()
	appLogger.Close()
	if err != nil {
		os.Exit(1)
	}
}
