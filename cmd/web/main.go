// Command web runs the virtual meter dataset generation API.
package main

import (
	"fmt"
	"os"

	"vmgen/internal/app"
)

func main() {
	application, err := app.NewApplication()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start: %v\n", err)
		os.Exit(1)
	}

	if err := application.Run(); err != nil {
		application.Logger.Error("application exited with error", "error", err)
		os.Exit(1)
	}
}
