package main

import (
	"os"

	"crisiswatch/internal/app"
)

func main() {
	os.Exit(app.Run(os.Args[1:]))
}
