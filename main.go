package main

import (
	"os"

	"github.com/larder-app/larder/app"
)

func main() {
	err := app.Execute()
	if err != nil {
		os.Exit(1)
	}
}
