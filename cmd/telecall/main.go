package main

import (
	"errors"
	"fmt"
	"log"
	"os"

	"telecall/cmd/internal/app"
)

func main() {
	if err := app.Execute(os.Args[1:]); err != nil {
		if errors.Is(err, app.ErrUsage) {
			fmt.Fprintln(os.Stderr, err)
			fmt.Fprintln(os.Stderr)
			app.PrintUsage(os.Stderr)
			os.Exit(2)
		}
		log.Fatal(err)
	}
}
