package main

import (
	"os"

	fiekchatcmder "github.com/fiekai/fiekchat/cmd/fiekchat"
)

func main() {
	cmd := fiekchatcmder.NewFiekchatCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
