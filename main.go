package main

import (
	"os"

	"shopintent/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
