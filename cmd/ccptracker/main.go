package main

import "github.com/emiliopalmerini/ccptracker/internal/cli"

func main() {
	cli.Execute()
}
