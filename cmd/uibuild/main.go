package main

import (
	"os"

	"git.home.luguber.info/inful/uibuild/cmd/uibuild/commands"
)

func main() {
	os.Exit(commands.Execute(&commands.Global{Stdout: os.Stdout, Stderr: os.Stderr}, os.Args[1:]))
}
