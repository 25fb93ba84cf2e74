package main

import "canpi-panel/cmd/cli/command"

func main() {
	command.Execute()
}
