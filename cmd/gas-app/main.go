package main

import "github.com/iyhunko/gas-app/cmd/gas-app/commands"

func main() {
	commands.Execute()
}
