package main

import "github.com/picklesmaker/pickles/cmd/pickles/commands"

func main() {
	commands.Execute()
}
