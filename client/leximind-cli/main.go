package main

import "LexiMind/client/leximind-cli/cmd"

func main() {
	cmd.Execute()
}
