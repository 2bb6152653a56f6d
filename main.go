package main

import "github.com/pairscope/statarb-cli/cmd"

func main() {
	cmd.Execute()
}
