package main

import "github.com/agentic-research/outline/cmd"

func main() {
	cmd.Execute()
}
