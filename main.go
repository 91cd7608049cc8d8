package main

import "github.com/theirongolddev/stashstat/cmd"

func main() {
	cmd.Execute()
}
