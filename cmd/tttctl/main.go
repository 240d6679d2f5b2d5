package main

import "github.com/mcoot/tictactoe-rooms/internal/cli"

func main() {
	cli.Execute()
}
