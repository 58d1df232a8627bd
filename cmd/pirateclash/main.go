package main

import "github.com/mcoot/pirateclash/internal/cli"

func main() {
	cli.Execute()
}
