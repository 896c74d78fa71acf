package main

import "tariffrag/internal/cli"

func main() {
	cli.Execute()
}
