package main

import "docsync/internal/cli"

func main() {
	cli.Execute()
}
