package main

import "github.com/mvp-joe/spyglass/internal/cli"

func main() {
	cli.Execute()
}
