package main

import "github.com/packsmith/packsmith/internal/cli"

func main() {
	cli.Execute()
}
