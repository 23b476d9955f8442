package main

import "imagination-site-api/internal/cli"

func main() {
	cli.Execute()
}
