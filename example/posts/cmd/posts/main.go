package main

import "github.com/kroma-labs/endpoint-go/example/posts/internal/cli"

func main() {
	cli.Execute()
}
