package main

import (
	"context"

	"go.acuvity.ai/minimcp/cli"
)

func main() {
	cli.Main(context.Background())
}
