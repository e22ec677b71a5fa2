// Command contextindex is the CLI entry point: it indexes a codebase into
// semantically searchable chunks, keeps the index in sync as files change,
// and serves similarity search over the result.
package main

import "github.com/mvp-joe/contextindex/internal/cli"

func main() {
	cli.Execute()
}
