// Command bulkvcs is the bulkvcs CLI entrypoint.
package main

import "github.com/bulkvcs/bulkvcs/cli"

func main() {
	cli.Execute()
}
