// Command recordstore manages records in a versioned local store.
package main

import (
	"os"

	"github.com/mesh-intelligence/recordstore/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
