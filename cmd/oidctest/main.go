// oidctest CLI - serves an OIDC provider loaded with test fixtures
package main

import (
	"os"

	"github.com/getmockd/oidctest/pkg/cli"
)

func main() {
	os.Exit(cli.Main())
}
