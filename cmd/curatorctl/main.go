// Command curatorctl runs pipeline steps by hand: a fetch, newsletter
// generation, interest seeding and queue inspection.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd(openApp).Execute(); err != nil {
		os.Exit(1)
	}
}
