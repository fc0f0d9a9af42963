// Command anvil inspects catalogs and serves them.
//
//	anvil routes --catalog config/routes.ini
//	anvil url user show id=42
//	anvil schema users
//	anvil migrate
//	anvil serve
package main

import "os"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
