// Command gradectl grades Python files offline and prints reference dumps.
package main

import "os"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
