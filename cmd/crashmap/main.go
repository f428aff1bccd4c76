// Command crashmap imports the Queensland road crash dataset into PostGIS and
// serves bounding-box crash queries.
//
// Usage:
//
//	crashmap import [--file crashes.csv | --url https://...]
//	crashmap serve
//	crashmap validate crashes.csv
package main

import (
	"os"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
