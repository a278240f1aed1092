// Inspect a closed B+ tree index file.
// Usage: go run ./cmd/inspect_idx <path-to-index-file>
// Example: go run ./cmd/inspect_idx databases/demo/employees.0
package main

import (
	"fmt"
	"os"

	bplus "HeronDB/bplustree"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <index-file>\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Example: %s databases/demo/employees.0\n", os.Args[0])
		os.Exit(1)
	}
	report, err := bplus.InspectIndexFile(os.Args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Print(report)
}
