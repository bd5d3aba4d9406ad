package constants_test

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/passkeyradar/radar/pkg/constants"
)

// Example shows how snapshot paths are assembled from the layout constants.
func Example() {
	ts := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)
	path := filepath.Join(constants.CategoryDirectories, "passkeys.io", ts.Format(constants.TimestampLayout)+constants.SnapshotExt)
	fmt.Println(filepath.ToSlash(path))
	// Output: directories/passkeys.io/2024-03-01-12-30-00.json
}

// Example_categories lists the combined categories in order.
func Example_categories() {
	for _, c := range constants.Categories {
		fmt.Println(c)
	}
	// Output:
	// directories
	// wellknown
}
