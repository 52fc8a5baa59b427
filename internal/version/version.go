// ABOUTME: Version and product identification constants
// ABOUTME: Single place for release tooling to bump
package version

const (
	// Version is the release version.
	Version = "0.1.0"

	// Product is the product name reported in logs and the UI.
	Product = "Quaver"

	// Manufacturer identifies the project.
	Manufacturer = "Quaverd"
)
