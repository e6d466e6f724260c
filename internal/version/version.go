// ABOUTME: Version information for waveview
// ABOUTME: Product identity plus semantic version parsing and compatibility checks
package version

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
)

const (
	// Version is the software version; remote control peers must share its major version
	Version = "0.3.0"

	// Product is the product name reported in handshakes
	Product = "Waveview"

	// Manufacturer is reported alongside Product
	Manufacturer = "Resonate"
)

// Semver returns Version parsed as a semantic version
func Semver() *semver.Version {
	return semver.MustParse(Version)
}

// Compatible reports whether a peer running version other can talk to us
func Compatible(other string) bool {
	v, err := semver.NewVersion(other)
	if err != nil {
		return false
	}
	return v.Major() == Semver().Major()
}

// Check returns an error describing why other is not compatible
func Check(other string) error {
	v, err := semver.NewVersion(other)
	if err != nil {
		return fmt.Errorf("invalid version %q: %w", other, err)
	}
	if v.Major() != Semver().Major() {
		return fmt.Errorf("version %s is incompatible with %s", v, Version)
	}
	return nil
}

// String returns the product and version for display
func String() string {
	return fmt.Sprintf("%s %s", Product, Version)
}
