// Package utils provides bespoke, one off utils that don't make sense to be
// their own package
package utils

import "fmt"

// Set at build time with -ldflags "-X github.com/fiekai/fiekchat/pkg/utils.Version=...".
var (
	Version   = "dev"
	Sha       = "HEAD"
	Buildtime = "dev"
)

// VersionString renders the build information for "fiekchat version".
func VersionString() string {
	return fmt.Sprintf("fiekchat %s (%s, built %s)", Version, Sha, Buildtime)
}
