// Package banner renders the startup banner shown by the senti commands.
package banner

import "fmt"

const art = `
                 _   _
  ___  ___ _ __ | |_(_)
 / __|/ _ \ '_ \| __| |
 \__ \  __/ | | | |_| |
 |___/\___|_| |_|\__|_|
`

// Banner returns the banner with the version line appended.
func Banner(version string) string {
	return fmt.Sprintf("%s\n  tweet sentiment toolkit %s\n\n", art, version)
}
