//go:build !unix

package logging

import "os"

// lockFile is a no-op where advisory locks are unavailable.
func lockFile(*os.File) (func(), error) {
	return func() {}, nil
}
