//go:build !windows

package watcher

import (
	"errors"
	"syscall"
)

// isFatalWatchError reports whether an fsnotify error means the watch
// cannot recover. On Linux these are the inotify exhaustion errors:
// ENOSPC (fs.inotify.max_user_watches), EMFILE and ENFILE (descriptor
// limits).
func isFatalWatchError(err error) bool {
	return errors.Is(err, syscall.ENOSPC) ||
		errors.Is(err, syscall.EMFILE) ||
		errors.Is(err, syscall.ENFILE)
}
