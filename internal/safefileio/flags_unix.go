//go:build !windows

package safefileio

import "syscall"

// noFollowFlag makes open(2) fail with ELOOP when the final component is a symlink.
const noFollowFlag = syscall.O_NOFOLLOW
