//go:build windows

package safefileio

// noFollowFlag is zero on Windows; the regular-file check after opening
// still rejects anything that is not a plain file.
const noFollowFlag = 0
