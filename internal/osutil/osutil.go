// Package osutil holds platform names and the permissions used for files
// that carry session data or credentials.
package osutil

const Windows = "windows"

const (
	// PrivateDirPermission is used for directories holding credentials.
	PrivateDirPermission = 0o700
	// PrivateFilePermission is used for the database and the token file.
	PrivateFilePermission = 0o600
)
