package common

const (
	// DatabaseFileName is the user database, relative to the data directory.
	DatabaseFileName = "db.json"

	// UserDirName holds one subtree per user.
	UserDirName = "user"

	// PublicDirName holds share links.
	PublicDirName = "public"

	// MiB scales the quota field of a user record to bytes.
	MiB = 1024 * 1024
)
