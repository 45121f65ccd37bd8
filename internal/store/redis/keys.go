package redis

const (
	// KeyPrefixShare is the prefix for share record hashes
	KeyPrefixShare = "pshare:share:"

	fieldCreatedAt = "created_at"
	fieldExpiresAt = "expires_at"
)

// ShareKey returns the Redis key for a share record
func ShareKey(id string) string {
	return KeyPrefixShare + id
}
