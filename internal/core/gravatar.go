// AngelaMos | 2026
// gravatar.go

package core

import (
	"crypto/md5" //nolint:gosec // gravatar addresses avatars by md5 of the email
	"encoding/hex"
	"fmt"
	"slices"
	"strings"
)

const gravatarBase = "https://secure.gravatar.com/avatar"

// GravatarStyles are the fallback images gravatar can generate.
var GravatarStyles = []string{"mp", "identicon", "monsterid", "wavatar", "retro", "robohash"}

const DefaultGravatarStyle = "identicon"

// NormalizeEmail case-folds an address for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func AvatarHash(email string) string {
	sum := md5.Sum([]byte(NormalizeEmail(email))) //nolint:gosec // not a security hash
	return hex.EncodeToString(sum[:])
}

func GravatarURL(hash, style string, size int) string {
	if !slices.Contains(GravatarStyles, style) {
		style = DefaultGravatarStyle
	}
	if size < 1 {
		size = 100
	}
	return fmt.Sprintf("%s/%s?s=%d&d=%s&r=g", gravatarBase, hash, size, style)
}
