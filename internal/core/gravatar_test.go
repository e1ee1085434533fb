// AngelaMos | 2026
// gravatar_test.go

package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAvatarHashIsCaseInsensitive(t *testing.T) {
	assert.Equal(t, "0bc83cb571cd1c50ba6f3e8a78ef1346", AvatarHash("MyEmailAddress@example.com "))
	assert.Equal(t, AvatarHash("john@example.com"), AvatarHash("John@Example.com"))
}

func TestGravatarURL(t *testing.T) {
	url := GravatarURL("abc", "retro", 40)
	assert.Equal(t, "https://secure.gravatar.com/avatar/abc?s=40&d=retro&r=g", url)

	fallback := GravatarURL("abc", "bogus", 0)
	assert.Equal(t, "https://secure.gravatar.com/avatar/abc?s=100&d=identicon&r=g", fallback)
}
