package pathresolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDriveLetterNormalizer(t *testing.T) {
	tests := []struct {
		rest string
		want string
	}{
		{rest: "/C:/Users/me/a.txt", want: `C:\Users\me\a.txt`},
		{rest: "/D:/My%20Docs/b.md", want: `D:\My Docs\b.md`},
		{rest: "C:/already/bare", want: `C:\already\bare`},
		{rest: "//server/share", want: `\server\share`},
	}

	for _, tt := range tests {
		t.Run(tt.rest, func(t *testing.T) {
			assert.Equal(t, tt.want, DriveLetterNormalizer{}.NormalizeURIPath(tt.rest))
		})
	}
}

func TestSlashNormalizer(t *testing.T) {
	assert.Equal(t, "/home/me/a b.txt", SlashNormalizer{}.NormalizeURIPath("/home/me/a%20b.txt"))
	assert.Equal(t, "/keep/leading/slash", SlashNormalizer{}.NormalizeURIPath("/keep/leading/slash"))
}
