package pathresolve

import (
	"net/url"
	"strings"
)

// SlashNormalizer handles hosts whose absolute paths start with "/".
// file:///home/a.txt becomes /home/a.txt.
type SlashNormalizer struct{}

// NormalizeURIPath implements URINormalizer.
func (SlashNormalizer) NormalizeURIPath(rest string) string {
	return unescape(rest)
}

// DriveLetterNormalizer handles hosts whose absolute paths start with a
// drive letter. file:///C:/Users/a.txt becomes C:\Users\a.txt: exactly one
// leading separator is dropped and forward slashes become backslashes.
type DriveLetterNormalizer struct{}

// NormalizeURIPath implements URINormalizer.
func (DriveLetterNormalizer) NormalizeURIPath(rest string) string {
	p := unescape(rest)
	if len(p) > 0 && (p[0] == '/' || p[0] == '\\') {
		p = p[1:]
	}
	return strings.ReplaceAll(p, "/", `\`)
}

// unescape decodes percent-escapes, leaving the input untouched when it is
// not a valid escaped path.
func unescape(s string) string {
	decoded, err := url.PathUnescape(s)
	if err != nil {
		return s
	}
	return decoded
}
