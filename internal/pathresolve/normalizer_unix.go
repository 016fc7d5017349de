//go:build !windows

package pathresolve

// DefaultNormalizer returns the normalizer for this platform.
func DefaultNormalizer() URINormalizer {
	return SlashNormalizer{}
}
