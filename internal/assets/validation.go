package assets

import (
	"fmt"
)

// maxAssetNameLength bounds asset names read from config files.
const maxAssetNameLength = 64

// ValidateAssetName checks that name is a bare identifier made of letters,
// digits, hyphens and underscores. Anything else could address a file
// outside the asset directories.
func ValidateAssetName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidAssetName)
	}
	if len(name) > maxAssetNameLength {
		return fmt.Errorf("%w: longer than %d characters", ErrInvalidAssetName, maxAssetNameLength)
	}
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return fmt.Errorf("%w: %q", ErrInvalidAssetName, name)
		}
	}
	return nil
}
