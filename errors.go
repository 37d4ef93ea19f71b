package tex2html

import (
	"errors"

	"github.com/alnah/go-tex2html/internal/dateutil"
)

// Sentinel errors for library operations.
var (
	ErrEmptySource    = errors.New("source cannot be empty")
	ErrSourceTooLarge = errors.New("source exceeds maximum size")
	ErrNilResult      = errors.New("conversion result is nil")

	// ErrInvalidDateFormat is returned by NewConverter for a bad WithDateFormat.
	ErrInvalidDateFormat = dateutil.ErrInvalidDateFormat

	// Page rendering errors.
	ErrStyleNotFound    = errors.New("style not found")
	ErrTemplateNotFound = errors.New("template not found")
	ErrInvalidAssetPath = errors.New("invalid asset path")
	ErrPageRender       = errors.New("page rendering failed")

	// Page options validation errors.
	ErrInvalidTOCDepth = errors.New("invalid TOC depth")
	ErrInvalidLanguage = errors.New("invalid language tag")
)
