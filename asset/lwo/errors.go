package lwo

import "errors"

var (
	ErrIndexOverflow       = errors.New("lwo: index does not fit the selected index form")
	ErrSubChunkTooLarge    = errors.New("lwo: sub-chunk payload exceeds 65535 bytes")
	ErrPolygonTooLarge     = errors.New("lwo: polygon exceeds 1023 points")
	ErrTooManyTextureSlots = errors.New("lwo: material uses more than 128 texture slots")
	ErrTooManyClips        = errors.New("lwo: clip id does not fit in a 16-bit index")
	ErrDocumentTooLarge    = errors.New("lwo: document exceeds the maximum FORM size")
	ErrNoMeshes            = errors.New("lwo: no mesh objects to export")
	ErrInvalidScale        = errors.New("lwo: export scale must be in the range [0.01, 1000]")
)
