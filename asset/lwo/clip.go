package lwo

import (
	"strings"
	"unicode/utf8"
)

// A clip references an external still image.
type Clip struct {
	// 1-based clip id.
	ID int

	// Image path as written to the STIL sub-chunk.
	Path string

	// Resolved image location.
	Source string
}

// The clip registry allocates clip ids for image paths. Each distinct path
// receives a sequential id on first reference.
type clipRegistry struct {
	clips  []Clip
	byPath map[string]int
}

func newClipRegistry() *clipRegistry {
	return &clipRegistry{
		clips:  make([]Clip, 0),
		byPath: make(map[string]int),
	}
}

// Get the clip id for an image path, allocating a new clip if needed.
func (r *clipRegistry) resolve(path, source string) (int, error) {
	if id, exists := r.byPath[path]; exists {
		return id, nil
	}

	id := len(r.clips) + 1
	if id >= maxNarrowIndex {
		return 0, ErrTooManyClips
	}

	r.clips = append(r.clips, Clip{ID: id, Path: path, Source: source})
	r.byPath[path] = id
	return id, nil
}

// Build the CLIP chunks for all allocated clips in id order.
func (r *clipRegistry) chunks() ([]Chunk, error) {
	out := make([]Chunk, 0, len(r.clips))
	for _, clip := range r.clips {
		var buf chunkBuffer
		buf.U32(uint32(clip.ID))
		buf.SubChunk("STIL", EncodeString(normalizeClipPath(clip.Path)))

		chunk, err := newChunk(idClip, buf.Bytes(), buf.Err())
		if err != nil {
			return nil, err
		}
		out = append(out, chunk)
	}
	return out, nil
}

// Convert backslashes to forward slashes. The first two characters are
// kept as-is so drive letters and UNC/relative prefixes survive.
func normalizeClipPath(path string) string {
	prefix := 0
	for chars := 0; chars < 2 && prefix < len(path); chars++ {
		_, size := utf8.DecodeRuneInString(path[prefix:])
		prefix += size
	}
	return path[:prefix] + strings.Replace(path[prefix:], `\`, `/`, -1)
}
