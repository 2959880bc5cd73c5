package mesh

import (
	"path"
	"strings"

	"github.com/Faultbox/midgard-mdx/internal/engine/model"
)

// DefaultPlaceholder is drawn wherever a texture cannot be resolved.
const DefaultPlaceholder = "Textures/btntempw.dds"

// TexturePolicy decides which file a model texture reference loads.
type TexturePolicy struct {
	// Placeholder is the texture used for skipped and unresolved references.
	Placeholder string
	// Extensions are tried in order in place of the referenced extension.
	Extensions []string
	// SkipSuffixes are file stem suffixes of non-diffuse maps that are never loaded.
	SkipSuffixes []string
	// Replaceable maps replaceable IDs to texture paths.
	Replaceable map[uint32]string
}

// DefaultTexturePolicy loads DDS then BLP diffuse maps only.
func DefaultTexturePolicy() TexturePolicy {
	return TexturePolicy{
		Placeholder:  DefaultPlaceholder,
		Extensions:   []string{".dds", ".blp"},
		SkipSuffixes: []string{"Normal", "ORM", "EnvironmentMap", "Black32", "Emissive"},
		Replaceable:  model.ReplaceableTextures,
	}
}

// Resolution is the outcome of resolving one texture reference.
type Resolution int

const (
	Resolved Resolution = iota
	ReplaceableResolved
	SkippedMap
	UnknownReplaceable
	Missing
	Undecodable
)

func (r Resolution) String() string {
	switch r {
	case Resolved:
		return "resolved"
	case ReplaceableResolved:
		return "replaceable"
	case SkippedMap:
		return "skipped"
	case UnknownReplaceable:
		return "unknown replaceable id"
	case Missing:
		return "missing"
	case Undecodable:
		return "undecodable"
	default:
		return "unknown"
	}
}

// Placeholder reports whether the placeholder texture is used for r.
func (r Resolution) Placeholder() bool {
	return r != Resolved && r != ReplaceableResolved
}

// Resolve returns the path to load for tex. exists reports whether a file is
// available. When the result is a placeholder resolution, path is p.Placeholder.
func (p TexturePolicy) Resolve(tex model.Texture, exists func(string) bool) (string, Resolution) {
	if tex.ReplaceableID != 0 {
		if rp, ok := p.Replaceable[tex.ReplaceableID]; ok && rp != "" {
			return rp, ReplaceableResolved
		}
		return p.Placeholder, UnknownReplaceable
	}

	name := strings.ReplaceAll(tex.FileName, "\\", "/")
	base := strings.TrimSuffix(name, path.Ext(name))
	stem := path.Base(base)
	for _, s := range p.SkipSuffixes {
		if strings.HasSuffix(stem, s) {
			return p.Placeholder, SkippedMap
		}
	}

	for _, ext := range p.Extensions {
		candidate := base + ext
		if exists(candidate) {
			return candidate, Resolved
		}
	}
	return p.Placeholder, Missing
}
