// Package resource reads the metadata a Solid server publishes about the
// members of a container (modification time, size, LDP types) and orders
// container members by recency.
package resource

import (
	"slices"
	"time"

	"github.com/phochste/AcmeInboxViewer/internal/graph"
	"github.com/phochste/AcmeInboxViewer/internal/vocab"
)

// Info describes one contained resource as stated in its container's
// listing.
type Info struct {
	URL string `json:"url"`

	// RelativePath is URL with the container URL removed. It is nil when no
	// base was given.
	RelativePath *string `json:"relativePath,omitempty"`

	// IsDir is true when Types contains ldp:Container or ldp:BasicContainer.
	IsDir bool `json:"isDir"`

	Modified *time.Time `json:"modified,omitempty"`
	Mtime    *int64     `json:"mtime,omitempty"`
	Size     *int64     `json:"size,omitempty"`
	Types    []string   `json:"types,omitempty"`
}

// Read returns the metadata the container graph g states about url, or nil
// when g has no statements about it. base is the container URL; when it is
// non-empty RelativePath is set.
func Read(g *graph.Graph, url, base string) *Info {
	thing := g.Thing(url)
	if thing == nil {
		return nil
	}

	info := &Info{
		URL:      url,
		Modified: thing.Datetime(vocab.DCTModified),
		Mtime:    thing.Integer(vocab.POSIXMtime),
		Size:     thing.Integer(vocab.POSIXSize),
		Types:    thing.URLs(vocab.RDFType),
	}
	info.IsDir = IsContainer(info.Types)

	if base != "" {
		rel := ""
		if len(url) > len(base) {
			rel = url[len(base):]
		}
		info.RelativePath = &rel
	}

	return info
}

// IsContainer reports whether types classify a resource as an LDP
// container.
func IsContainer(types []string) bool {
	return vocab.HasType(types, vocab.LDPContainer) || vocab.HasType(types, vocab.LDPBasicContainer)
}

// Compare orders a before b when it was modified more recently. The
// dct:modified timestamps are compared when both have one; otherwise the
// posix:mtime values are compared when both have one. In every other case,
// including a nil argument, Compare returns 0.
func Compare(a, b *Info) int {
	if a == nil || b == nil {
		return 0
	}
	if a.Modified != nil && b.Modified != nil {
		return b.Modified.Compare(*a.Modified)
	}
	if a.Mtime != nil && b.Mtime != nil {
		switch {
		case *a.Mtime > *b.Mtime:
			return -1
		case *a.Mtime < *b.Mtime:
			return 1
		}
	}
	return 0
}

// SortByModified sorts infos most recent first, per Compare. Resources that
// cannot be compared keep their relative order.
func SortByModified(infos []*Info) {
	slices.SortStableFunc(infos, Compare)
}
