package solid

import (
	"context"
	"sort"
	"strings"

	"github.com/phochste/AcmeInboxViewer/internal/graph"
	"github.com/phochste/AcmeInboxViewer/internal/vocab"
)

// Item is one member of a container listing.
type Item struct {
	URL   string `json:"url"`
	Name  string `json:"name"`
	IsDir bool   `json:"isDir"`
}

// ContainerItem derives an Item from a member URL alone: URLs ending in a
// slash are containers, and the name is the last path segment.
func ContainerItem(url string) Item {
	if strings.HasSuffix(url, "/") {
		trimmed := strings.TrimSuffix(url, "/")
		return Item{URL: url, Name: lastSegment(trimmed), IsDir: true}
	}
	return Item{URL: url, Name: lastSegment(url)}
}

func lastSegment(s string) string {
	if i := strings.LastIndex(s, "/"); i >= 0 {
		return s[i+1:]
	}
	return s
}

// ListContainer fetches the container at url and returns the URLs it
// contains, in document order, along with the container graph for reading
// member metadata.
func (c *Client) ListContainer(ctx context.Context, url string) ([]string, *graph.Graph, error) {
	g, err := c.Fetch(ctx, url)
	if err != nil {
		return nil, nil, err
	}
	return Contains(g, url), g, nil
}

// Contains returns the ldp:contains members of the container fetched as
// requested.
func Contains(g *graph.Graph, requested string) []string {
	return g.Thing(ContainerURL(g, requested)).URLs(vocab.LDPContains)
}

// ContainerURL returns the subject that describes the container fetched
// as requested. After a redirect (".../inbox" to ".../inbox/") that is the
// URL the document was served from.
func ContainerURL(g *graph.Graph, requested string) string {
	if base := g.Base(); base != "" && g.Thing(base) != nil {
		return base
	}
	return requested
}

// ListItems lists the container at url as Items sorted by name.
func (c *Client) ListItems(ctx context.Context, url string) ([]Item, error) {
	members, _, err := c.ListContainer(ctx, url)
	if err != nil {
		return nil, err
	}

	items := make([]Item, 0, len(members))
	for _, m := range members {
		items = append(items, ContainerItem(m))
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Name < items[j].Name
	})
	return items, nil
}
