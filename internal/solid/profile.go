package solid

import (
	"context"
	"fmt"
	"strings"

	"github.com/phochste/AcmeInboxViewer/internal/graph"
	"github.com/phochste/AcmeInboxViewer/internal/vocab"
)

// Profile is the part of a WebID profile document the client uses.
type Profile struct {
	WebID      string   `json:"webId"`
	GivenName  *string  `json:"givenName,omitempty"`
	FamilyName *string  `json:"familyName,omitempty"`
	Name       *string  `json:"name,omitempty"`
	Image      *string  `json:"image,omitempty"`
	Inbox      *string  `json:"inbox,omitempty"`
	Storage    []string `json:"storage,omitempty"`
}

// DisplayName returns the best human readable name of the profile owner:
// foaf:name, else given and family name, else "Unknown".
func (p *Profile) DisplayName() string {
	if p == nil {
		return "Unknown"
	}
	if p.Name != nil && *p.Name != "" {
		return *p.Name
	}
	var parts []string
	if p.GivenName != nil {
		parts = append(parts, *p.GivenName)
	}
	if p.FamilyName != nil {
		parts = append(parts, *p.FamilyName)
	}
	if name := strings.TrimSpace(strings.Join(parts, " ")); name != "" {
		return name
	}
	return "Unknown"
}

// InboxURL returns the advertised LDN inbox or ErrNoInbox.
func (p *Profile) InboxURL() (string, error) {
	if p == nil || p.Inbox == nil || *p.Inbox == "" {
		return "", ErrNoInbox
	}
	return *p.Inbox, nil
}

// FetchProfile fetches and reads the profile document of webID.
func (c *Client) FetchProfile(ctx context.Context, webID string) (*Profile, error) {
	g, err := c.Fetch(ctx, webID)
	if err != nil {
		return nil, fmt.Errorf("fetching profile: %w", err)
	}
	return ReadProfile(g, webID), nil
}

// ReadProfile reads a Profile from g. Properties are taken from the WebID
// subject when it states them, otherwise from the first subject (in IRI
// order) that does, since profile documents often split the person and the
// document into separate subjects.
func ReadProfile(g *graph.Graph, webID string) *Profile {
	subjects := append([]string{webID}, g.Subjects()...)

	str := func(predicate string) *string {
		for _, s := range subjects {
			if v := g.Thing(s).String(predicate); v != nil {
				return v
			}
		}
		return nil
	}
	url := func(predicate string) *string {
		for _, s := range subjects {
			if v, ok := g.Thing(s).URL(predicate); ok {
				return &v
			}
		}
		return nil
	}

	p := &Profile{
		WebID:      webID,
		GivenName:  str(vocab.FOAFGivenName),
		FamilyName: str(vocab.FOAFFamilyName),
		Name:       str(vocab.FOAFName),
		Image:      url(vocab.FOAFImg),
		Inbox:      url(vocab.LDPInbox),
	}
	if p.Name == nil {
		p.Name = str(vocab.VCARDFn)
	}
	for _, s := range subjects {
		if storage := g.Thing(s).URLs(vocab.PIMStorage); len(storage) > 0 {
			p.Storage = storage
			break
		}
	}
	return p
}
