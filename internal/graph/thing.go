package graph

import (
	"strconv"
	"strings"
	"time"
)

// Datatype and language IRIs the typed accessors understand.
const (
	xsdString   = "http://www.w3.org/2001/XMLSchema#string"
	xsdDateTime = "http://www.w3.org/2001/XMLSchema#dateTime"
	xsdInteger  = "http://www.w3.org/2001/XMLSchema#integer"
	rdfType     = "http://www.w3.org/1999/02/22-rdf-syntax-ns#type"
)

// URL returns the first named node stated for predicate.
func (t *Thing) URL(predicate string) (string, bool) {
	set := t.Objects(predicate)
	if set == nil || len(set.NamedNodes) == 0 {
		return "", false
	}
	return set.NamedNodes[0], true
}

// URLs returns every named node stated for predicate, duplicates included.
func (t *Thing) URLs(predicate string) []string {
	set := t.Objects(predicate)
	if set == nil || len(set.NamedNodes) == 0 {
		return nil
	}
	out := make([]string, len(set.NamedNodes))
	copy(out, set.NamedNodes)
	return out
}

// Types returns the rdf:type IRIs of t as a set: first-seen order,
// duplicates removed.
func (t *Thing) Types() []string {
	set := t.Objects(rdfType)
	if set == nil || len(set.NamedNodes) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(set.NamedNodes))
	out := make([]string, 0, len(set.NamedNodes))
	for _, n := range set.NamedNodes {
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

// String returns a string value for predicate. It tries a literal without
// a language tag first, then an English literal, then the first tagged
// literal in language-tag order. The result is nil when none exists.
func (t *Thing) String(predicate string) *string {
	set := t.Objects(predicate)
	if set == nil {
		return nil
	}

	if values := set.Literals[xsdString]; len(values) > 0 {
		return &values[0]
	}

	for _, lang := range sortedKeys(set.LangStrings) {
		if strings.EqualFold(lang, "en") && len(set.LangStrings[lang]) > 0 {
			return &set.LangStrings[lang][0]
		}
	}

	for _, lang := range sortedKeys(set.LangStrings) {
		if values := set.LangStrings[lang]; len(values) > 0 {
			return &values[0]
		}
	}

	return nil
}

// Datetime returns the first xsd:dateTime literal for predicate. Values
// that do not parse are treated as absent.
func (t *Thing) Datetime(predicate string) *time.Time {
	set := t.Objects(predicate)
	if set == nil {
		return nil
	}
	for _, v := range set.Literals[xsdDateTime] {
		if ts, ok := ParseDatetime(v); ok {
			return &ts
		}
	}
	return nil
}

// Integer returns the first xsd:integer literal for predicate.
func (t *Thing) Integer(predicate string) *int64 {
	set := t.Objects(predicate)
	if set == nil {
		return nil
	}
	for _, v := range set.Literals[xsdInteger] {
		if n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil {
			return &n
		}
	}
	return nil
}

// datetimeLayouts are the xsd:dateTime lexical forms accepted, most common
// first. Values without a zone are read as UTC.
var datetimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
}

// ParseDatetime parses an xsd:dateTime lexical value.
func ParseDatetime(v string) (time.Time, bool) {
	v = strings.TrimSpace(v)
	for _, layout := range datetimeLayouts {
		if ts, err := time.Parse(layout, v); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}
