// Package vocab holds the RDF vocabulary IRIs used when reading LDN
// notifications, Solid containers and WebID profiles.
//
// Terms are grouped by namespace. Only the terms the inbox client actually
// reads or writes are listed here.
package vocab

import "strings"

// Namespaces
const (
	RDF    = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	XSD    = "http://www.w3.org/2001/XMLSchema#"
	AS     = "https://www.w3.org/ns/activitystreams#"
	LDP    = "http://www.w3.org/ns/ldp#"
	DCT    = "http://purl.org/dc/terms/"
	POSIX  = "http://www.w3.org/ns/posix/stat#"
	PIM    = "http://www.w3.org/ns/pim/space#"
	FOAF   = "http://xmlns.com/foaf/0.1/"
	VCARD  = "http://www.w3.org/2006/vcard/ns#"
	ASCtx  = "https://www.w3.org/ns/activitystreams"
	asHTTP = "http://www.w3.org/ns/activitystreams#"
)

// RDF and XML Schema
const (
	RDFType       = RDF + "type"
	RDFLangString = RDF + "langString"

	XSDString   = XSD + "string"
	XSDDateTime = XSD + "dateTime"
	XSDInteger  = XSD + "integer"
)

// ActivityStreams 2.0
const (
	ASPublished = AS + "published"
	ASActor     = AS + "actor"
	ASTarget    = AS + "target"
	ASOrigin    = AS + "origin"
	ASContext   = AS + "context"
	ASObject    = AS + "object"
	ASInReplyTo = AS + "inReplyTo"
	ASName      = AS + "name"
	ASInbox     = AS + "inbox"
	ASContent   = AS + "content"
	ASSummary   = AS + "summary"

	ASAnnounce = AS + "Announce"
	ASOffer    = AS + "Offer"
	ASAccept   = AS + "Accept"
	ASReject   = AS + "Reject"
	ASCreate   = AS + "Create"
	ASNote     = AS + "Note"
	ASPerson   = AS + "Person"
	ASService  = AS + "Service"
)

// Linked Data Platform
const (
	LDPContainer      = LDP + "Container"
	LDPBasicContainer = LDP + "BasicContainer"
	LDPResource       = LDP + "Resource"
	LDPContains       = LDP + "contains"
	LDPInbox          = LDP + "inbox"
)

// Resource metadata (Dublin Core, POSIX stat)
const (
	DCTModified = DCT + "modified"
	POSIXMtime  = POSIX + "mtime"
	POSIXSize   = POSIX + "size"
)

// WebID profile
const (
	PIMStorage     = PIM + "storage"
	FOAFName       = FOAF + "name"
	FOAFGivenName  = FOAF + "givenName"
	FOAFFamilyName = FOAF + "familyName"
	FOAFImg        = FOAF + "img"
	VCARDFn        = VCARD + "fn"
)

// StripAS removes the ActivityStreams namespace from an IRI so that AS2
// vocabulary terms render bare ("Announce" instead of the full IRI). Any
// other string is returned unchanged. Both the https and the legacy http
// forms of the namespace are recognised.
func StripAS(iri string) string {
	if rest, ok := strings.CutPrefix(iri, AS); ok && rest != "" {
		return rest
	}
	if rest, ok := strings.CutPrefix(iri, asHTTP); ok && rest != "" {
		return rest
	}
	return iri
}

// ExpandAS is the inverse of StripAS for bare terms. Values that already look
// like IRIs (contain a colon) are returned unchanged.
func ExpandAS(term string) string {
	if term == "" || strings.Contains(term, ":") {
		return term
	}
	return AS + term
}

// CompactTypes strips the AS2 namespace from every type IRI.
func CompactTypes(types []string) []string {
	if len(types) == 0 {
		return nil
	}
	out := make([]string, len(types))
	for i, t := range types {
		out[i] = StripAS(t)
	}
	return out
}

// HasType reports whether types contains iri.
func HasType(types []string, iri string) bool {
	for _, t := range types {
		if t == iri {
			return true
		}
	}
	return false
}
