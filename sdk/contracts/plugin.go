package contracts

// URID is a host-assigned integer standing in for a URI.
type URID uint32

// URIDMapper maps URIs to URIDs. The same URI always maps to the same
// non-zero URID for the lifetime of the mapper.
type URIDMapper interface {
	Map(uri string) URID
}

// Feature is a capability the host hands to a plugin at instantiation.
type Feature struct {
	URI  string
	Data any
}
