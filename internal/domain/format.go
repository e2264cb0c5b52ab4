package domain

// Format is a wire format negotiated for a single request.
type Format int

const (
	FormatUnsupported Format = iota
	FormatJSON
	FormatXML
)

func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatXML:
		return "xml"
	default:
		return "unsupported"
	}
}
