package codec

import (
	"mime"
	"strings"

	"github.com/munnerz/goautoneg"

	"github.com/cp25sy5-modjot/expense-tracker-service/internal/domain"
)

// Request bodies: form-encoded posts are assumed to carry JSON.
var contentTypeFormats = map[string]domain.Format{
	"application/json":                  domain.FormatJSON,
	"application/x-www-form-urlencoded": domain.FormatJSON,
	"text/xml":                          domain.FormatXML,
	"application/xml":                   domain.FormatXML,
}

// Responses, in precedence order.
var acceptFormats = []struct {
	format     domain.Format
	mediaTypes []string
}{
	{domain.FormatJSON, []string{"application/json"}},
	{domain.FormatXML, []string{"text/xml", "application/xml"}},
}

// ForContentType selects the decoder for a request body. An absent or
// unknown content type yields FormatUnsupported and a nil codec.
func (r *Registry) ForContentType(header string) (Codec, domain.Format) {
	mediaType, _, err := mime.ParseMediaType(header)
	if err != nil {
		head, _, _ := strings.Cut(header, ";")
		mediaType = strings.ToLower(strings.TrimSpace(head))
	}
	return r.lookup(contentTypeFormats[mediaType])
}

// ForAccept selects the response encoder: JSON when acceptable, else XML,
// else FormatUnsupported. A blank header accepts anything.
func (r *Registry) ForAccept(header string) (Codec, domain.Format) {
	if strings.TrimSpace(header) == "" {
		header = "*/*"
	}
	clauses := goautoneg.ParseAccept(tidyAccept(header))
	for _, candidate := range acceptFormats {
		if _, ok := r.codecs[candidate.format]; !ok {
			continue
		}
		for _, mediaType := range candidate.mediaTypes {
			if acceptable(clauses, mediaType) {
				return r.lookup(candidate.format)
			}
		}
	}
	return nil, domain.FormatUnsupported
}

// tidyAccept trims whitespace around parameter names and values; goautoneg
// reads "q= 0.5" as q=0.
func tidyAccept(header string) string {
	clauses := strings.Split(header, ",")
	for i, clause := range clauses {
		parts := strings.Split(clause, ";")
		for j, part := range parts {
			if name, value, ok := strings.Cut(part, "="); ok {
				part = strings.TrimSpace(name) + "=" + strings.TrimSpace(value)
			}
			parts[j] = strings.TrimSpace(part)
		}
		clauses[i] = strings.Join(parts, ";")
	}
	return strings.Join(clauses, ",")
}

func (r *Registry) lookup(f domain.Format) (Codec, domain.Format) {
	c, err := r.Codec(f)
	if err != nil {
		return nil, domain.FormatUnsupported
	}
	return c, f
}

// acceptable applies the most specific matching media range, so
// "application/json;q=0, */*" rules JSON out.
func acceptable(clauses []goautoneg.Accept, mediaType string) bool {
	typ, sub, _ := strings.Cut(mediaType, "/")
	best, q := -1, 0.0
	for _, c := range clauses {
		ct, cs := strings.ToLower(c.Type), strings.ToLower(c.SubType)
		var specificity int
		switch {
		case ct == typ && cs == sub:
			specificity = 2
		case ct == typ && cs == "*":
			specificity = 1
		case ct == "*" && cs == "*":
			specificity = 0
		default:
			continue
		}
		if specificity > best {
			best, q = specificity, c.Q
		}
	}
	return best >= 0 && q > 0
}
