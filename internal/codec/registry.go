package codec

import "github.com/cp25sy5-modjot/expense-tracker-service/internal/domain"

// Registry maps each supported format to its codec. Supporting a new format
// means registering its codec and the media types that select it.
type Registry struct {
	codecs map[domain.Format]Codec
}

func NewRegistry(codecs ...Codec) *Registry {
	r := &Registry{codecs: make(map[domain.Format]Codec, len(codecs))}
	for _, c := range codecs {
		r.codecs[c.Format()] = c
	}
	return r
}

// DefaultRegistry serves JSON and XML.
func DefaultRegistry() *Registry {
	return NewRegistry(JSON(), XML())
}

func (r *Registry) Codec(f domain.Format) (Codec, error) {
	c, ok := r.codecs[f]
	if !ok {
		return nil, ErrUnsupportedFormat
	}
	return c, nil
}
