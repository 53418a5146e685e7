package interfaces

import (
	"net/http"
	"strings"

	"github.com/qolzam/natours/internal/apperror"
)

// SortField is one key of a sort specification.
type SortField struct {
	Field string
	Desc  bool
}

// ParseSort reads a space separated sort spec such as "-price ratingsAverage".
// Repeated fields keep their first position.
func ParseSort(spec string) []SortField {
	var out []SortField
	seen := map[string]bool{}
	for _, token := range strings.Fields(spec) {
		desc := false
		switch token[0] {
		case '-':
			desc, token = true, token[1:]
		case '+':
			token = token[1:]
		}
		if token == "" || seen[token] {
			continue
		}
		seen[token] = true
		out = append(out, SortField{Field: token, Desc: desc})
	}
	return out
}

// Projection is either an inclusion or an exclusion list. _id is returned
// unless excluded explicitly.
type Projection struct {
	Include   []string
	Exclude   []string
	ExcludeID bool
}

// ParseProjection reads a space separated select spec such as "name price" or "-__v".
func ParseProjection(spec string) (Projection, error) {
	var p Projection
	seen := map[string]bool{}
	for _, token := range strings.Fields(spec) {
		exclude := false
		switch token[0] {
		case '-':
			exclude, token = true, token[1:]
		case '+':
			token = token[1:]
		}
		if token == "" || seen[token] {
			continue
		}
		seen[token] = true

		switch {
		case token == "_id" && exclude:
			p.ExcludeID = true
		case exclude:
			p.Exclude = append(p.Exclude, token)
		default:
			p.Include = append(p.Include, token)
		}
	}

	if len(p.Include) > 0 && len(p.Exclude) > 0 {
		return Projection{}, apperror.New("Projection cannot have a mix of inclusion and exclusion.", http.StatusBadRequest)
	}
	return p, nil
}

func (p Projection) IsZero() bool {
	return len(p.Include) == 0 && len(p.Exclude) == 0 && !p.ExcludeID
}

// Apply prunes a rendered document in place.
func (p Projection) Apply(doc map[string]interface{}) {
	if p.IsZero() {
		return
	}
	if len(p.Include) > 0 {
		keep := map[string]bool{"_id": !p.ExcludeID}
		for _, f := range p.Include {
			keep[f] = true
		}
		for k := range doc {
			if !keep[k] {
				delete(doc, k)
			}
		}
		return
	}
	for _, f := range p.Exclude {
		delete(doc, f)
	}
	if p.ExcludeID {
		delete(doc, "_id")
	}
}
