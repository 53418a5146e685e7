package apifeatures

import (
	"net/url"
	"sort"
	"strings"
)

// QueryRequest is the decoded query string of a request. Values are string,
// []string for repeated keys, or a nested QueryRequest for bracket keys such as
// price[gte]=500.
type QueryRequest map[string]interface{}

// ParseQuery decodes a raw query string.
func ParseQuery(raw string) (QueryRequest, error) {
	values, err := url.ParseQuery(raw)
	if err != nil {
		return nil, err
	}
	return FromValues(values), nil
}

// FromValues builds a QueryRequest from already split values. Keys are applied
// in sorted order; when a plain key and a bracket key name the same field the
// bracket form wins.
func FromValues(values url.Values) QueryRequest {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := QueryRequest{}
	for _, key := range keys {
		vals := values[key]
		if len(vals) == 0 {
			continue
		}
		var value interface{} = vals[0]
		if len(vals) > 1 {
			value = append([]string(nil), vals...)
		}
		out.set(splitKey(key), value)
	}
	return out
}

// splitKey turns "a[b][c]" into [a b c]. Empty segments are dropped.
func splitKey(key string) []string {
	open := strings.IndexByte(key, '[')
	if open <= 0 || !strings.HasSuffix(key, "]") {
		return []string{key}
	}
	path := []string{key[:open]}
	for _, seg := range strings.Split(key[open+1:len(key)-1], "][") {
		if seg != "" {
			path = append(path, seg)
		}
	}
	return path
}

func (q QueryRequest) set(path []string, value interface{}) {
	node := q
	for _, seg := range path[:len(path)-1] {
		child, ok := node[seg].(QueryRequest)
		if !ok {
			child = QueryRequest{}
			node[seg] = child
		}
		node = child
	}
	last := path[len(path)-1]
	if _, isMap := node[last].(QueryRequest); isMap {
		return
	}
	node[last] = value
}

// Clone returns a deep copy.
func (q QueryRequest) Clone() QueryRequest {
	out := make(QueryRequest, len(q))
	for k, v := range q {
		switch t := v.(type) {
		case QueryRequest:
			out[k] = t.Clone()
		case []string:
			out[k] = append([]string(nil), t...)
		default:
			out[k] = v
		}
	}
	return out
}
