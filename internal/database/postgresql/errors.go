package postgresql

import (
	"regexp"
	"strings"

	"github.com/lib/pq"

	"github.com/qolzam/natours/internal/apperror"
)

const uniqueViolation pq.ErrorCode = "23505"

// Key ((data ->> 'name'::text))=(The Forest Hiker) already exists.
var detailPattern = regexp.MustCompile(`\)=\((.*)\) already exists`)

func duplicateKeyError(collection string, pqErr *pq.Error) error {
	field := "_id"
	prefix := collection + "_"
	if name := pqErr.Constraint; strings.HasPrefix(name, prefix) && strings.HasSuffix(name, "_key") {
		field = strings.TrimSuffix(strings.TrimPrefix(name, prefix), "_key")
	}

	var value interface{}
	if m := detailPattern.FindStringSubmatch(pqErr.Detail); m != nil {
		value = m[1]
	}

	return &apperror.DuplicateKeyError{
		Collection: collection,
		Fields:     []apperror.KeyValue{{Key: field, Value: value}},
		Cause:      pqErr,
	}
}
