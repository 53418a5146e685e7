package mongodb

import (
	"errors"
	"regexp"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/qolzam/natours/internal/apperror"
	"github.com/qolzam/natours/internal/database/interfaces"
)

const duplicateKeyCode = 11000

var dupKeyPattern = regexp.MustCompile(`dup key: \{ ?(.*?) ?\}$`)

// translateError maps driver failures onto the shapes the normalizer recognises.
func translateError(collection string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return interfaces.ErrNoDocuments
	}
	if mongo.IsDuplicateKeyError(err) {
		return duplicateKeyError(collection, err)
	}
	return err
}

func duplicateKeyError(collection string, err error) error {
	dup := &apperror.DuplicateKeyError{Collection: collection, Cause: err}

	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, writeErr := range we.WriteErrors {
			if writeErr.Code != duplicateKeyCode {
				continue
			}
			dup.Fields = keyValueFromRaw(writeErr.Raw)
			if len(dup.Fields) == 0 {
				dup.Fields = keyValueFromMessage(writeErr.Message)
			}
			return dup
		}
	}

	var ce mongo.CommandError
	if errors.As(err, &ce) {
		dup.Fields = keyValueFromRaw(ce.Raw)
		if len(dup.Fields) == 0 {
			dup.Fields = keyValueFromMessage(ce.Message)
		}
		return dup
	}

	dup.Fields = keyValueFromMessage(err.Error())
	return dup
}

// keyValueFromRaw reads the keyValue document servers from 4.2 attach to duplicate key errors.
func keyValueFromRaw(raw bson.Raw) []apperror.KeyValue {
	if len(raw) == 0 {
		return nil
	}
	val, err := raw.LookupErr("keyValue")
	if err != nil {
		return nil
	}
	doc, ok := val.DocumentOK()
	if !ok {
		return nil
	}
	elems, err := doc.Elements()
	if err != nil {
		return nil
	}

	out := make([]apperror.KeyValue, 0, len(elems))
	for _, el := range elems {
		var v interface{}
		if err := el.Value().Unmarshal(&v); err != nil {
			v = el.Value().String()
		}
		out = append(out, apperror.KeyValue{Key: el.Key(), Value: v})
	}
	return out
}

// keyValueFromMessage parses `dup key: { name: "The Forest Hiker" }` for older servers.
func keyValueFromMessage(msg string) []apperror.KeyValue {
	m := dupKeyPattern.FindStringSubmatch(strings.TrimSpace(msg))
	if m == nil {
		return nil
	}
	var out []apperror.KeyValue
	for _, part := range strings.Split(m[1], ", ") {
		key, value, found := strings.Cut(part, ": ")
		if !found {
			continue
		}
		out = append(out, apperror.KeyValue{Key: key, Value: strings.Trim(value, `"`)})
	}
	return out
}
