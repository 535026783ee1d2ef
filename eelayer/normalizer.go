package eelayer

import (
	"encoding/json"
	"strings"

	"github.com/jamesrr39/goutil/errorsx"
)

// serializedObjectRef is the textual wire form of an object reference:
// a JSON document naming the object kind and carrying the opaque
// server-side expression.
type serializedObjectRef struct {
	Kind       string          `json:"kind"`
	Expression json.RawMessage `json:"expression"`
}

var objectKindsByName = map[string]ObjectKind{
	"Image":             ObjectKindImage,
	"ImageCollection":   ObjectKindImageCollection,
	"FeatureCollection": ObjectKindFeatureCollection,
	"Geometry":          ObjectKindGeometry,
}

// NormalizeObject converts a raw object reference into a canonical handle.
// Textual input is deserialized; an existing handle passes through with its
// capability flags recomputed. With animate set, an Image handle is coerced
// into an ImageCollection handle; the coercion is a no-op on handles that
// are already collection-typed. Absent or empty-sequence input yields nil.
// No network calls are made.
func NormalizeObject(raw interface{}, animate bool) (*ObjectHandle, errorsx.Error) {
	var handle *ObjectHandle

	switch rawRef := raw.(type) {
	case nil:
		return nil, nil
	case *ObjectHandle:
		if rawRef == nil {
			return nil, nil
		}
		h := *rawRef
		handle = &h
	case ObjectHandle:
		h := rawRef
		handle = &h
	case string:
		var err errorsx.Error
		handle, err = deserializeObjectRef(rawRef)
		if err != nil {
			return nil, err
		}
		if handle == nil {
			return nil, nil
		}
	default:
		return nil, Errorf(ErrMalformedObjectRef, "unsupported object reference type %T", raw)
	}

	if animate && handle.Kind == ObjectKindImage {
		handle.Kind = ObjectKindImageCollection
	}

	handle.SupportsMapEval, handle.SupportsAnimatedThumbnail = capabilitiesForKind(handle.Kind)

	return handle, nil
}

func deserializeObjectRef(text string) (*ObjectHandle, errorsx.Error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, nil
	}

	if strings.HasPrefix(trimmed, "[") {
		// a bare sequence of expressions is an image collection
		var seq []json.RawMessage
		err := json.Unmarshal([]byte(trimmed), &seq)
		if err != nil {
			return nil, Errorf(ErrMalformedObjectRef, "couldn't parse object reference sequence")
		}
		if len(seq) == 0 {
			return nil, nil
		}

		return &ObjectHandle{Kind: ObjectKindImageCollection, Ref: trimmed}, nil
	}

	ref := new(serializedObjectRef)
	err := json.Unmarshal([]byte(trimmed), ref)
	if err != nil {
		return nil, Errorf(ErrMalformedObjectRef, "couldn't parse object reference")
	}

	kind, ok := objectKindsByName[ref.Kind]
	if !ok {
		return nil, Errorf(ErrMalformedObjectRef, "unknown object kind %q", ref.Kind)
	}

	if len(ref.Expression) == 0 {
		return nil, Errorf(ErrMalformedObjectRef, "object reference has no expression")
	}

	return &ObjectHandle{Kind: kind, Ref: trimmed}, nil
}

func capabilitiesForKind(kind ObjectKind) (supportsMapEval, supportsAnimatedThumbnail bool) {
	switch kind {
	case ObjectKindImageCollection:
		return true, true
	case ObjectKindImage, ObjectKindFeatureCollection, ObjectKindGeometry:
		return true, false
	default:
		return false, false
	}
}
