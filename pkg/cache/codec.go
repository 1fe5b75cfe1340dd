package cache

import (
	"bytes"
	"encoding/json"

	"github.com/pkg/errors"
)

// Values are stored in redis as opaque JSON blobs. Encoding is total
// for any json-serializable value; decoding into the wrong shape is a
// hard error, never a silently coerced zero value.

func Encode(v interface{}) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(err, "encode cache value")
	}
	return data, nil
}

func Decode(data []byte, dest interface{}) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dest); err != nil {
		return errors.Wrap(err, "decode cache value")
	}
	return nil
}
