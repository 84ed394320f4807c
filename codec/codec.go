package codec

import (
	"github.com/goccy/go-json"
	"github.com/rotisserie/eris"
)

func Encode(value any) ([]byte, error) {
	valueBz, err := json.Marshal(value)
	if err != nil {
		return nil, eris.Wrap(err, "failed to encode value")
	}
	return valueBz, nil
}

func Decode[T any](valueBz []byte) (T, error) {
	var value T
	if err := json.Unmarshal(valueBz, &value); err != nil {
		return value, eris.Wrap(err, "failed to decode value")
	}
	return value, nil
}
