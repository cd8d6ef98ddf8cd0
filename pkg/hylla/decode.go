package hylla

import (
	"github.com/mitchellh/mapstructure"
)

// DecodeShelf decodes checked-out shelf contents into a caller-provided
// struct, matching keys to fields by name or by `mapstructure` tag. Numeric
// values round-trip through the container codec as their widest types, so
// decoding is weakly typed.
func DecodeShelf(data ShelfData, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(map[string]any(data))
}
