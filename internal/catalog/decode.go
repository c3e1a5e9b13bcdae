package catalog

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
)

var timeLayouts = []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", time.DateOnly}

// Decode converts loosely typed records (JSON maps from files, REST responses) into catalog types.
func Decode(input any, result any) error {
	cfg := &mapstructure.DecoderConfig{
		Result:           result,
		TagName:          "json",
		WeaklyTypedInput: true,
		DecodeHook:       stringToTimeHook,
	}

	decoder, err := mapstructure.NewDecoder(cfg)
	if err != nil {
		return err
	}

	return decoder.Decode(input)
}

func stringToTimeHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.String {
		return data, nil
	}

	raw := strings.TrimSpace(data.(string))

	// An empty optional date stays nil instead of becoming year one.
	if to == reflect.TypeOf(&time.Time{}) && raw == "" {
		return nil, nil
	}

	if to != reflect.TypeOf(time.Time{}) {
		return data, nil
	}

	if raw == "" {
		return time.Time{}, nil
	}

	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}

	return nil, fmt.Errorf("unsupported time format %q", raw)
}
