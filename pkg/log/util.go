package log

import (
	"fmt"

	"go.uber.org/zap"
)

// toFields turns a key/value list into zap fields. A zap.Field or an error
// may stand alone; a dangling value ends up under "extra", and a key that is
// not a string is printed with %v.
func toFields(kvs ...any) []zap.Field {
	if len(kvs) == 0 {
		return nil
	}

	fields := make([]zap.Field, 0, len(kvs)/2+1)
	for len(kvs) > 0 {
		switch v := kvs[0].(type) {
		case zap.Field:
			fields = append(fields, v)
			kvs = kvs[1:]
			continue
		case error:
			fields = append(fields, zap.Error(v))
			kvs = kvs[1:]
			continue
		}

		if len(kvs) == 1 {
			fields = append(fields, zap.Any("extra", kvs[0]))
			break
		}

		key, ok := kvs[0].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvs[0])
		}
		fields = append(fields, field(key, kvs[1]))
		kvs = kvs[2:]
	}
	return fields
}

func field(key string, v any) zap.Field {
	if err, ok := v.(error); ok {
		return zap.NamedError(key, err)
	}
	return zap.Any(key, v)
}
