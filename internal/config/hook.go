package config

import (
	"reflect"
	"strconv"
	"time"
)

// secondsDurationHook lets duration fields be set from a bare integer
// (interpreted as seconds) in addition to Go duration strings like "30s".
// SPEACHES_MODEL_IDLE_TIMEOUT is documented in whole seconds, including the
// negative-means-never and zero-means-immediate sentinel values, so plain
// "-1" and "0" must decode cleanly rather than failing time.ParseDuration.
func secondsDurationHook() func(reflect.Kind, reflect.Kind, interface{}) (interface{}, error) {
	return func(from, to reflect.Kind, data interface{}) (interface{}, error) {
		if to != reflect.Int64 {
			return data, nil
		}
		if _, ok := data.(string); !ok {
			return data, nil
		}
		s := data.(string)
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return time.Duration(n) * time.Second, nil
		}
		return data, nil
	}
}
