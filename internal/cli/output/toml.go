package output

import (
	"fmt"
	"io"
	"reflect"

	"github.com/BurntSushi/toml"
)

// TOMLFormatter formats data as TOML. TOML documents are tables, so a
// slice is wrapped under an "items" key.
type TOMLFormatter struct{}

// Format formats data as TOML.
func (f *TOMLFormatter) Format(w io.Writer, data any) error {
	if data == nil {
		return nil
	}
	v := reflect.ValueOf(data)
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}

	switch v.Kind() {
	case reflect.Struct, reflect.Map:
		return toml.NewEncoder(w).Encode(data)
	case reflect.Slice, reflect.Array:
		return toml.NewEncoder(w).Encode(map[string]any{"items": data})
	default:
		_, err := fmt.Fprintf(w, "value = %q\n", fmt.Sprint(v.Interface()))
		return err
	}
}
