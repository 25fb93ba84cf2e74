package panel

import (
	"fmt"
	"reflect"
	"strings"
)

// checkPresence walks raw (a generic JSON decode) alongside t and reports
// every key that t requires but raw lacks. A key is required unless its
// json tag has omitempty. null only satisfies pointer fields.
func checkPresence(raw any, t reflect.Type, path string) []string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	switch t.Kind() {
	case reflect.Struct:
		obj, ok := raw.(map[string]any)
		if !ok {
			return nil // wrong JSON type, the typed decode reports it
		}
		var missing []string
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if !f.IsExported() {
				continue
			}
			name, optional := jsonKey(f)
			if name == "" {
				continue
			}
			key := joinPath(path, name)
			v, present := obj[name]
			switch {
			case !present:
				if !optional {
					missing = append(missing, key)
				}
			case v == nil:
				if f.Type.Kind() != reflect.Pointer {
					missing = append(missing, key)
				}
			default:
				missing = append(missing, checkPresence(v, f.Type, key)...)
			}
		}
		return missing

	case reflect.Slice, reflect.Array:
		items, ok := raw.([]any)
		if !ok {
			return nil
		}
		var missing []string
		for i, item := range items {
			missing = append(missing, checkPresence(item, t.Elem(), fmt.Sprintf("%s[%d]", path, i))...)
		}
		return missing
	}
	return nil
}

// jsonKey returns the JSON name of f and whether it may be left out
func jsonKey(f reflect.StructField) (string, bool) {
	tag := f.Tag.Get("json")
	if tag == "-" {
		return "", true
	}
	name, opts, _ := strings.Cut(tag, ",")
	if name == "" {
		name = f.Name
	}
	optional := false
	for _, o := range strings.Split(opts, ",") {
		if o == "omitempty" {
			optional = true
		}
	}
	return name, optional
}

func joinPath(path, name string) string {
	if path == "" {
		return name
	}
	return path + "." + name
}
