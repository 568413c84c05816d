// Package iojson writes command results as indented JSON and reads JSON
// documents from a file flag, a path argument or stdin.
package iojson

import (
	"encoding/json"
	"fmt"
	"io"
)

// fallback is printed to the error writer when obj cannot be marshaled. It is
// built without encoding/json's struct path so it cannot fail itself.
func fallback(msg string, err error) string {
	msgBytes, _ := json.Marshal(msg)
	errBytes, _ := json.Marshal(err.Error())
	return fmt.Sprintf(`{"message":%s,"data":{"json_error":%s}}`, msgBytes, errBytes)
}

// WriteWith writes obj to w as indented JSON followed by a newline. A value
// that cannot be marshaled is reported on ew as a JSON error object.
func WriteWith(w io.Writer, ew io.Writer, obj any) error {
	bits, err := json.MarshalIndent(obj, "", "  ")
	if err != nil {
		_, werr := fmt.Fprintln(ew, fallback("error marshaling output", err))
		if werr != nil {
			return werr
		}
		return fmt.Errorf("marshal output: %w", err)
	}

	_, err = fmt.Fprintln(w, string(bits))
	return err
}
