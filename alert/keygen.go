package alert

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"sort"
)

// Key derives a stable identity for one kind of slow event from endpoint,
// URL and parameters. Parameter keys are sorted before hashing so insertion
// order never changes the key. Values are rendered with their Go syntax,
// which keeps 1 and "1" distinct and never fails on odd value types.
func Key(endpoint, url string, params map[string]any) string {
	h := sha256.New()
	io.WriteString(h, endpoint)
	io.WriteString(h, "|")
	io.WriteString(h, url)
	io.WriteString(h, "|")

	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(h, "%s=%s&", k, stringifyValue(params[k]))
	}

	return hex.EncodeToString(h.Sum(nil))
}

func stringifyValue(v any) string {
	return fmt.Sprintf("%#v", v)
}
