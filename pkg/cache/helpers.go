package cache

import (
	"fmt"
	"strings"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Key joins parts with ':' into a namespaced cache key.
// Example: Key("access", "permissions", 42) returns "access:permissions:42"
func Key(parts ...interface{}) string {
	s := make([]string, len(parts))
	for i, p := range parts {
		s[i] = fmt.Sprint(p)
	}
	return strings.Join(s, ":")
}

func RateLimitKey(scope, subject string) string {
	return Key("rate_limit", scope, subject)
}
