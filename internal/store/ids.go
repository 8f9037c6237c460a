package store

import (
	"fmt"
	"strconv"
	"strings"
)

// nextSequentialID assigns the next id for a collection of
// <prefix><zero-padded number> tokens: maximum existing numeric suffix
// plus one, padded to at least four digits. A non-numeric suffix means
// the collection is corrupted.
func nextSequentialID(existing []string, prefix string) (string, error) {
	maxSuffix := 0
	for _, id := range existing {
		if id == "" {
			continue
		}
		suffix := strings.TrimPrefix(id, prefix)
		n, err := strconv.Atoi(suffix)
		if err != nil {
			return "", fmt.Errorf("store: id %q: %w", id, ErrDataCorruption)
		}
		if n > maxSuffix {
			maxSuffix = n
		}
	}
	return fmt.Sprintf("%s%04d", prefix, maxSuffix+1), nil
}
