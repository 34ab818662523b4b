package utils

import (
	"crypto/sha1"
	"encoding/hex"
	"os"
)

func PathExists(path string) (res bool, err error) {
	_, statErr := os.Stat(path)
	if statErr == nil {
		res = true
	} else if !os.IsNotExist(statErr) {
		err = statErr
	}
	return
}

// TitleHash names the archive directory of a topic. It is stable for a given
// title and not reversible.
func TitleHash(title string) string {
	sum := sha1.Sum([]byte(title))
	return hex.EncodeToString(sum[:])
}
