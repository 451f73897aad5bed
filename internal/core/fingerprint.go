package core

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash/crc32"
	"strings"
)

// Fingerprint returns the lowercase hex SHA-256 of the lowercased text.
//
// Whitespace is not normalised: texts differing only in spacing are distinct.
func Fingerprint(text string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(text)))
	return hex.EncodeToString(sum[:])
}

// FastHash returns an 8-char hex CRC32 of text. It is for catalog artifact ids
// only and must not be used for de-duplication.
func FastHash(text string) string {
	return fmt.Sprintf("%08x", crc32.ChecksumIEEE([]byte(text)))
}

// TopicHashID derives the catalog hash id of a topic from its name path.
func TopicHashID(courseName, chapterName, topicName string) string {
	return FastHash(courseName + "/" + chapterName + "/" + topicName)
}
