package utils

import (
	"github.com/segmentio/ksuid"
)

func GenKSortedID(prefix string) string {
	return prefix + ksuid.New().String()
}
