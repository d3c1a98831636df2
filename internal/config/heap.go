package config

import (
	"fmt"
	"strconv"
)

// ParseHeapSize converts a JVM-style size ("512m", "1G", "65536") to bytes.
func ParseHeapSize(s string) (int64, error) {
	if s == "" {
		return 0, fmt.Errorf("empty heap size")
	}

	mult := int64(1)
	digits := s
	switch s[len(s)-1] {
	case 'k', 'K':
		mult = 1 << 10
		digits = s[:len(s)-1]
	case 'm', 'M':
		mult = 1 << 20
		digits = s[:len(s)-1]
	case 'g', 'G':
		mult = 1 << 30
		digits = s[:len(s)-1]
	}

	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid heap size %q", s)
	}
	if n > (1<<63-1)/mult {
		return 0, fmt.Errorf("heap size %q overflows", s)
	}
	return n * mult, nil
}
