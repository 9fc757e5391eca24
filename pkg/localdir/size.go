package localdir

import (
	"fmt"
	"strconv"
	"strings"
)

var sizeSuffixes = []struct {
	suffix string
	factor int64
}{
	{"Ki", 1 << 10},
	{"Mi", 1 << 20},
	{"Gi", 1 << 30},
}

// NewSize parses plain bytes or a binary Ki, Mi or Gi suffix
func NewSize(config string) (int, error) {
	factor := int64(1)
	number := config
	for _, s := range sizeSuffixes {
		if strings.HasSuffix(config, s.suffix) {
			factor = s.factor
			number = strings.TrimSuffix(config, s.suffix)
			break
		}
	}
	n, err := strconv.ParseInt(number, 10, 0)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("maxSize supports bytes or Ki, Mi, Gi suffixes, got: %s", config)
	}
	return int(n * factor), nil
}
