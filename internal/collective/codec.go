package collective

import (
	"fmt"
	"strconv"
	"strings"
)

// Payloads travel through the store as comma-separated decimal floats.

func encode(values []float64) []byte {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return []byte(strings.Join(parts, ","))
}

func decode(raw []byte) ([]float64, error) {
	parts := strings.Split(string(raw), ",")
	values := make([]float64, len(parts))
	for i, part := range parts {
		v, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return nil, fmt.Errorf("malformed payload %q: %w", string(raw), err)
		}
		values[i] = v
	}
	return values, nil
}
