package units

import "fmt"

const (
	KB = 1000
	MB = 1000 * KB
	GB = 1000 * MB
	TB = 1000 * GB
)

var abbrs = []string{"B", "kB", "MB", "GB", "TB", "PB"}

// HumanSize returns a human readable decimal representation of size.
func HumanSize(size float64) string {
	i := 0
	for size >= 1000.0 && i < len(abbrs)-1 {
		size /= 1000.0
		i++
	}
	return fmt.Sprintf("%.3g%s", size, abbrs[i])
}
