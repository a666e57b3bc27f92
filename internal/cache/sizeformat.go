package cache

import "fmt"

// FormatSize renders a byte count the way cleanup-history summaries and
// the CLI's output formatters display it.
func FormatSize(bytes uint64) string {
	const unit = 1024.0
	if bytes < 1024 {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := unit, 0
	for n := bytes / 1024; n >= 1024; n /= 1024 {
		div *= unit
		exp++
	}
	units := []string{"KB", "MB", "GB", "TB", "PB"}
	return fmt.Sprintf("%.2f %s", float64(bytes)/div, units[exp])
}
