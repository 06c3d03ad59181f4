package version

import "fmt"

const Version = "0.3.0"

func String(program string) string {
	return fmt.Sprintf("%s %s", program, Version)
}
