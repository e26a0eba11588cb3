//go:build linux

package supervisor

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// procStat reads the process state and start ticks from /proc. The comm
// field is parenthesized and may itself contain spaces, so parsing starts
// after the last closing parenthesis.
func procStat(pid int) (state string, startTicks uint64, ok bool) {
	data, err := os.ReadFile(fmt.Sprintf("/proc/%d/stat", pid))
	if err != nil {
		return "", 0, false
	}

	raw := string(data)
	close := strings.LastIndex(raw, ")")
	if close == -1 {
		return "", 0, false
	}
	fields := strings.Fields(raw[close+1:])
	if len(fields) < 20 {
		return "", 0, false
	}

	ticks, err := strconv.ParseUint(fields[19], 10, 64)
	if err != nil {
		return "", 0, false
	}
	return fields[0], ticks, true
}
