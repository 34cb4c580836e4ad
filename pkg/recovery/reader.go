package recovery

import (
	"io"
	"strings"

	backscanner "github.com/icza/backscanner"
)

// readLogs returns the logs written after the most recent checkpoint, oldest first.
// Without a checkpoint every log is returned.
func (rm *RecoveryManager) readLogs() (logs []Log, err error) {
	fstats, err := rm.fd.Stat()
	if err != nil {
		return nil, err
	}
	scanner := backscanner.New(rm.fd, int(fstats.Size()))
	relevant := make([]Log, 0)
	for {
		line, _, err := scanner.Line()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		log, err := FromString(line)
		if err != nil {
			return nil, err
		}
		if _, ok := log.(*checkpointLog); ok {
			break
		}
		relevant = append(relevant, log)
	}
	// Reverse into write order.
	for i, j := 0, len(relevant)-1; i < j; i, j = i+1, j-1 {
		relevant[i], relevant[j] = relevant[j], relevant[i]
	}
	return relevant, nil
}
