package reconcile

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/titanous/json5"
)

// ReadRequests reads a batch file with one request object per line:
//
//	{student_id: "2021101", student_name: "Alice Souza", concept: "A"}
//
// Blank lines and lines starting with "//" are skipped.
func ReadRequests(r io.Reader) ([]Request, error) {
	requests := []Request{}
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "//") {
			continue
		}

		var req Request
		err := json5.Unmarshal([]byte(line), &req)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		req.StudentId = strings.TrimSpace(req.StudentId)
		if req.StudentId == "" {
			return nil, fmt.Errorf("line %d: missing student_id", lineNo)
		}
		requests = append(requests, req)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return requests, nil
}
