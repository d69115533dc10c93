package audit

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/avik1986/hierarchy-role-based-maker-checker/internal/core"
)

var _ core.Auditor = (*FileAuditor)(nil)

// FileOptions configures the JSON-lines file auditor.
type FileOptions struct {
	Path string `mapstructure:"path"`
	// Sync flushes the file after every entry.
	Sync bool `mapstructure:"sync"`
}

// FileAuditor is an auditor that writes audit logs to a file in JSON format, one entry per line.
type FileAuditor struct {
	mu      sync.Mutex
	path    string
	file    *os.File
	encoder *json.Encoder
	sync    bool
}

func NewFileAuditor(opts FileOptions) (*FileAuditor, error) {
	if opts.Path == "" {
		return nil, fmt.Errorf("file auditor needs a path")
	}
	file, err := os.OpenFile(opts.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return nil, fmt.Errorf("opening audit log file: %w", err)
	}
	return &FileAuditor{
		path:    opts.Path,
		file:    file,
		encoder: json.NewEncoder(file),
		sync:    opts.Sync,
	}, nil
}

func (f *FileAuditor) Log(entry core.AuditEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.encoder.Encode(entry); err != nil {
		return fmt.Errorf("writing audit log entry: %w", err)
	}
	if f.sync {
		if err := f.file.Sync(); err != nil {
			return fmt.Errorf("syncing audit log file: %w", err)
		}
	}
	return nil
}

func (f *FileAuditor) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.file.Close()
}

// Find returns the last limit entries accepted by the filter, oldest first.
func (f *FileAuditor) Find(filter Filter, limit int) ([]core.AuditEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	entries, err := ReadFile(f.path, filter)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}
	return entries, nil
}

// ReadFile reads the entries of a JSON-lines audit file accepted by the filter.
func ReadFile(path string, filter Filter) ([]core.AuditEntry, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening audit log file: %w", err)
	}
	defer file.Close()

	var entries []core.AuditEntry
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for line := 1; scanner.Scan(); line++ {
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var entry core.AuditEntry
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			return nil, fmt.Errorf("parsing audit log line %d: %w", line, err)
		}
		if filter == nil || filter(entry) {
			entries = append(entries, entry)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading audit log file: %w", err)
	}
	return entries, nil
}
