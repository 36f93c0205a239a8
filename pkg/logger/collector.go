package logger

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"
)

type CollectionConfig struct {
	MaxEntries int           // max distinct entries kept (e.g., 100)
	Retention  time.Duration // entries older than this are dropped on read
}

type AggregatedLogEntry struct {
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	Fields    map[string]interface{} `json:"fields"`
	Caller    string                 `json:"caller"`
	Count     int                    `json:"count"`
	FirstSeen time.Time              `json:"first_seen"`
	LastSeen  time.Time              `json:"last_seen"`
}

// LogCollector keeps a bounded, deduplicated window of recent error logs
// for the status endpoint. Repeated occurrences bump a counter instead of
// growing the window.
type LogCollector struct {
	config *CollectionConfig
	logMap map[string]*AggregatedLogEntry
	mutex  sync.RWMutex
}

func NewLogCollector(config *CollectionConfig) *LogCollector {
	if config.MaxEntries <= 0 {
		config.MaxEntries = 100
	}
	if config.Retention <= 0 {
		config.Retention = time.Hour
	}
	return &LogCollector{
		config: config,
		logMap: make(map[string]*AggregatedLogEntry),
	}
}

func (d *LogCollector) AddLog(level, message string, fields map[string]interface{}, caller string) {
	now := time.Now()
	key := d.generateKey(level, message, fields, caller)

	d.mutex.Lock()
	defer d.mutex.Unlock()

	if entry, exists := d.logMap[key]; exists {
		entry.Count++
		entry.LastSeen = now
		return
	}

	if len(d.logMap) >= d.config.MaxEntries {
		d.evictOldest()
	}

	d.logMap[key] = &AggregatedLogEntry{
		Level:     level,
		Message:   message,
		Fields:    fields,
		Caller:    caller,
		Count:     1,
		FirstSeen: now,
		LastSeen:  now,
	}
}

// Recent returns retained entries, newest first. Entries past the retention
// window are pruned on the way out.
func (d *LogCollector) Recent() []AggregatedLogEntry {
	cutoff := time.Now().Add(-d.config.Retention)

	d.mutex.Lock()
	defer d.mutex.Unlock()

	logs := make([]AggregatedLogEntry, 0, len(d.logMap))
	for key, entry := range d.logMap {
		if entry.LastSeen.Before(cutoff) {
			delete(d.logMap, key)
			continue
		}
		logs = append(logs, *entry)
	}
	sort.Slice(logs, func(i, j int) bool {
		return logs[i].LastSeen.After(logs[j].LastSeen)
	})
	return logs
}

func (d *LogCollector) generateKey(level, message string, fields map[string]interface{}, caller string) string {
	// Create a consistent hash from level + message + fields + caller
	data := struct {
		Level   string                 `json:"level"`
		Message string                 `json:"message"`
		Fields  map[string]interface{} `json:"fields"`
		Caller  string                 `json:"caller"`
	}{
		Level:   level,
		Message: message,
		Fields:  fields,
		Caller:  caller,
	}

	jsonData, _ := json.Marshal(data)
	hash := sha256.Sum256(jsonData)
	return fmt.Sprintf("%x", hash)
}

func (d *LogCollector) evictOldest() {
	var oldestKey string
	var oldest time.Time
	for key, entry := range d.logMap {
		if oldestKey == "" || entry.LastSeen.Before(oldest) {
			oldestKey = key
			oldest = entry.LastSeen
		}
	}
	if oldestKey != "" {
		delete(d.logMap, oldestKey)
	}
}

func (d *LogCollector) Close() {}
