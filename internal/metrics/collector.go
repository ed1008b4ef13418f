package metrics

import (
	"os"
	"time"

	"qc-analytics/internal/logging"
)

// StatsProvider interface for collecting stats
type StatsProvider interface {
	GetStats() Stats
}

// Stats holds the current statistics
type Stats struct {
	TotalSessions   int
	OpenSessions    int
	TotalRecords    int
	ActiveRecords   int
	TotalSettings   int
	OpenConnections int
}

// Collector periodically collects and updates metrics
type Collector struct {
	statsProvider StatsProvider
	dbPath        string
	interval      time.Duration
	stopChan      chan struct{}
}

// NewCollector creates a new metrics collector. dbPath may be empty to skip
// file size reporting.
func NewCollector(provider StatsProvider, dbPath string, interval time.Duration) *Collector {
	return &Collector{
		statsProvider: provider,
		dbPath:        dbPath,
		interval:      interval,
		stopChan:      make(chan struct{}),
	}
}

// Start begins the metrics collection loop
func (c *Collector) Start() {
	go c.collectLoop()
}

// Stop stops the metrics collection
func (c *Collector) Stop() {
	close(c.stopChan)
}

func (c *Collector) collectLoop() {
	// Collect immediately on start
	c.collect()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.collect()
		case <-c.stopChan:
			return
		}
	}
}

func (c *Collector) collect() {
	c.collectFileSizes()

	if c.statsProvider == nil {
		return
	}

	stats := c.statsProvider.GetStats()

	QCSessionsTotal.Set(float64(stats.TotalSessions))
	QCOpenSessions.Set(float64(stats.OpenSessions))
	QCRecordsTotal.Set(float64(stats.TotalRecords))
	QCActiveRecords.Set(float64(stats.ActiveRecords))
	QCSettingsTotal.Set(float64(stats.TotalSettings))
	DBConnectionsOpen.Set(float64(stats.OpenConnections))

	logging.Debug("Metrics collected: sessions=%d (open=%d), records=%d (active=%d), settings=%d",
		stats.TotalSessions, stats.OpenSessions, stats.TotalRecords, stats.ActiveRecords, stats.TotalSettings)
}

// collectFileSizes reports the sizes of the database file and its WAL and
// shared-memory companions. A missing file reports 0.
func (c *Collector) collectFileSizes() {
	if c.dbPath == "" {
		return
	}

	for label, suffix := range map[string]string{"main": "", "wal": "-wal", "shm": "-shm"} {
		var size int64
		if info, err := os.Stat(c.dbPath + suffix); err == nil {
			size = info.Size()
		}
		DBSizeBytes.WithLabelValues(label).Set(float64(size))
	}
}
