package server

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/mpapenbr/simresults-indexer/log"
	"github.com/mpapenbr/simresults-indexer/pkg/service"
)

// infoCollector exposes the service info as prometheus gauges.
// The values are read on each scrape.
type infoCollector struct {
	svc      *service.ResultsService
	rows     *prometheus.Desc
	size     *prometheus.Desc
	scanned  *prometheus.Desc
	failed   *prometheus.Desc
	lastScan *prometheus.Desc
	degraded *prometheus.Desc
}

func newInfoCollector(svc *service.ResultsService) *infoCollector {
	return &infoCollector{
		svc: svc,
		rows: prometheus.NewDesc("sri_store_rows",
			"number of stored rows", []string{"table"}, nil),
		size: prometheus.NewDesc("sri_store_size_bytes",
			"size of the store", nil, nil),
		scanned: prometheus.NewDesc("sri_scan_files",
			"files found by the last scan", nil, nil),
		failed: prometheus.NewDesc("sri_scan_failed_files",
			"unreadable files of the last scan", nil, nil),
		lastScan: prometheus.NewDesc("sri_scan_last_timestamp_seconds",
			"time of the last scan", nil, nil),
		degraded: prometheus.NewDesc("sri_store_degraded",
			"1 if the store runs on the in-memory fallback", nil, nil),
	}
}

func (c *infoCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.rows
	ch <- c.size
	ch <- c.scanned
	ch <- c.failed
	ch <- c.lastScan
	ch <- c.degraded
}

func (c *infoCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	res := c.svc.Info(ctx)
	if !res.OK {
		log.Warn("could not collect metrics", log.String("error", res.Error))
		return
	}
	info := res.Data
	ch <- prometheus.MustNewConstMetric(c.scanned, prometheus.GaugeValue,
		float64(info.ScannedFiles))
	ch <- prometheus.MustNewConstMetric(c.failed, prometheus.GaugeValue,
		float64(info.FailedFiles))
	var last float64
	if !info.LastScan.IsZero() {
		last = float64(info.LastScan.Unix())
	}
	ch <- prometheus.MustNewConstMetric(c.lastScan, prometheus.GaugeValue, last)
	if st := info.Store; st != nil {
		for table, v := range map[string]int64{
			"file":    st.Files,
			"session": st.Sessions,
			"driver":  st.Drivers,
			"lap":     st.Laps,
			"stream":  st.Streams,
		} {
			ch <- prometheus.MustNewConstMetric(c.rows, prometheus.GaugeValue,
				float64(v), table)
		}
		ch <- prometheus.MustNewConstMetric(c.size, prometheus.GaugeValue,
			float64(st.SizeBytes))
		degraded := 0.0
		if st.Degraded {
			degraded = 1
		}
		ch <- prometheus.MustNewConstMetric(c.degraded, prometheus.GaugeValue, degraded)
	}
}
