// Command dashboard renders an HTML report of archived air quality data.
package main

import (
	"flag"
	"log"
	"os"
	"time"

	"github.com/airmon-data/airmon/internal/report"
	"github.com/airmon-data/airmon/internal/store"
)

var (
	archivePath = flag.String("archive", "data/airquality.db", "sqlite archive path")
	output      = flag.String("out", "dashboard.html", "Output HTML file")
	window      = flag.Duration("window", 24*time.Hour, "How far back to report")
	title       = flag.String("title", "Air quality", "Report title")
)

func main() {
	flag.Parse()

	archive, err := store.Open(*archivePath)
	if err != nil {
		log.Fatalf("failed to open archive: %v", err)
	}
	defer archive.Close()

	to := time.Now().UTC()
	from := to.Add(-*window)
	ms, err := archive.SelectRange(from, to)
	if err != nil {
		log.Fatalf("failed to query archive: %v", err)
	}
	if len(ms) == 0 {
		log.Fatalf("no measurements between %s and %s", from.Format(time.RFC3339), to.Format(time.RFC3339))
	}

	sum := report.Summarize(ms)
	log.Printf("%d samples | mean PM2.5 %.1f | mean PM10 %.1f | p95 PM10 %.1f",
		sum.Count, sum.MeanPM25, sum.MeanPM10, sum.P95PM10)

	f, err := os.Create(*output)
	if err != nil {
		log.Fatalf("failed to create %s: %v", *output, err)
	}
	defer f.Close()

	if err := report.RenderHTML(f, ms, *title); err != nil {
		log.Fatalf("failed to render report: %v", err)
	}
	log.Printf("wrote %s", *output)
}
