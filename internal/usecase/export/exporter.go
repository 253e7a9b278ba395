package export

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kailas-cloud/logview/internal/domain"
	"github.com/kailas-cloud/logview/internal/domain/dataview"
	"github.com/kailas-cloud/logview/internal/domain/document"
	"github.com/kailas-cloud/logview/internal/domain/selection"
	"github.com/kailas-cloud/logview/internal/domain/timestamp"
)

// Batch is the loaded document batch with the active selection and data view.
type Batch struct {
	Documents []document.Document
	Selection selection.Selection
	DataView  dataview.DataView
}

// Exporter serializes batches and hands the files to a Downloader.
type Exporter struct {
	downloader Downloader
	plugin     string
	formatter  timestamp.Formatter
	exports    *prometheus.CounterVec
}

// New creates an Exporter.
// exports is a counter vec with label "format", passed explicitly (may be nil).
func New(d Downloader, plugin string, f timestamp.Formatter, exports *prometheus.CounterVec) *Exporter {
	return &Exporter{downloader: d, plugin: plugin, formatter: f, exports: exports}
}

// WithDownloader returns a copy saving through d.
func (e *Exporter) WithDownloader(d Downloader) *Exporter {
	c := *e
	c.downloader = d
	return &c
}

// DownloadJSON saves the whole batch as kobs-<plugin>-export.json.
func (e *Exporter) DownloadJSON(ctx context.Context, b Batch) error {
	data, err := JSON(b.Documents)
	if err != nil {
		return err
	}
	return e.save(ctx, "json", FileName(e.plugin, "json"), ContentTypeJSON, data)
}

// DownloadCSV saves the selected columns as kobs-<plugin>-export.csv.
// It refuses an empty selection: there would be no columns to export.
func (e *Exporter) DownloadCSV(ctx context.Context, b Batch) error {
	if b.Selection.IsEmpty() {
		return fmt.Errorf("csv export: %w", domain.ErrEmptySelection)
	}
	data := CSV(b.Documents, b.Selection.Fields(), b.DataView, e.formatter)
	return e.save(ctx, "csv", FileName(e.plugin, "csv"), ContentTypeCSV, []byte(data))
}

// DownloadDocument saves one pretty-printed document as {id}__{index}.json.
func (e *Exporter) DownloadDocument(ctx context.Context, doc document.Document) error {
	name, data, err := Document(doc)
	if err != nil {
		return err
	}
	return e.save(ctx, "document", name, ContentTypeJSON, data)
}

func (e *Exporter) save(ctx context.Context, format, name, contentType string, data []byte) error {
	if err := e.downloader.Save(ctx, name, contentType, data); err != nil {
		return fmt.Errorf("save %s: %w", name, err)
	}
	if e.exports != nil {
		e.exports.WithLabelValues(format).Inc()
	}
	return nil
}
