// Package publish ships segment statistics off to BigQuery, by way of a newline delimited JSON
// file in Google Cloud Storage.
package publish

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/skypies/flightkmz/flight"
	"github.com/skypies/flightkmz/log"
)

// SegmentForBigQuery is one thermal, glide or dive, flattened for import into BigQuery.
// Ratios that couldn't be computed are left NULL.
type SegmentForBigQuery struct {
	FlightID string
	Kind     string

	Start, Finish   time.Time
	DurationSecs    float64
	StartAltitude   float64
	FinishAltitude  float64
	AltitudeChange  float64
	AccumulatedGain float64
	AccumulatedLoss float64

	AverageClimb   bigquery.NullFloat64
	MaximumClimb   float64
	MaximumDescent float64
	PeakClimb      float64
	PeakDescent    float64
	Efficiency     bigquery.NullFloat64

	DistanceKM   float64
	AverageSpeed bigquery.NullFloat64
	AverageLD    bigquery.NullFloat64

	DriftDirection string
}

func (s SegmentForBigQuery) String() string {
	return fmt.Sprintf("%s %s %s %.0fs %+.0fm", s.FlightID, s.Kind,
		s.Start.Format("15:04:05"), s.DurationSecs, s.AltitudeChange)
}

func nullFloat(v float64) bigquery.NullFloat64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return bigquery.NullFloat64{}
	}
	return bigquery.NullFloat64{Float64: v, Valid: true}
}

// {{{ SegmentRows

func SegmentRows(stats []flight.Stats, flightID string) []SegmentForBigQuery {
	rows := []SegmentForBigQuery{}
	for _, st := range stats {
		rows = append(rows, SegmentForBigQuery{
			FlightID:        flightID,
			Kind:            st.Kind.String(),
			Start:           st.Start.UTC(),
			Finish:          st.Finish.UTC(),
			DurationSecs:    st.Duration.Seconds(),
			StartAltitude:   st.StartAltitude,
			FinishAltitude:  st.FinishAltitude,
			AltitudeChange:  st.AltitudeChange,
			AccumulatedGain: st.AccumulatedGain,
			AccumulatedLoss: st.AccumulatedLoss,
			AverageClimb:    nullFloat(st.AverageClimb),
			MaximumClimb:    st.MaximumClimb,
			MaximumDescent:  st.MaximumDescent,
			PeakClimb:       st.PeakClimb,
			PeakDescent:     st.PeakDescent,
			Efficiency:      nullFloat(st.Efficiency),
			DistanceKM:      st.Distance / 1000.0,
			AverageSpeed:    nullFloat(st.AverageSpeed),
			AverageLD:       nullFloat(st.AverageLD),
			DriftDirection:  st.DriftDirection,
		})
	}
	return rows
}

// }}}
// {{{ WriteNDJSON

// WriteNDJSON writes one JSON object per line, which is what a BigQuery load job wants.
func WriteNDJSON(w io.Writer, rows []SegmentForBigQuery) (int, error) {
	encoder := json.NewEncoder(w)
	for i, row := range rows {
		if err := encoder.Encode(row); err != nil {
			return i, fmt.Errorf("row %d (%s): %v", i, row, err)
		}
	}
	return len(rows), nil
}

// }}}

// {{{ UploadFile

// UploadFile writes data into gs://bucket/object.
func UploadFile(ctx context.Context, bucket, object, contentType string, data []byte, opts ...option.ClientOption) error {
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return fmt.Errorf("creating storage client: %v", err)
	}
	defer client.Close()

	w := client.Bucket(bucket).Object(object).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := w.Write(data); err != nil {
		w.Close()
		return fmt.Errorf("writing gs://%s/%s: %v", bucket, object, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("closing gs://%s/%s: %v", bucket, object, err)
	}
	return nil
}

// }}}
// {{{ LoadSegments

// LoadSegments runs a load job that appends the NDJSON at gcsURI to project.dataset.table, and
// waits for it to finish.
func LoadSegments(ctx context.Context, l *log.Logger, project, dataset, table, gcsURI string, opts ...option.ClientOption) error {
	client, err := bigquery.NewClient(ctx, project, opts...)
	if err != nil {
		return fmt.Errorf("creating bigquery client: %v", err)
	}
	defer client.Close()

	gcsSrc := bigquery.NewGCSReference(gcsURI)
	gcsSrc.SourceFormat = bigquery.JSON
	gcsSrc.AllowJaggedRows = true

	loader := client.Dataset(dataset).Table(table).LoaderFrom(gcsSrc)
	loader.CreateDisposition = bigquery.CreateNever
	loader.WriteDisposition = bigquery.WriteAppend

	job, err := loader.Run(ctx)
	if err != nil {
		return fmt.Errorf("submission of load job: %v", err)
	}

	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("waiting for load job: %v", err)
	}
	if err := status.Err(); err != nil {
		detailedErrStr := ""
		for i, innerErr := range status.Errors {
			detailedErrStr += fmt.Sprintf(" [%2d] %v\n", i, innerErr)
		}
		l.Errorf("BigQuery load job error: %v\n--\n%s", err, detailedErrStr)
		return fmt.Errorf("job error: %v\n--\n%s", err, detailedErrStr)
	}

	l.Infof("BigQuery load job %s into %s.%s.%s: done", job.ID(), project, dataset, table)
	return nil
}

// }}}
// {{{ Publish

// Target says where segment rows go. Bucket is required; if Table is blank, the file is
// uploaded but not loaded.
type Target struct {
	Bucket  string
	Object  string // Defaults to "segments/<flightID>.json"
	Project string
	Dataset string
	Table   string
}

// ParseTable splits "project.dataset.table".
func ParseTable(name string) (project, dataset, table string, err error) {
	bits := strings.Split(name, ".")
	if len(bits) != 3 || bits[0] == "" || bits[1] == "" || bits[2] == "" {
		return "", "", "", fmt.Errorf("table %q: want project.dataset.table", name)
	}
	return bits[0], bits[1], bits[2], nil
}

// Publish uploads the segments of one flight, and then loads them.
func Publish(ctx context.Context, l *log.Logger, tgt Target, flightID string, stats []flight.Stats, opts ...option.ClientOption) error {
	if tgt.Bucket == "" {
		return fmt.Errorf("publish: no bucket")
	}
	if tgt.Object == "" {
		tgt.Object = fmt.Sprintf("segments/%s.json", flightID)
	}

	rows := SegmentRows(stats, flightID)
	var buf bytes.Buffer
	if _, err := WriteNDJSON(&buf, rows); err != nil {
		return err
	}

	if err := UploadFile(ctx, tgt.Bucket, tgt.Object, "application/json", buf.Bytes(), opts...); err != nil {
		return err
	}
	l.Infof("%d segments written to gs://%s/%s", len(rows), tgt.Bucket, tgt.Object)

	if tgt.Table == "" {
		return nil
	}
	uri := fmt.Sprintf("gs://%s/%s", tgt.Bucket, tgt.Object)
	return LoadSegments(ctx, l, tgt.Project, tgt.Dataset, tgt.Table, uri, opts...)
}

// }}}

// {{{ -------------------------={ E N D }=----------------------------------

// Local variables:
// folded-file: t
// end:

// }}}
