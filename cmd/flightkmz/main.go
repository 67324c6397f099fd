package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"google.golang.org/api/option"

	"github.com/skypies/flightkmz"
	"github.com/skypies/flightkmz/flight"
	"github.com/skypies/flightkmz/fpdf"
	"github.com/skypies/flightkmz/log"
	"github.com/skypies/flightkmz/publish"
	"github.com/skypies/flightkmz/render"
)

var (
	fIn           string
	fOut          string
	fTask         string
	fPilot        string
	fGlider       string
	fGliderID     string
	fURL          string
	fTZOffset     int
	fDefaultTrack string
	fGraphSize    string
	fFont         string
	fRenders      int64
	fTimeout      time.Duration
	fPdf          string
	fLogLevel     string
	fLogDir       string
	fBucket       string
	fTable        string
	fCredentials  string
)

func init() {
	flag.StringVar(&fIn, "in", "", "track to convert: a JSON array of samples")
	flag.StringVar(&fOut, "out", "", "where to write the result; .kml for a bare document, else KMZ")
	flag.StringVar(&fTask, "task", "", "optional JSON file holding the declared task")
	flag.StringVar(&fPilot, "pilot", "", "pilot name")
	flag.StringVar(&fGlider, "glider", "", "glider type")
	flag.StringVar(&fGliderID, "gliderid", "", "glider registration")
	flag.StringVar(&fURL, "url", "", "link to the flight, shown in the description")
	flag.IntVar(&fTZOffset, "tz", 0, "timezone offset, in seconds east of UTC")
	flag.StringVar(&fDefaultTrack, "default", flight.KeyClimb,
		"track visible on open: "+strings.Join(flight.TrackKeys, ", "))
	flag.StringVar(&fGraphSize, "graph", "600x300", "graph image size, WxH pixels")
	flag.StringVar(&fFont, "font", "sans", "chart font: "+strings.Join(render.FontNames(), ", "))
	flag.Int64Var(&fRenders, "renders", 4, "how many chart images to draw at once")
	flag.DurationVar(&fTimeout, "timeout", 2*time.Minute, "give up on the conversion after this long")
	flag.StringVar(&fPdf, "pdf", "", "also write a one page PDF summary here")
	flag.StringVar(&fLogLevel, "loglevel", "info", "debug, info, warn or error")
	flag.StringVar(&fLogDir, "logdir", "", "log to a rotating file in this directory, not stderr")
	flag.StringVar(&fBucket, "gcs", "", "GCS bucket to upload segment stats into")
	flag.StringVar(&fTable, "bq", "", "BigQuery table to load segment stats into, project.dataset.table")
	flag.StringVar(&fCredentials, "credentials", "", "service account JSON file for GCS and BigQuery")
	flag.Parse()
}

func main() {
	l := log.New(fLogLevel, fLogDir)
	if err := run(l); err != nil {
		l.Errorf("flightkmz: %v", err)
		fmt.Fprintf(os.Stderr, "flightkmz: %v\n", err)
		os.Exit(1)
	}
}

// {{{ run

func run(l *log.Logger) error {
	if fIn == "" || fOut == "" {
		flag.Usage()
		return fmt.Errorf("need both -in and -out")
	}
	if !flight.IsTrackKey(fDefaultTrack) {
		return fmt.Errorf("-default %q: want one of %s", fDefaultTrack, strings.Join(flight.TrackKeys, ", "))
	}

	opts := flight.DefaultOptions()
	opts.TZOffset = fTZOffset
	opts.DefaultTrack = fDefaultTrack
	opts.FontName = fFont
	opts.URL = fURL
	opts.MaxConcurrentRenders = fRenders
	if _, err := fmt.Sscanf(fGraphSize, "%dx%d", &opts.GraphWidth, &opts.GraphHeight); err != nil {
		return fmt.Errorf("-graph %q: %v", fGraphSize, err)
	}

	t, err := loadTrack()
	if err != nil {
		return err
	}
	l.Infof("loaded %s", t)

	g := flight.NewGlobals(t, opts, nil, l)
	if err := g.UseGG(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), fTimeout)
	defer cancel()

	f := flight.New(t)
	doc, err := f.ToKMZ(ctx, g)
	if err != nil {
		return err
	}
	if f.Failures() > 0 {
		l.Warnf("%d of %d chart images failed, and were left out", f.Failures(), f.Renders())
	}

	out, err := os.Create(fOut)
	if err != nil {
		return err
	}
	if strings.EqualFold(filepath.Ext(fOut), ".kml") {
		err = doc.WriteKML(out)
	} else {
		err = doc.WriteKMZ(out)
	}
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("writing %s: %v", fOut, err)
	}
	l.Infof("wrote %s (%d images)", fOut, len(doc.Files()))

	if fPdf != "" {
		if err := writePdf(t, g); err != nil {
			return err
		}
	}

	if fBucket != "" {
		tgt := publish.Target{Bucket: fBucket}
		if fTable != "" {
			if tgt.Project, tgt.Dataset, tgt.Table, err = publish.ParseTable(fTable); err != nil {
				return err
			}
		}
		clientOpts := []option.ClientOption{}
		if fCredentials != "" {
			clientOpts = append(clientOpts, option.WithCredentialsFile(fCredentials))
		}
		if err := publish.Publish(ctx, l, tgt, f.ID(), flight.AllStats(t), clientOpts...); err != nil {
			return err
		}
	}

	return nil
}

// }}}
// {{{ loadTrack, writePdf

func loadTrack() (*flightkmz.Track, error) {
	meta := flightkmz.TrackMetadata{
		Filename:   filepath.Base(fIn),
		PilotName:  fPilot,
		GliderType: fGlider,
		GliderID:   fGliderID,
	}

	if fTask != "" {
		b, err := os.ReadFile(fTask)
		if err != nil {
			return nil, err
		}
		task := flightkmz.Task{}
		if err := json.Unmarshal(b, &task); err != nil {
			return nil, fmt.Errorf("%s: %v", fTask, err)
		}
		meta.Declaration = &task
	}

	in, err := os.Open(fIn)
	if err != nil {
		return nil, err
	}
	defer in.Close()

	return flightkmz.LoadJSON(in, meta)
}

func writePdf(t *flightkmz.Track, g *flight.Globals) error {
	out, err := os.Create(fPdf)
	if err != nil {
		return err
	}
	if err := fpdf.WriteFlightSummary(out, t, g); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// }}}

// {{{ -------------------------={ E N D }=----------------------------------

// Local variables:
// folded-file: t
// end:

// }}}
