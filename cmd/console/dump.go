package main

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/nerftank/console/internal/api"
	"github.com/nerftank/console/internal/config"
	"github.com/nerftank/console/internal/recorder"
)

// dumpBlackbox exports each blackbox file to a compressed JSON
// recording next to the original, for offline session review.
func dumpBlackbox(paths []string) error {
	zlog := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout})

	// defaults still apply if no config file is present
	_ = config.Load(".")

	for _, path := range paths {
		txStart := time.Now()

		backend, err := recorder.NewSqliteBackend(zlog, path)
		if err != nil {
			return fmt.Errorf("error opening blackbox %s: %w", path, err)
		}

		frames, err := backend.ReadFrames()
		if err != nil {
			return err
		}
		events, err := backend.ReadEvents()
		if err != nil {
			return err
		}
		if err := backend.Close(); err != nil {
			fmt.Println("Error closing blackbox: ", err)
		}

		recording := map[string]any{
			"source":   path,
			"frames":   frames,
			"events":   events,
			"dumpedAt": time.Now().UTC(),
		}

		recordingJSON, err := json.Marshal(recording)
		if err != nil {
			return fmt.Errorf("error marshalling recording: %w", err)
		}

		fileName := strings.TrimSuffix(path, ".db") + ".json.gz"
		f, err := os.Create(fileName)
		if err != nil {
			return fmt.Errorf("error creating file: %w", err)
		}

		gzWriter := gzip.NewWriter(f)
		if _, err = gzWriter.Write(recordingJSON); err != nil {
			f.Close()
			return fmt.Errorf("error writing to gzip: %w", err)
		}
		if err := gzWriter.Close(); err != nil {
			f.Close()
			return fmt.Errorf("error closing gzip: %w", err)
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("error closing file: %w", err)
		}

		fmt.Printf("Wrote %d frames and %d events to %s in %s\n",
			len(frames), len(events), fileName, time.Since(txStart))

		if reviewURL := config.GetString("review.url"); reviewURL != "" {
			var duration float64
			if len(frames) > 1 {
				duration = frames[len(frames)-1].Time.Sub(frames[0].Time).Seconds()
			}
			client := api.New(reviewURL, config.GetString("review.apiKey"))
			err = client.Upload(fileName, api.UploadMetadata{
				Operator:        AppName,
				Robot:           config.GetString("robot.url"),
				SessionDuration: duration,
			})
			if err != nil {
				return fmt.Errorf("error uploading recording: %w", err)
			}
			fmt.Println("Uploaded recording to ", reviewURL)
		}
	}

	return nil
}
