package download

import (
	"context"
	"time"

	"github.com/lrstanley/go-ytdlp"
)

const (
	downloadSocketTimeout = 30.0
	progressInterval      = 500 * time.Millisecond
)

// runFetch executes one download attempt through the yt-dlp backend.
func runFetch(ctx context.Context, spec fetchSpec, onProgress func(progressUpdate)) (string, error) {
	dl := ytdlp.New().
		Format(spec.Format).
		Output(spec.OutputTemplate).
		ForceOverwrites().
		SocketTimeout(downloadSocketTimeout).
		NoWarnings()

	if spec.MergeFormat != "" {
		dl = dl.MergeOutputFormat(spec.MergeFormat)
	}
	if spec.Cookie != "" {
		dl = dl.AddHeaders("Cookie:SESSDATA=" + spec.Cookie)
	}

	if onProgress != nil {
		dl.ProgressFunc(progressInterval, func(update ytdlp.ProgressUpdate) {
			onProgress(progressUpdate{
				downloadedBytes: int64(update.DownloadedBytes),
				totalBytes:      int64(update.TotalBytes),
				started:         update.Started,
				etaSec:          int(update.ETA().Seconds()),
			})
		})
	}

	result, err := dl.Run(ctx, spec.URL)
	if err != nil {
		return "", err
	}

	// Recover the final path from the extraction metadata when available.
	if result != nil {
		info, err := result.GetExtractedInfo()
		if err == nil && len(info) > 0 && info[0].Filename != nil {
			return *info[0].Filename, nil
		}
	}
	return "", nil
}
