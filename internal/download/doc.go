package download

// Package download implements the download orchestration built on top of
// yt-dlp (via github.com/lrstanley/go-ytdlp). Each dispatched job walks a
// platform-specific quality ladder, classifying backend failures to decide
// between skipping not-yet-downloadable content and falling back to the next
// rung. Jobs run on a bounded worker pool whose contexts are canceled on
// shutdown.
