package model

// ContentKind distinguishes the two content listings monitored per account.
type ContentKind string

const (
	KindVideos ContentKind = "videos"
	KindLives  ContentKind = "lives"
)

// Kinds returns all content kinds in a stable order.
func Kinds() []ContentKind {
	return []ContentKind{KindVideos, KindLives}
}

// String returns the string representation of ContentKind.
func (k ContentKind) String() string {
	return string(k)
}
