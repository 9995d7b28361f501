package core

// FileStore is any service that can persist an uploaded file and hand back
// the relative URL it will be served under.
type FileStore interface {
	// Save writes data under the given category directory with a
	// collision-resistant name carrying ext (e.g. ".pdf").
	Save(category, ext string, data []byte) (fileURL string, err error)
}
