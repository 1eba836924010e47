// internal/model/file.go
package model

// BucketFile
// ------------------------------------------------------------
// One file produced by the flush phase. Flusher → Shipper.
type BucketFile struct {
	Key     string // logical hour key, e.g. 2023-11-14T22:00:00
	Segment string // on-disk directory name for Key, e.g. 2023-11-14T22-00-00
	Path    string // full local path of the written file
	Lines   int    // number of lines in the file
	Size    int64  // bytes written
}

// ShippedObject
// ------------------------------------------------------------
// One uploaded object as recorded in the run manifest.
type ShippedObject struct {
	Key        string `json:"key"`         // S3 object key
	BucketKey  string `json:"bucket_key"`  // logical hour key
	SourcePath string `json:"source_path"` // local file it was built from
	Lines      int    `json:"lines"`
	RawBytes   int64  `json:"raw_bytes"`
	GzipBytes  int64  `json:"gzip_bytes"`
}
