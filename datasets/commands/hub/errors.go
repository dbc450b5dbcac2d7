package hub

import "errors"

var (
	ErrDatasetNotFound  = errors.New("dataset not found")
	ErrFileNotFound     = errors.New("file not found")
	ErrDatasetGated     = errors.New("dataset is gated")
	ErrNoAssets         = errors.New("no parquet or tar files detected")
	ErrChecksumMismatch = errors.New("checksum mismatch")
)
