// Package scanner handles filesystem and S3 scanning operations.
// This includes walking local directories for upload and exhaustively
// listing S3 prefixes for download.
package scanner
