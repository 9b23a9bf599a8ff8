// Package cloudwriter abstracts the archive command's upload target so
// exports land on local disk in development and object storage in
// production.
package cloudwriter

type CloudWriter interface {
	Write(data []byte) (int, error)
	Close() error
}

type CloudWriterFactory interface {
	NewWriter(bucket, objectPath string) (CloudWriter, error)
}
