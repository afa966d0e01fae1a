package filestore

// Provider identifies the file storage backend.
type Provider string

const (
	ProviderMinIO Provider = "minio"
)

// Config holds the settings needed to reach the report bucket.
type Config struct {
	Provider Provider

	// Endpoint is the host:port of the storage server, e.g. "minio:9000".
	Endpoint string

	AccessKey string
	SecretKey string
	UseSSL    bool

	// Region is only needed by region-aware backends such as AWS S3.
	Region string

	// Bucket receives every archived report. It is created on first use.
	Bucket string
}

// DefaultConfig returns a plain-HTTP MinIO config for bucket.
func DefaultConfig(endpoint, accessKey, secretKey, bucket string) *Config {
	return &Config{
		Provider:  ProviderMinIO,
		Endpoint:  endpoint,
		AccessKey: accessKey,
		SecretKey: secretKey,
		Bucket:    bucket,
	}
}
