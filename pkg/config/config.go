package config

// this holds the resolved configuration values from CLI
//
//nolint:lll // readablity
var (
	BaseURL           string // base URL of the competition server
	AuthToken         string // token sent with protected requests
	RequestTimeout    string // timeout per server request
	StoreType         string // storage backend (file, memory, nats, postgres, s3)
	StoreDir          string // directory for the file backend
	StoreWatch        bool   // enable the watched read cache of the file backend
	NatsURL           string // URL of the NATS server
	NatsBucket        string // name of the key value bucket
	DB                string // connection string for the database
	S3Bucket          string // bucket for the s3 backend
	S3Prefix          string // object key prefix for the s3 backend
	S3Endpoint        string // custom endpoint for S3 compatible services
	S3Region          string // region for the s3 backend
	S3AccessKey       string // static access key for the s3 backend
	S3SecretKey       string // static secret key for the s3 backend
	WaitForServices   string // duration to wait for other services to be ready
	SyncConcurrency   int    // max number of competitions refreshed in parallel
	LogLevel          string // sets the log level (zap log level values)
	SQLLogLevel       string // sets the log level for sql subsystem
	LogFormat         string // text vs json
	LogFilter         string // zapfilter rules
	EnableTelemetry   bool   // enable telemetry
	TelemetryEndpoint string // endpoint for telemetry, stdout exporters if empty
)
