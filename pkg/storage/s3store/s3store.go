// Package s3store stores saved protocols as objects in an S3 compatible bucket.
//
// Each competition is stored as <prefix><id>.json.
package s3store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/mpapenbr/swimprotocol/log"
	"github.com/mpapenbr/swimprotocol/pkg/storage"
	"github.com/mpapenbr/swimprotocol/pkg/storage/factory"
)

const (
	ext = ".json"

	StoreTypeS3 factory.StoreType = "s3"
)

var ErrMissingBucket = errors.New("s3 bucket is required")

// API is the part of the s3 client used by the backend
//
//nolint:lll // ok for interface
type API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

var _ API = (*s3.Client)(nil)

type (
	Option func(*config)
	config struct {
		client    API
		bucket    string
		prefix    string
		endpoint  string
		region    string
		accessKey string
		secretKey string
		l         *log.Logger
	}
	backend struct {
		client API
		bucket string
		prefix string
		l      *log.Logger
	}
)

var _ storage.Backend = (*backend)(nil)

func WithBucket(bucket string) Option {
	return func(c *config) {
		c.bucket = bucket
	}
}

// WithPrefix is prepended to every object key, e.g. "protocols/"
func WithPrefix(prefix string) Option {
	return func(c *config) {
		c.prefix = prefix
	}
}

// WithEndpoint selects a non AWS endpoint (minio, R2).
// Path style addressing is used in that case.
func WithEndpoint(endpoint string) Option {
	return func(c *config) {
		c.endpoint = endpoint
	}
}

func WithRegion(region string) Option {
	return func(c *config) {
		c.region = region
	}
}

// WithStaticCredentials replaces the default AWS credential chain
func WithStaticCredentials(accessKey, secretKey string) Option {
	return func(c *config) {
		c.accessKey = accessKey
		c.secretKey = secretKey
	}
}

// WithClient uses the given client, endpoint and credential settings are ignored
func WithClient(client API) Option {
	return func(c *config) {
		c.client = client
	}
}

func WithLogger(l *log.Logger) Option {
	return func(c *config) {
		c.l = l
	}
}

//nolint:ireturn // by factory contract
func New(ctx context.Context, opts ...Option) (storage.Backend, error) {
	cfg := &config{
		region: "auto",
		l:      log.Default().Named("storage.s3"),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.bucket == "" {
		return nil, ErrMissingBucket
	}
	if cfg.client == nil {
		client, err := newClient(ctx, cfg)
		if err != nil {
			return nil, err
		}
		cfg.client = client
	}
	cfg.l.Debug("s3 storage ready",
		log.String("bucket", cfg.bucket),
		log.String("prefix", cfg.prefix),
		log.String("endpoint", cfg.endpoint))
	return &backend{
		client: cfg.client,
		bucket: cfg.bucket,
		prefix: cfg.prefix,
		l:      cfg.l,
	}, nil
}

func newClient(ctx context.Context, cfg *config) (*s3.Client, error) {
	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.region),
	}
	if cfg.accessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.accessKey, cfg.secretKey, "")))
	}
	sdkCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS SDK config: %w", err)
	}
	return s3.NewFromConfig(sdkCfg, func(o *s3.Options) {
		if cfg.endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

func (b *backend) objectKey(key string) (string, error) {
	if err := storage.ValidateID(key); err != nil {
		return "", err
	}
	return b.prefix + key + ext, nil
}

func (b *backend) Get(ctx context.Context, key string) ([]byte, error) {
	objKey, err := b.objectKey(key)
	if err != nil {
		return nil, err
	}
	out, err := b.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(objKey),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get object (key: %s): %w", objKey, err)
	}
	defer out.Body.Close()
	return io.ReadAll(out.Body)
}

func (b *backend) Put(ctx context.Context, key string, data []byte) error {
	objKey, err := b.objectKey(key)
	if err != nil {
		return err
	}
	_, err = b.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(b.bucket),
		Key:         aws.String(objKey),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("failed to put object (key: %s): %w", objKey, err)
	}
	return nil
}

func (b *backend) Delete(ctx context.Context, key string) error {
	objKey, err := b.objectKey(key)
	if err != nil {
		return err
	}
	_, err = b.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(objKey),
	})
	if err != nil && !isNotFound(err) {
		return fmt.Errorf("failed to delete object (key: %s): %w", objKey, err)
	}
	return nil
}

func (b *backend) Keys(ctx context.Context) ([]string, error) {
	ret := []string{}
	p := s3.NewListObjectsV2Paginator(b.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(b.bucket),
		Prefix: aws.String(b.prefix),
	})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list objects: %w", err)
		}
		for _, obj := range page.Contents {
			name := strings.TrimPrefix(aws.ToString(obj.Key), b.prefix)
			if strings.Contains(name, "/") || !strings.HasSuffix(name, ext) {
				continue
			}
			ret = append(ret, strings.TrimSuffix(name, ext))
		}
	}
	return ret, nil
}

func (b *backend) Close() error {
	return nil
}

func isNotFound(err error) bool {
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotFound", "NoSuchKey":
			return true
		}
	}
	return false
}

func init() {
	factory.Register(StoreTypeS3, func(ctx context.Context, opts []Option) (storage.Backend, error) {
		return New(ctx, opts...)
	})
}
