package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/gabriel-vasile/mimetype"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

type RemoteConfig struct {
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	PublicBaseURL   string
	ForcePathStyle  bool
	MaxBytes        int64
}

// RemoteBlobStore uploads images to an S3 compatible bucket with public
// read access and returns the absolute URL of the object.
type RemoteBlobStore struct {
	client s3iface.S3API
	cfg    RemoteConfig
	Namer  *Namer
}

func NewRemoteBlobStore(cfg RemoteConfig) (*RemoteBlobStore, error) {
	if cfg.Bucket == "" || cfg.Region == "" {
		return nil, errors.New("bucket and region are required for remote image storage")
	}

	awsCfg := &aws.Config{
		Region:           aws.String(cfg.Region),
		S3ForcePathStyle: aws.Bool(cfg.ForcePathStyle),
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		awsCfg.Credentials = credentials.NewStaticCredentials(cfg.AccessKeyID, cfg.SecretAccessKey, "")
	}
	if cfg.Endpoint != "" {
		awsCfg.Endpoint = aws.String(cfg.Endpoint)
	}

	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create AWS session")
	}
	return NewRemoteBlobStoreWithClient(s3.New(sess), cfg), nil
}

func NewRemoteBlobStoreWithClient(client s3iface.S3API, cfg RemoteConfig) *RemoteBlobStore {
	return &RemoteBlobStore{client: client, cfg: cfg, Namer: NewNamer()}
}

func (s *RemoteBlobStore) Store(ctx context.Context, r io.Reader, originalName string) (string, error) {
	data, err := readLimited(r, s.cfg.MaxBytes)
	if err != nil {
		return "", err
	}

	key := s.Namer.Name(originalName)
	contentType := mimetype.Detect(data).String()

	_, err = s.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.cfg.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ACL:         aws.String(s3.ObjectCannedACLPublicRead),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", errors.Wrap(err, "failed to upload file to S3")
	}

	log.WithFields(log.Fields{"key": key, "size": len(data), "content_type": contentType}).Debug("Image uploaded to bucket")
	return s.ObjectURL(key), nil
}

// ObjectURL returns the public URL of key.
func (s *RemoteBlobStore) ObjectURL(key string) string {
	escaped := url.PathEscape(key)
	if s.cfg.PublicBaseURL != "" {
		return strings.TrimRight(s.cfg.PublicBaseURL, "/") + "/" + escaped
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.cfg.Bucket, s.cfg.Region, escaped)
}
