package media

import (
	"bytes"
	"context"
	"errors"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	smithyEndpoints "github.com/aws/smithy-go/endpoints"
)

type s3Storage struct {
	s3Client   *s3.Client
	uploader   *manager.Uploader
	bucketName string
	pathPrefix string
	publicURL  string
}

type ResolverV2 struct{}

func (*ResolverV2) ResolveEndpoint(ctx context.Context, params s3.EndpointParameters) (
	smithyEndpoints.Endpoint, error,
) {
	return s3.NewDefaultEndpointResolverV2().ResolveEndpoint(ctx, params)
}

func newS3Storage(opts *Config) (*s3Storage, error) {
	creds := credentials.NewStaticCredentialsProvider(opts.S3AccessKey, opts.S3SecretKey, "")

	cfg, err := config.LoadDefaultConfig(
		context.Background(),
		config.WithCredentialsProvider(creds))
	if err != nil {
		return nil, err
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.S3EndpointURL != "" {
			o.BaseEndpoint = aws.String(opts.S3EndpointURL)
			o.UsePathStyle = true
		}
		o.Region = opts.S3Region
		o.EndpointResolverV2 = &ResolverV2{}
	})

	publicURL := opts.PublicURL
	if publicURL == "" {
		base := opts.S3EndpointURL
		if base == "" {
			base = "https://s3." + opts.S3Region + ".amazonaws.com"
		}
		publicURL = joinURL(base, opts.S3BucketName)
	}

	return &s3Storage{
		s3Client:   client,
		uploader:   manager.NewUploader(client),
		bucketName: opts.S3BucketName,
		pathPrefix: opts.S3PathPrefix,
		publicURL:  publicURL,
	}, nil
}

func (s *s3Storage) objectKey(key string) string {
	return path.Join(s.pathPrefix, key)
}

func (s *s3Storage) put(ctx context.Context, key, contentType string, content []byte) error {
	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucketName),
		Key:         aws.String(s.objectKey(key)),
		ContentType: aws.String(contentType),
		Body:        bytes.NewReader(content),
		ACL:         types.ObjectCannedACLPublicRead,
	})
	return err
}

func (s *s3Storage) remove(ctx context.Context, keys []string) error {
	objectIds := make([]types.ObjectIdentifier, 0, len(keys))
	for _, key := range keys {
		objectIds = append(objectIds, types.ObjectIdentifier{Key: aws.String(s.objectKey(key))})
	}

	_, err := s.s3Client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
		Bucket: aws.String(s.bucketName),
		Delete: &types.Delete{Objects: objectIds},
	})
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) && apiErr.ErrorCode() == "NoSuchKey" {
		return nil
	}
	return err
}

func (s *s3Storage) url(key string) string {
	return joinURL(s.publicURL, s.objectKey(key))
}
