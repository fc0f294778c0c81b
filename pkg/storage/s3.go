package storage

import (
	"context"
	"errors"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	smithyhttp "github.com/aws/smithy-go/transport/http"
	"k8s.io/utils/pointer"

	mljeterrors "mljet.io/mljet/pkg/errors"
)

type S3Options struct {
	URL           string        `json:"url,omitempty"`
	Region        string        `json:"region,omitempty"`
	Bucket        string        `json:"bucket,omitempty"`
	AccessKey     string        `json:"accessKey,omitempty"`
	SecretKey     string        `json:"secretKey,omitempty"`
	Prefix        string        `json:"prefix,omitempty"`
	PresignExpire time.Duration `json:"presignExpire,omitempty"`
	PathStyle     bool          `json:"pathStyle,omitempty"`
}

func NewDefaultS3Options() *S3Options {
	return &S3Options{
		Bucket:        "mljet",
		URL:           "",
		AccessKey:     "",
		SecretKey:     "",
		Prefix:        "mljet",
		PresignExpire: time.Hour,
		Region:        "",
		PathStyle:     true,
	}
}

var _ Provider = &S3Provider{}

type S3Provider struct {
	Bucket  string
	Client  *s3.Client
	PreSign *s3.PresignClient
	Expire  time.Duration
	Prefix  string
}

func NewS3Provider(ctx context.Context, options *S3Options) (*S3Provider, error) {
	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(options.AccessKey, options.SecretKey, ""),
		),
		config.WithRegion(options.Region),
		config.WithEndpointResolverWithOptions(
			aws.EndpointResolverWithOptionsFunc(
				func(service, region string, _ ...interface{}) (aws.Endpoint, error) {
					return aws.Endpoint{URL: options.URL}, nil
				},
			),
		),
	)
	if err != nil {
		return nil, err
	}
	s3cli := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = options.PathStyle
	})
	return &S3Provider{
		Bucket:  options.Bucket,
		Client:  s3cli,
		Expire:  options.PresignExpire,
		Prefix:  options.Prefix,
		PreSign: s3.NewPresignClient(s3cli),
	}, nil
}

func (m *S3Provider) Put(ctx context.Context, key string, content ObjectContent) error {
	uploadobj := &s3.PutObjectInput{
		Bucket:        aws.String(m.Bucket),
		Key:           m.prefixedKey(key),
		Body:          content.Content,
		ContentLength: content.ContentLength,
		ContentType:   aws.String(content.ContentType),
	}
	if _, err := manager.NewUploader(m.Client).Upload(ctx, uploadobj); err != nil {
		return mljeterrors.NewInternalError(err)
	}
	return nil
}

func (m *S3Provider) PutLocation(ctx context.Context, key string) (string, error) {
	putobj := &s3.PutObjectInput{
		Bucket: aws.String(m.Bucket),
		Key:    m.prefixedKey(key),
	}
	out, err := m.PreSign.PresignPutObject(ctx, putobj, s3.WithPresignExpires(m.Expire))
	if err != nil {
		return "", err
	}
	return out.URL, nil
}

func (m *S3Provider) Get(ctx context.Context, key string) (ObjectContent, error) {
	getobjout, err := m.Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(m.Bucket),
		Key:    m.prefixedKey(key),
	})
	if err != nil {
		if IsS3NotFound(err) {
			return ObjectContent{}, mljeterrors.NewStorageUnknownError(key)
		}
		return ObjectContent{}, err
	}
	return ObjectContent{
		Content:         getobjout.Body,
		ContentType:     pointer.StringDeref(getobjout.ContentType, ""),
		ContentLength:   getobjout.ContentLength,
		ContentEncoding: pointer.StringDeref(getobjout.ContentEncoding, ""),
	}, nil
}

func (m *S3Provider) GetLocation(ctx context.Context, key string) (string, error) {
	getobj := &s3.GetObjectInput{
		Bucket: aws.String(m.Bucket),
		Key:    m.prefixedKey(key),
	}
	out, err := m.PreSign.PresignGetObject(ctx, getobj, s3.WithPresignExpires(m.Expire))
	if err != nil {
		return "", err
	}
	return out.URL, nil
}

func (m *S3Provider) Remove(ctx context.Context, key string, recursive bool) error {
	if !recursive {
		_, err := m.Client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(m.Bucket),
			Key:    m.prefixedKey(key),
		})
		return err
	}
	prefix := *m.prefixedKey(key)
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	output, err := m.Client.ListObjects(ctx, &s3.ListObjectsInput{
		Bucket: aws.String(m.Bucket),
		Prefix: aws.String(prefix),
	})
	if err != nil {
		return err
	}
	if len(output.Contents) == 0 {
		return nil
	}
	objectsids := make([]s3types.ObjectIdentifier, 0, len(output.Contents))
	for _, object := range output.Contents {
		objectsids = append(objectsids, s3types.ObjectIdentifier{Key: object.Key})
	}
	_, err = m.Client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
		Bucket: aws.String(m.Bucket),
		Delete: &s3types.Delete{Objects: objectsids},
	})
	return err
}

func (m *S3Provider) Exists(ctx context.Context, key string) (bool, error) {
	_, err := m.Client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(m.Bucket),
		Key:    m.prefixedKey(key),
	})
	if err != nil {
		if IsS3NotFound(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (m *S3Provider) List(ctx context.Context, prefix string, recursive bool) ([]ObjectMeta, error) {
	fullprefix := *m.prefixedKey(prefix)
	if !strings.HasSuffix(fullprefix, "/") {
		fullprefix += "/"
	}
	listinput := &s3.ListObjectsInput{
		Bucket: aws.String(m.Bucket),
		Prefix: aws.String(fullprefix),
	}
	if !recursive {
		listinput.Delimiter = aws.String("/")
	}
	var result []ObjectMeta
	for {
		listobjout, err := m.Client.ListObjects(ctx, listinput)
		if err != nil {
			return nil, err
		}
		for _, obj := range listobjout.Contents {
			result = append(result, ObjectMeta{
				Key:          strings.TrimPrefix(*obj.Key, fullprefix),
				Size:         obj.Size,
				LastModified: *obj.LastModified,
			})
		}
		if !listobjout.IsTruncated {
			break
		}
		listinput.Marker = listobjout.NextMarker
	}
	return result, nil
}

func IsS3NotFound(err error) bool {
	var apie *smithyhttp.ResponseError
	if errors.As(err, &apie) {
		return apie.HTTPStatusCode() == 404
	}
	return false
}

func (m *S3Provider) prefixedKey(key string) *string {
	return aws.String(path.Join(m.Prefix, key))
}
