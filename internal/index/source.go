package index

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Source opens index artifacts by file name.
type Source interface {
	Open(ctx context.Context, name string) (io.ReadCloser, error)
	String() string
}

type DirSource struct {
	Root string
}

func NewDirSource(root string) *DirSource {
	return &DirSource{Root: root}
}

func (d *DirSource) Open(_ context.Context, name string) (io.ReadCloser, error) {
	f, err := os.Open(filepath.Join(d.Root, name))
	if err != nil {
		return nil, fmt.Errorf("Unable to open index artifact %s. Error: %w", name, err)
	}
	return f, nil
}

func (d *DirSource) String() string {
	return d.Root
}

// S3GetObjectAPI is the part of the S3 client the loader needs.
type S3GetObjectAPI interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

type S3Source struct {
	Client S3GetObjectAPI
	Bucket string
	Prefix string
}

func NewS3Source(client S3GetObjectAPI, bucket string, prefix string) *S3Source {
	return &S3Source{
		Client: client,
		Bucket: bucket,
		Prefix: prefix,
	}
}

func (s *S3Source) key(name string) string {
	if s.Prefix == "" {
		return name
	}
	return path.Join(s.Prefix, name)
}

func (s *S3Source) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	key := s.key(name)
	output, err := s.Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("Unable to fetch s3://%s/%s. Error: %w", s.Bucket, key, err)
	}
	return output.Body, nil
}

func (s *S3Source) String() string {
	return fmt.Sprintf("s3://%s/%s", s.Bucket, s.Prefix)
}
