package awsclient

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// InvokeModelAPI is the part of the Bedrock runtime client used for both
// completions and embeddings. Tests replace it with a fake.
type InvokeModelAPI interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

func LoadConfig(ctx context.Context, region string) (aws.Config, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return aws.Config{}, fmt.Errorf("Unable to load AWS config: %w", err)
	}
	return cfg, nil
}

// NewBedrockRuntime builds a runtime client without SDK-level retries: a
// failed call is surfaced to the request that made it.
func NewBedrockRuntime(cfg aws.Config) *bedrockruntime.Client {
	return bedrockruntime.NewFromConfig(cfg, func(o *bedrockruntime.Options) {
		o.RetryMaxAttempts = 1
	})
}

func NewS3(cfg aws.Config) *s3.Client {
	return s3.NewFromConfig(cfg)
}
