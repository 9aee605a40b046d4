package aws

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/elasticache"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// AWSConfig holds the service clients the word loader and leaderboard
// backends use.
type AWSConfig struct {
	Region   string
	DynamoDB *dynamodb.Client
	S3       *s3.Client
	Cache    *elasticache.Client
}

func NewAWSConfig(ctx context.Context, region string) (*AWSConfig, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, err
	}

	return &AWSConfig{
		Region:   region,
		DynamoDB: dynamodb.NewFromConfig(cfg),
		S3:       s3.NewFromConfig(cfg),
		Cache:    elasticache.NewFromConfig(cfg),
	}, nil
}
