package services

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsCfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"

	"github.com/rpupo63/portfolio-projects-backend/config"
	"github.com/rpupo63/portfolio-projects-backend/errs"
)

// LoadAWSConfig resolves AWS settings from the default chain. Static keys in
// S3_ACCESS_KEY / S3_SECRET_KEY take precedence when both are set.
func LoadAWSConfig(ctx context.Context, cfg map[string]string) (aws.Config, error) {
	loadOpts := []func(*awsCfg.LoadOptions) error{
		awsCfg.WithRegion(config.GetString(cfg, "AWS_REGION", "us-east-1")),
	}

	accessKey := config.GetString(cfg, "S3_ACCESS_KEY", "")
	secretKey := config.GetString(cfg, "S3_SECRET_KEY", "")
	if accessKey != "" && secretKey != "" {
		loadOpts = append(loadOpts, awsCfg.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKey, secretKey, ""),
		))
	}

	acfg, err := awsCfg.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return aws.Config{}, errs.NewConfigError("AWS", err)
	}
	return acfg, nil
}
