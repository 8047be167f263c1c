package services

import (
	"context"
	"crypto/subtle"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/rs/zerolog/log"

	"github.com/rpupo63/portfolio-projects-backend/config"
	"github.com/rpupo63/portfolio-projects-backend/errs"
)

// CredentialChecker decides whether a submitted admin password is accepted.
// Check returns nil on success and an "Incorrect password" error otherwise.
type CredentialChecker interface {
	Check(ctx context.Context, password string) error
}

// StaticSecret compares against a single shared secret. An empty secret
// accepts nothing.
type StaticSecret struct {
	secret string
}

func NewStaticSecret(secret string) StaticSecret {
	return StaticSecret{secret: secret}
}

func (s StaticSecret) Check(_ context.Context, password string) error {
	if s.secret == "" || subtle.ConstantTimeCompare([]byte(s.secret), []byte(password)) != 1 {
		return errs.NewIncorrectPasswordError()
	}
	return nil
}

// SSMClient is the part of the SSM API used to read the admin secret.
type SSMClient interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// LoadSecretFromSSM reads a (possibly encrypted) parameter value.
func LoadSecretFromSSM(ctx context.Context, client SSMClient, name string) (string, error) {
	out, err := client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(name),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return "", errs.NewConfigError(name, err)
	}
	if out.Parameter == nil || out.Parameter.Value == nil {
		return "", errs.NewConfigError(name, nil)
	}
	return *out.Parameter.Value, nil
}

// NewCredentialChecker uses ADMIN_PASSWORD_SSM_PARAM when set and falls back
// to ADMIN_PASSWORD otherwise.
func NewCredentialChecker(ctx context.Context, cfg map[string]string) (CredentialChecker, error) {
	param := config.GetString(cfg, "ADMIN_PASSWORD_SSM_PARAM", "")
	if param == "" {
		secret := config.GetString(cfg, "ADMIN_PASSWORD", "")
		if secret == "" {
			log.Warn().Msg("ADMIN_PASSWORD is not set; every admin check will fail")
		}
		return NewStaticSecret(secret), nil
	}

	acfg, err := LoadAWSConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	secret, err := LoadSecretFromSSM(ctx, ssm.NewFromConfig(acfg), param)
	if err != nil {
		return nil, err
	}
	log.Info().Str("parameter", param).Msg("Admin secret loaded from SSM")
	return NewStaticSecret(secret), nil
}
