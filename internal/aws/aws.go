package aws

import (
	"context"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/pkg/errors"
)

const serviceAccountTokenPath = "/var/run/secrets/kubernetes.io/serviceaccount/token"

type LoadOptions struct {
	// Region overrides the region from the environment or shared config when set.
	Region string
	// Profile selects the shared config profile. Ignored inside Kubernetes, where
	// credentials come from the pod's service account.
	Profile string
}

func LoadAWSConfig(ctx context.Context, opts LoadOptions) (aws.Config, error) {
	var options []func(*config.LoadOptions) error

	if !isInKubernetes() {
		options = append(options, config.WithSharedConfigProfile(profileOrDefault(opts.Profile)))
	}
	if opts.Region != "" {
		options = append(options, config.WithRegion(opts.Region))
	}

	cfg, err := config.LoadDefaultConfig(ctx, options...)
	if err != nil {
		return aws.Config{}, errors.Wrap(err, "failed to load AWS config")
	}
	return cfg, nil
}

func isInKubernetes() bool {
	_, err := os.Stat(serviceAccountTokenPath)
	return err == nil
}

func profileOrDefault(profile string) string {
	if profile != "" {
		return profile
	}
	if env := os.Getenv("AWS_PROFILE"); env != "" {
		return env
	}
	return "default"
}

// CallerIdentity returns the ARN of the principal the config resolves to. The CLI prints it
// before KMS operations so operators can tell which account a key lives in.
func CallerIdentity(ctx context.Context, cfg aws.Config) (string, error) {
	out, err := sts.NewFromConfig(cfg).GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return "", errors.Wrap(err, "failed to get caller identity")
	}
	return aws.ToString(out.Arn), nil
}
