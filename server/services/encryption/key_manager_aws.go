package encryption

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/kms"
	"github.com/aws/aws-sdk-go/service/kms/kmsiface"
	"github.com/pkg/errors"

	"github.com/devboard/devboard/common/logger"
)

// awsKeySpec produces 32 byte data keys
const awsKeySpec = "AES_256"

type AWSKeyManagerConfig struct {
	Region          string
	MasterKeyID     string
	AccessKeyID     string
	SecretAccessKey string
}

// AWSKeyManager wraps data keys using an Amazon KMS master key.
type AWSKeyManager struct {
	kms    kmsiface.KMSAPI
	config AWSKeyManagerConfig
	log    logger.Log
}

func NewAWSKeyManager(config AWSKeyManagerConfig, logFactory logger.LogFactory) (*AWSKeyManager, error) {
	if config.MasterKeyID == "" {
		return nil, fmt.Errorf("MasterKeyID must be specified")
	}
	log := logFactory("AWSKMSKeyManager")
	cfg := &aws.Config{}
	if config.Region != "" {
		cfg = cfg.WithRegion(config.Region)
	}
	if config.AccessKeyID != "" && config.SecretAccessKey != "" {
		log.Infof("Using static AWS credentials: %s", config.AccessKeyID)
		cfg = cfg.WithCredentials(credentials.NewStaticCredentials(config.AccessKeyID, config.SecretAccessKey, ""))
	}
	sess, err := session.NewSession(cfg)
	if err != nil {
		return nil, fmt.Errorf("error creating AWS session: %w", err)
	}
	return newAWSKeyManager(kms.New(sess), config, log), nil
}

func newAWSKeyManager(api kmsiface.KMSAPI, config AWSKeyManagerConfig, log logger.Log) *AWSKeyManager {
	return &AWSKeyManager{kms: api, config: config, log: log.WithField("master_key_id", config.MasterKeyID)}
}

func (a *AWSKeyManager) GenerateDataKey(ctx context.Context) (*[32]byte, []byte, error) {
	result, err := a.kms.GenerateDataKeyWithContext(ctx, &kms.GenerateDataKeyInput{
		KeyId:   aws.String(a.config.MasterKeyID),
		KeySpec: aws.String(awsKeySpec),
	})
	if err != nil {
		return nil, nil, errors.Wrap(err, "error generating data key")
	}
	dataKey, err := toDataKey(result.Plaintext)
	if err != nil {
		return nil, nil, err
	}
	a.log.Debug("Generated data key")
	return dataKey, result.CiphertextBlob, nil
}

func (a *AWSKeyManager) DecryptDataKey(ctx context.Context, dataKeyEncrypted []byte) (*[32]byte, error) {
	result, err := a.kms.DecryptWithContext(ctx, &kms.DecryptInput{
		KeyId:          aws.String(a.config.MasterKeyID),
		CiphertextBlob: dataKeyEncrypted,
	})
	if err != nil {
		return nil, errors.Wrap(err, "error decrypting data key")
	}
	return toDataKey(result.Plaintext)
}

func toDataKey(plaintext []byte) (*[32]byte, error) {
	if len(plaintext) != 32 {
		return nil, fmt.Errorf("error plain text data key is %d bytes, expected 32", len(plaintext))
	}
	var dataKey [32]byte
	copy(dataKey[:], plaintext)
	return &dataKey, nil
}
