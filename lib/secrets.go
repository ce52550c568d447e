package lib

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/sethvargo/go-password/password"
)

var secretsClient *secretsmanager.Client
var secretsClientLock sync.Mutex

func SecretsManagerClient() *secretsmanager.Client {
	secretsClientLock.Lock()
	defer secretsClientLock.Unlock()
	if secretsClient == nil {
		secretsClient = secretsmanager.NewFromConfig(*Session())
	}
	return secretsClient
}

const SecretsKind = "secrets"

const (
	SecretsOutputSecretArn  = "SecretArn"
	SecretsOutputSecretName = "SecretName"
)

const (
	dbPasswordLength  = 32
	dbPasswordDigits  = 8
	dbPasswordSymbols = 0 // aurora rejects several symbol characters, stick to alphanumerics
)

// SecretsDescriptor resolves the database credentials stack. The master
// password is generated locally on first deploy and pinned to its previous
// value on every later reconcile, so updates never rotate it.
func SecretsDescriptor(ctx context.Context, conf *EnvConfig) (*StackDescriptor, error) {
	name := StackName(conf, SecretsKind)
	passwordParam := StackParam{Key: "DbPassword", UsePrevious: true}
	state, _, err := CFStackStatus(ctx, name)
	if err != nil {
		Logger.Println("error:", err)
		return nil, err
	}
	if state == StackStateAbsent {
		generated, err := password.Generate(dbPasswordLength, dbPasswordDigits, dbPasswordSymbols, false, false)
		if err != nil {
			Logger.Println("error:", err)
			return nil, err
		}
		passwordParam = StackParam{Key: "DbPassword", Value: generated}
	}
	d := &StackDescriptor{
		Name:         name,
		Env:          conf.Env,
		TemplatePath: TemplatePath(SecretsKind),
		Params: []StackParam{
			{Key: "EnvironmentName", Value: conf.Env},
			{Key: "ProjectName", Value: conf.Project},
			{Key: "DbUsername", Value: conf.Secrets.DbUsername},
			passwordParam,
		},
		Tags: baseTags(conf),
	}
	err = d.validateParams()
	if err != nil {
		Logger.Println("error:", err)
		return nil, err
	}
	return d, nil
}

type DbCredentials struct {
	Host     string      `json:"host"`
	Port     json.Number `json:"port"`
	DbName   string      `json:"dbname"`
	Username string      `json:"username"`
	Password string      `json:"password"`
}

// SecretDbCredentials reads the credentials secret. Callers that only need to
// verify the secret exists should use SecretKeys instead.
func SecretDbCredentials(ctx context.Context, secretArn string) (*DbCredentials, error) {
	out, err := SecretsManagerClient().GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: &secretArn,
	})
	if err != nil {
		Logger.Println("error:", err)
		return nil, err
	}
	creds := &DbCredentials{}
	err = json.Unmarshal([]byte(*out.SecretString), creds)
	if err != nil {
		Logger.Println("error:", err)
		return nil, err
	}
	if creds.Username == "" || creds.Password == "" {
		err := fmt.Errorf("secret missing username or password: %s", secretArn)
		Logger.Println("error:", err)
		return nil, err
	}
	return creds, nil
}

// SecretKeys lists the json keys of a secret without exposing any values.
func SecretKeys(ctx context.Context, secretArn string) ([]string, error) {
	out, err := SecretsManagerClient().GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: &secretArn,
	})
	if err != nil {
		Logger.Println("error:", err)
		return nil, err
	}
	var raw map[string]any
	err = json.Unmarshal([]byte(*out.SecretString), &raw)
	if err != nil {
		Logger.Println("error:", err)
		return nil, err
	}
	var keys []string
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}
