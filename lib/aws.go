package lib

import (
	"context"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
)

var sess *aws.Config
var sessLock sync.Mutex
var sessRegional = make(map[string]*aws.Config)

func Session() *aws.Config {
	sessLock.Lock()
	defer sessLock.Unlock()
	if sess == nil {
		cfg, err := config.LoadDefaultConfig(context.Background(),
			config.WithRetryMaxAttempts(5),
		)
		if err != nil {
			panic(err)
		}
		sess = &cfg
	}
	return sess
}

func SessionRegion(region string) (*aws.Config, error) {
	sessLock.Lock()
	defer sessLock.Unlock()
	cfg, ok := sessRegional[region]
	if !ok {
		c, err := config.LoadDefaultConfig(context.Background(),
			config.WithRegion(region),
			config.WithRetryMaxAttempts(5),
		)
		if err != nil {
			return nil, err
		}
		cfg = &c
		sessRegional[region] = cfg
	}
	return cfg, nil
}

func Region() string {
	return Session().Region
}
