package services

import (
	"time"

	"github.com/gojek/heimdall/v7"
	"github.com/gojek/heimdall/v7/httpclient"
)

type ServiceHTTP struct{}

func (service *ServiceHTTP) httpClient(retries int) *httpclient.Client {
	opts := []httpclient.Option{
		httpclient.WithHTTPTimeout(10 * time.Second),
	}

	if retries > 0 {
		backoff := heimdall.NewExponentialBackoff(1*time.Second, 30*time.Second, 2, 100*time.Millisecond)
		opts = append(opts,
			httpclient.WithRetrier(heimdall.NewRetrier(backoff)),
			httpclient.WithRetryCount(retries),
		)
	}

	return httpclient.NewClient(opts...)
}
