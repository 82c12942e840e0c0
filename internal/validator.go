package internal

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"payfast/services"
)

const (
	validatePath  = "/eng/query/validate"
	validResponse = "VALID"
	// the gateway answers with a single word; anything longer is not read
	maxValidateResponse = 4096
)

// GatewayValidator posts notification data back to the gateway's validate
// endpoint and checks that the gateway recognizes it.
type GatewayValidator struct {
	productionUrl string
	sandboxUrl    string
	timeout       time.Duration
	httpClient    *http.Client
	logger        services.LogHandler
}

func NewGatewayValidator(productionUrl, sandboxUrl string, timeout time.Duration) *GatewayValidator {
	return &GatewayValidator{
		productionUrl: strings.TrimRight(productionUrl, "/"),
		sandboxUrl:    strings.TrimRight(sandboxUrl, "/"),
		timeout:       timeout,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

func (v *GatewayValidator) SetLogger(logger services.LogHandler) {
	v.logger = logger
}

func (v *GatewayValidator) SetHttpClient(client *http.Client) {
	v.httpClient = client
}

// Validate returns true only when the gateway answers 2xx with a body that
// starts with VALID. Transport errors and timeouts are returned as errors.
func (v *GatewayValidator) Validate(ctx context.Context, sandbox bool, data url.Values) (bool, error) {
	site := v.productionUrl
	if sandbox {
		site = v.sandboxUrl
	}
	site += validatePath

	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, site, strings.NewReader(data.Encode()))
	if err != nil {
		return false, fmt.Errorf("create http request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	response, err := v.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return false, fmt.Errorf("validate request timeout or cancelled: %w", ctx.Err())
		}
		return false, fmt.Errorf("post validate request: %w", err)
	}
	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil && v.logger != nil {
			v.logger.Error("close validate response body", err)
		}
	}(response.Body)

	if response.StatusCode < 200 || response.StatusCode > 299 {
		return false, fmt.Errorf("validate response status %d", response.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(response.Body, maxValidateResponse))
	if err != nil {
		return false, fmt.Errorf("read validate response: %w", err)
	}
	if v.logger != nil {
		v.logger.Debug(fmt.Sprintf("validate response: %s", strings.TrimSpace(string(body))))
	}

	return strings.HasPrefix(string(body), validResponse), nil
}
