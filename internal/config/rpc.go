package config

import (
	"errors"
	"net/url"
	"os"
	"time"

	"github.com/andrew-solarstorm/go-packages/common"
)

type RPCConfig struct {
	RPCUrl string
	// RPCApiKey is optional; providers that gate by key read it from the
	// api-key query parameter.
	RPCApiKey string
	// Timeout bounds every chain read issued while planning a request.
	Timeout time.Duration
}

func (r *RPCConfig) Key() string {
	return RPC_CONFIG_KEY
}

func (r *RPCConfig) Load() error {
	r.RPCUrl = os.Getenv("RPC_URL")
	r.RPCApiKey = os.Getenv("RPC_KEY")
	r.Timeout = time.Duration(common.GetEnvOrDefaultInt("RPC_TIMEOUT", 10)) * time.Second
	return nil
}

func (r *RPCConfig) Validate() error {
	if r.RPCUrl == "" {
		return errors.New("invalid rpc config: RPC_URL is required")
	}
	if _, err := r.endpoint(); err != nil {
		return err
	}
	if r.Timeout <= 0 {
		return errors.New("invalid rpc timeout")
	}
	return nil
}

// Endpoint is the JSON-RPC URL with the api key applied. Call after Validate.
func (r *RPCConfig) Endpoint() string {
	u, err := r.endpoint()
	if err != nil {
		return r.RPCUrl
	}
	return u
}

func (r *RPCConfig) endpoint() (string, error) {
	u, err := url.Parse(r.RPCUrl)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", errors.New("invalid rpc config: RPC_URL must be an absolute URL")
	}
	if r.RPCApiKey == "" {
		return u.String(), nil
	}
	q := u.Query()
	q.Set("api-key", r.RPCApiKey)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
