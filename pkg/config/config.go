package config

import (
	"io/ioutil"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"

	"github.com/alphagov/paas-observability-release/src/hostname-spy/pkg/spy"
)

const (
	defaultPrometheusListenPort = 9276
	defaultInterval             = 60 * time.Second
)

type Config struct {
	Service      string `yaml:"service" validate:"required"`
	MetricName   string `yaml:"metric_name" validate:"required"`
	Policy       string `yaml:"policy" validate:"oneof=dedup pass-through"`
	StartEnabled bool   `yaml:"start_enabled"`

	Nameserver string        `yaml:"nameserver" validate:"omitempty,hostname_port"`
	DNSTimeout time.Duration `yaml:"dns_timeout" validate:"min=0"`

	PrometheusListenPort uint `yaml:"prometheus_listen_port" validate:"min=1,max=65535"`

	URLs     []string      `yaml:"urls" validate:"dive,url"`
	Interval time.Duration `yaml:"interval" validate:"min=1s"`
}

func Default() Config {
	return Config{
		MetricName:   spy.DefaultMetricName,
		Policy:       string(spy.PolicyDedup),
		StartEnabled: true,

		PrometheusListenPort: defaultPrometheusListenPort,

		URLs:     make([]string, 0),
		Interval: defaultInterval,
	}
}

// Load reads a YAML file over the defaults.
func Load(path string) (Config, error) {
	c := Default()

	contents, err := ioutil.ReadFile(path)
	if err != nil {
		return c, errors.Wrapf(err, "reading config file %s", path)
	}

	if err := yaml.UnmarshalStrict(contents, &c); err != nil {
		return c, errors.Wrapf(err, "parsing config file %s", path)
	}

	return c, nil
}

func (c Config) Validate() error {
	err := validator.New().Struct(c)
	if err == nil {
		return nil
	}

	if fieldErrors, ok := err.(validator.ValidationErrors); ok && len(fieldErrors) > 0 {
		first := fieldErrors[0]
		return errors.Errorf(
			"config invalid: %s failed the %q check", first.Namespace(), first.Tag(),
		)
	}

	return errors.Wrap(err, "config invalid")
}

func (c Config) SpyOptions() ([]spy.Option, error) {
	policy, err := spy.ParsePolicy(c.Policy)
	if err != nil {
		return nil, err
	}

	return []spy.Option{
		spy.WithMetricName(c.MetricName),
		spy.WithPolicy(policy),
		spy.WithStartEnabled(c.StartEnabled),
	}, nil
}
