package spy

import (
	"reflect"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/prometheus/common/model"
)

const (
	DefaultMetricName = "outbound_host_resolutions_total"
)

type Policy string

const (
	// PolicyDedup publishes the first resolution of each hostname only,
	// until the spy is cleared.
	PolicyDedup Policy = "dedup"

	// PolicyPassThrough publishes every completed lookup.
	PolicyPassThrough Policy = "pass-through"
)

func ParsePolicy(value string) (Policy, error) {
	policy := Policy(value)
	if err := validate().Var(value, "oneof=dedup pass-through"); err != nil {
		return "", &ConfigurationError{Argument: "policy"}
	}
	return policy, nil
}

type arguments struct {
	Service    string `arg:"service" validate:"required,labelvalue"`
	MetricName string `arg:"metricName" validate:"required,metricname"`
	Policy     Policy `arg:"policy" validate:"oneof=dedup pass-through"`
}

var (
	validatorOnce sync.Once
	validatorInst *validator.Validate
)

func validate() *validator.Validate {
	validatorOnce.Do(func() {
		v := validator.New()

		v.RegisterTagNameFunc(func(field reflect.StructField) string {
			return field.Tag.Get("arg")
		})

		v.RegisterValidation("metricname", func(fl validator.FieldLevel) bool {
			return model.IsValidMetricName(model.LabelValue(fl.Field().String()))
		})

		v.RegisterValidation("labelvalue", func(fl validator.FieldLevel) bool {
			return model.LabelValue(fl.Field().String()).IsValid()
		})

		validatorInst = v
	})

	return validatorInst
}

// ValidateLabels checks the identifying label and metric name against the
// rules Prometheus applies to label values and metric names.
func ValidateLabels(service string, metricName string) error {
	return validateArguments(arguments{
		Service:    service,
		MetricName: metricName,
		Policy:     PolicyDedup,
	})
}

func validateArguments(args arguments) error {
	err := validate().Struct(args)
	if err == nil {
		return nil
	}

	fieldErrors, ok := err.(validator.ValidationErrors)
	if !ok || len(fieldErrors) == 0 {
		return err
	}

	first := fieldErrors[0]
	return &ConfigurationError{
		Argument: first.Field(),
		Missing:  first.Tag() == "required",
	}
}
