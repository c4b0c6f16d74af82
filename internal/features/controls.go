package features

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

// Control describes one bounded input of the observation form.
type Control struct {
	Name    string  `json:"name"`
	Label   string  `json:"label"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Default float64 `json:"default"`
	Step    float64 `json:"step"`
}

// Controls lists the form inputs in display order. Bounds mirror the validate
// tags on RawObservation.
var Controls = []Control{
	{Name: "fixed_acidity", Label: "Fixed Acidity (g/dm³)", Min: 4.0, Max: 16.0, Default: 7.4, Step: 0.01},
	{Name: "volatile_acidity", Label: "Volatile Acidity (g/dm³)", Min: 0.1, Max: 1.6, Default: 0.7, Step: 0.01},
	{Name: "citric_acid", Label: "Citric Acid (g/dm³)", Min: 0.0, Max: 1.0, Default: 0.0, Step: 0.01},
	{Name: "chlorides", Label: "Chlorides (g/dm³)", Min: 0.01, Max: 0.62, Default: 0.076, Step: 0.001},
	{Name: "free_sulfur_dioxide", Label: "Free Sulfur Dioxide (mg/dm³)", Min: 1, Max: 72, Default: 11, Step: 1},
	{Name: "total_sulfur_dioxide", Label: "Total Sulfur Dioxide (mg/dm³)", Min: 6, Max: 289, Default: 34, Step: 1},
	{Name: "density", Label: "Density (g/cm³)", Min: 0.990, Max: 1.004, Default: 0.997, Step: 0.0001},
	{Name: "sulphates", Label: "Sulphates (g/dm³)", Min: 0.3, Max: 2.0, Default: 0.56, Step: 0.01},
	{Name: "alcohol", Label: "Alcohol (% vol.)", Min: 8.0, Max: 15.0, Default: 9.4, Step: 0.1},
}

// DefaultObservation is the observation the form starts with.
func DefaultObservation() RawObservation {
	return RawObservation{
		FixedAcidity:       7.4,
		VolatileAcidity:    0.7,
		CitricAcid:         0.0,
		Chlorides:          0.076,
		FreeSulfurDioxide:  11,
		TotalSulfurDioxide: 34,
		Density:            0.997,
		Sulphates:          0.56,
		Alcohol:            9.4,
	}
}

// ValidationError carries one message per out-of-bounds field, keyed by column name.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, e.Fields[k])
	}
	return "invalid observation: " + strings.Join(parts, "; ")
}

type validatorSvc struct {
	validate   *validator.Validate
	translator ut.Translator
}

var (
	vOnce sync.Once
	vSvc  *validatorSvc
)

func getValidator() *validatorSvc {
	vOnce.Do(func() {
		enLoc := en.New()
		uni := ut.New(enLoc, enLoc)
		trans, _ := uni.GetTranslator("en")

		v := validator.New(validator.WithRequiredStructEnabled())

		// messages use column names, not Go field names
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			tag := fld.Tag.Get("json")
			if idx := strings.Index(tag, ","); idx >= 0 {
				tag = tag[:idx]
			}
			if tag == "" || tag == "-" {
				return fld.Name
			}
			return tag
		})
		_ = en_translations.RegisterDefaultTranslations(v, trans)

		vSvc = &validatorSvc{validate: v, translator: trans}
	})
	return vSvc
}

// Validate checks every measurement against its control bounds.
func (raw RawObservation) Validate() error {
	svc := getValidator()
	err := svc.validate.Struct(raw)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate observation: %w", err)
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fe.Translate(svc.translator)
	}
	return &ValidationError{Fields: fields}
}

// ControlByName returns the control for a raw column.
func ControlByName(name string) (Control, bool) {
	for _, c := range Controls {
		if c.Name == name {
			return c, true
		}
	}
	return Control{}, false
}
