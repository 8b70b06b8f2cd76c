package search

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translation "github.com/go-playground/validator/v10/translations/en"
)

const (
	StrategyFieldWeighting = "field_weighting"
	StrategyBooleanTree    = "boolean_tree"

	DefaultRowCap    = 1000
	DefaultBatchSize = 20
)

// IndexConfig is the per index configuration consumed by the search
// pipeline and the index writer.
type IndexConfig struct {
	Name string `yaml:"name" mapstructure:"name" default:"vfsearch" validate:"required"`

	// QueryStrategy is one of field_weighting or boolean_tree.
	QueryStrategy string `yaml:"query_strategy" mapstructure:"query_strategy" default:"field_weighting" validate:"oneof=field_weighting boolean_tree"`

	// EnginePaging asks the engine for the requested page only. Otherwise
	// up to RowCap hits are fetched and windowed after permission checks.
	EnginePaging bool `yaml:"engine_paging" mapstructure:"engine_paging" default:"false"`
	RowCap       int  `yaml:"row_cap" mapstructure:"row_cap" default:"1000" validate:"gt=0"`

	EmitFieldWeights bool `yaml:"emit_field_weights" mapstructure:"emit_field_weights" default:"true"`

	// AvailabilityInEngine pushes release and expiration filters to the
	// engine. Otherwise they are left to the permission check.
	AvailabilityInEngine bool `yaml:"availability_in_engine" mapstructure:"availability_in_engine" default:"false"`
	CheckPermissions     bool `yaml:"check_permissions" mapstructure:"check_permissions" default:"true"`
	Highlight            bool `yaml:"highlight" mapstructure:"highlight" default:"true"`

	BatchSize int `yaml:"batch_size" mapstructure:"batch_size" default:"20" validate:"gt=0"`

	// DerivedFields are never copied back when a document is updated, in
	// addition to the score and copy fields.
	DerivedFields []string `yaml:"derived_fields" mapstructure:"derived_fields"`
}

// DefaultIndexConfig returns the configuration used when an index does
// not override anything.
func DefaultIndexConfig(name string) IndexConfig {
	return IndexConfig{
		Name:             name,
		QueryStrategy:    StrategyFieldWeighting,
		RowCap:           DefaultRowCap,
		EmitFieldWeights: true,
		CheckPermissions: true,
		Highlight:        true,
		BatchSize:        DefaultBatchSize,
	}
}

var (
	validate   = validator.New()
	translator ut.Translator
)

func init() {
	translator, _ = ut.New(en.New(), en.New()).GetTranslator("en")
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	if err := en_translation.RegisterDefaultTranslations(validate, translator); err != nil {
		panic(err)
	}
}

// Validate checks the configuration. An empty strategy is accepted and
// means field_weighting.
func (c IndexConfig) Validate() error {
	if c.QueryStrategy == "" {
		c.QueryStrategy = StrategyFieldWeighting
	}
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, err)
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, fe.Translate(translator))
	}
	return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(msgs, "; "))
}

// PagingMode returns the retrieval discipline configured for the index.
func (c IndexConfig) PagingMode() PagingMode {
	if c.EnginePaging {
		return EnginePaging
	}
	return ClientPaging
}
