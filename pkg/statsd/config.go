package statsd

// Config represents configuration options for statsd reporter.
type Config struct {
	Enabled             bool    `yaml:"enabled" mapstructure:"enabled" default:"false"`
	Address             string  `yaml:"address" mapstructure:"address" default:"127.0.0.1:8125"`
	Prefix              string  `yaml:"prefix" mapstructure:"prefix" default:"vfsearch"`
	SamplingRate        float64 `yaml:"sampling_rate" mapstructure:"sampling_rate" default:"1"`
	Separator           string  `yaml:"separator" mapstructure:"separator" default:"."`
	WithInfluxTagFormat bool    `yaml:"with_influx_tag_format" mapstructure:"with_influx_tag_format" default:"true"`
}
