package pipeline

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/gnolang/ruslic/internal/synth"
	"github.com/gnolang/ruslic/internal/translate"
)

// DefaultConfigFile is the configuration file looked up when none is given.
const DefaultConfigFile = ".ruslic.yaml"

// SynthesizerConfig locates the synthesizer.
type SynthesizerConfig struct {
	Command string   `yaml:"command"`
	Args    []string `yaml:"args"`
	Dir     string   `yaml:"dir"`
}

// Config represents the overall configuration of a synthesis run.
type Config struct {
	Name        string            `yaml:"name"`
	Synthesizer SynthesizerConfig `yaml:"synthesizer"`
	// Timeout bounds a single synthesizer run.
	Timeout   time.Duration `yaml:"timeout"`
	Solutions int           `yaml:"solutions"`
	Threads   int           `yaml:"threads"`

	translate.Options `yaml:",inline"`

	FailOnUnsynth bool `yaml:"fail_on_unsynth"`
	SubstResult   bool `yaml:"subst_result"`
	OutputTrace   bool `yaml:"output_trace"`
	// PrintSlnAbove hides solutions with this many lines or fewer.
	PrintSlnAbove int `yaml:"print_sln_above"`
	// CacheDir enables the result cache when set.
	CacheDir string `yaml:"cache_dir"`
}

func DefaultConfig() Config {
	sc := synth.DefaultConfig()
	return Config{
		Name: "ruslic",
		Synthesizer: SynthesizerConfig{
			Command: sc.Command,
			Args:    sc.Args,
			Dir:     sc.Dir,
		},
		Timeout:   sc.Timeout,
		Solutions: sc.Solutions,
		Threads:   min(8, runtime.NumCPU()),
	}
}

// LoadConfig reads path over the defaults. A missing file is not an error
// when path is the default file name.
func LoadConfig(path string) (Config, error) {
	config := DefaultConfig()
	if path == "" {
		path = DefaultConfigFile
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) && path == DefaultConfigFile {
			return config, nil
		}
		return config, err
	}
	defer f.Close()

	decoder := yaml.NewDecoder(f)
	decoder.KnownFields(true)
	if err := decoder.Decode(&config); err != nil {
		return config, fmt.Errorf("parsing %s: %w", path, err)
	}
	return config, config.Validate()
}

// WriteConfig writes the default configuration to path.
func WriteConfig(path string) error {
	if path == "" {
		path = DefaultConfigFile
	}
	d, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return err
	}
	return os.WriteFile(path, d, 0o644)
}

func (c Config) Validate() error {
	switch {
	case c.Synthesizer.Command == "":
		return fmt.Errorf("synthesizer.command must be set")
	case c.Timeout < 0:
		return fmt.Errorf("timeout must not be negative")
	case c.Solutions < 1:
		return fmt.Errorf("solutions must be at least 1, got %d", c.Solutions)
	case c.Threads < 1:
		return fmt.Errorf("threads must be at least 1, got %d", c.Threads)
	case c.PrintSlnAbove < 0:
		return fmt.Errorf("print_sln_above must not be negative")
	}
	return nil
}

// envOverrides maps environment variables to the fields they set.
var envOverrides = []struct {
	name string
	set  func(c *Config, v string) error
}{
	{"SUSLIK_DIR", func(c *Config, v string) error { c.Synthesizer.Dir = v; return nil }},
	{"RUSLIC_TIMEOUT", func(c *Config, v string) error {
		ms, err := strconv.ParseUint(v, 10, 64)
		c.Timeout = time.Duration(ms) * time.Millisecond
		return err
	}},
	{"RUSLIC_THREAD_COUNT", func(c *Config, v string) (err error) { c.Threads, err = strconv.Atoi(v); return }},
	{"RUSLIC_USE_FULL_NAMES", boolEnv(func(c *Config) *bool { return &c.UseFullNames })},
	{"RUSLIC_OPTIMISTICALLY_ALLOW_PRIVATE_TYPES", boolEnv(func(c *Config) *bool { return &c.AllowPrivateTypes })},
	{"RUSLIC_FAIL_ON_UNSYNTH", boolEnv(func(c *Config) *bool { return &c.FailOnUnsynth })},
	{"RUSLIC_SUBST_RESULT", boolEnv(func(c *Config) *bool { return &c.SubstResult })},
	{"RUSLIC_OUTPUT_TRACE", boolEnv(func(c *Config) *bool { return &c.OutputTrace })},
	{"RUSLIC_PRINT_SLN_ABOVE", func(c *Config, v string) (err error) { c.PrintSlnAbove, err = strconv.Atoi(v); return }},
}

func boolEnv(field func(*Config) *bool) func(*Config, string) error {
	return func(c *Config, v string) (err error) {
		*field(c), err = strconv.ParseBool(v)
		return
	}
}

// ApplyEnv overrides fields from RUSLIC_* variables, as used by scripted
// evaluation runs. lookup is usually os.LookupEnv.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	for _, o := range envOverrides {
		v, ok := lookup(o.name)
		if !ok {
			continue
		}
		if err := o.set(c, v); err != nil {
			return fmt.Errorf("%s=%q: %w", o.name, v, err)
		}
	}
	return c.Validate()
}

// SynthConfig is the synthesizer driver's view of c.
func (c Config) SynthConfig() synth.Config {
	return synth.Config{
		Command:       c.Synthesizer.Command,
		Args:          c.Synthesizer.Args,
		Dir:           c.Synthesizer.Dir,
		Timeout:       c.Timeout,
		Solutions:     c.Solutions,
		FailOnUnsynth: c.FailOnUnsynth,
		OutputTrace:   c.OutputTrace,
	}
}
