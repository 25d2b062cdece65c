package photom

import(
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

/* Example config file ...

band: R
imagetype: LIGHT
thresholdfrac: 0.2
catalogdb: catalog.db
outputprefix: ngc4565

isophote:
  seedsma: 3
  smastep: 1.1
  samples: 64
  maxiters: 30
  harmonictol: 0.05
  maxconsecfail: 4

*/

type Config struct {
	Band          string     `yaml:"band"`
	ImageType     string     `yaml:"imagetype"`
	ThresholdFrac float64    `yaml:"thresholdfrac"`
	Isophote      FitOptions `yaml:"isophote"`

	CatalogDB     string     `yaml:"catalogdb"`
	OutputPrefix  string     `yaml:"outputprefix"`
}

func NewConfig() Config {
	return Config{
		ImageType:     "LIGHT",
		ThresholdFrac: DefaultThresholdFrac,
		Isophote:      DefaultFitOptions(),
		CatalogDB:     "catalog.db",
		OutputPrefix:  "galprof",
	}
}

func LoadConfig(filename string) (Config, error) {
	c := NewConfig()

	contents, err := os.ReadFile(filename)
	if err != nil {
		return c, fmt.Errorf("config read '%s': %v", filename, err)
	}
	if err := yaml.Unmarshal(contents, &c); err != nil {
		return c, fmt.Errorf("config parse '%s': %v", filename, err)
	}

	return c, c.Finalize()
}

// Finalize does sanity checks and fills in anything left at zero.
func (c *Config)Finalize() error {
	if c.ThresholdFrac <= 0 {
		return fmt.Errorf("thresholdfrac must be > 0, got %f", c.ThresholdFrac)
	}
	if c.Isophote.SmaStep != 0 && c.Isophote.SmaStep <= 1.0 {
		return fmt.Errorf("isophote smastep must be > 1, got %f", c.Isophote.SmaStep)
	}
	if c.Isophote.SeedSma < 0 || c.Isophote.MaxSma < 0 {
		return fmt.Errorf("isophote sma bounds must not be negative")
	}

	c.Isophote = c.Isophote.withDefaults()
	return nil
}

func (c Config)AsYaml() string {
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Sprintf("# marshal failed: %v", err)
	}
	return string(b)
}
