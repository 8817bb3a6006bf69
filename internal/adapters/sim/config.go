package sim

import "fmt"

// Config bounds the generated daily data sets.
type Config struct {
	TempFloor       float64 `yaml:"temp_floor"`
	TempCeiling     float64 `yaml:"temp_ceiling"`
	HumidityFloor   float64 `yaml:"humidity_floor"`
	HumidityCeiling float64 `yaml:"humidity_ceiling"`
	PressureFloor   float64 `yaml:"pressure_floor"`
	PressureCeiling float64 `yaml:"pressure_ceiling"`
	Seed            int64   `yaml:"seed"`
}

func (c *Config) ApplyDefaults() {
	if c.TempFloor == 0 && c.TempCeiling == 0 {
		c.TempFloor, c.TempCeiling = 18, 22
	}
	if c.HumidityFloor == 0 && c.HumidityCeiling == 0 {
		c.HumidityFloor, c.HumidityCeiling = 35, 45
	}
	if c.PressureFloor == 0 && c.PressureCeiling == 0 {
		c.PressureFloor, c.PressureCeiling = 990, 1010
	}
}

func (c *Config) Validate() error {
	for _, r := range []struct {
		name           string
		floor, ceiling float64
	}{
		{"temp", c.TempFloor, c.TempCeiling},
		{"humidity", c.HumidityFloor, c.HumidityCeiling},
		{"pressure", c.PressureFloor, c.PressureCeiling},
	} {
		if r.floor >= r.ceiling {
			return fmt.Errorf("%s floor %.2f must be below ceiling %.2f", r.name, r.floor, r.ceiling)
		}
	}
	return nil
}
