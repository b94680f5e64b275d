package params

import "os"

type InfluxExportConfig struct {
	ServerURL string `mapstructure:"url"`
	Token     string `mapstructure:"token"`
	Org       string `mapstructure:"org"`
	Bucket    string `mapstructure:"bucket"`
	BatchSize uint   `mapstructure:"batch_size"`
}

// DefaultInfluxExportConfig reads the server, token, org and bucket from the
// INFLUXDB_* environment, as the influx CLI does.
func DefaultInfluxExportConfig() *InfluxExportConfig {
	return &InfluxExportConfig{
		ServerURL: os.Getenv("INFLUXDB_URL"),
		Token:     os.Getenv("INFLUXDB_TOKEN"),
		Org:       os.Getenv("INFLUXDB_ORG"),
		Bucket:    os.Getenv("INFLUXDB_BUCKET"),
		BatchSize: 1000,
	}
}

func (c *InfluxExportConfig) Enabled() bool {
	return c != nil && c.ServerURL != "" && c.Bucket != ""
}
