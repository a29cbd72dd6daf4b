package cli

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/plan-player-analytics/Plan-sub022/internal/backup"
	"github.com/plan-player-analytics/Plan-sub022/internal/store"
)

// EnvDSN is consulted when neither the flag nor the config file sets a DSN.
const EnvDSN = "PLANDB_DSN"

// DefaultBackupDir is where snapshots go without S3 configuration.
const DefaultBackupDir = "backups"

// FileConfig is the YAML configuration file.
//
//	database:
//	  driver: pgx
//	  dsn: postgres://plan@localhost/plan
//	  connect_retries: 5
//	  connect_delay: 1s
//	backup:
//	  s3:
//	    bucket: plan-backups
//	    endpoint: http://localhost:9000
//	    path_style: true
//	workers: 4
//	retries: 3
type FileConfig struct {
	Database store.Config `yaml:"database"`
	Backup   BackupConfig `yaml:"backup"`
	Workers  int          `yaml:"workers"`
	Retries  int          `yaml:"retries"`
}

// BackupConfig selects the snapshot sink. S3 wins when set.
type BackupConfig struct {
	Dir string           `yaml:"dir"`
	S3  *backup.S3Config `yaml:"s3"`
}

// LoadConfig reads path. An empty path yields the zero config.
func LoadConfig(path string) (*FileConfig, error) {
	cfg := &FileConfig{}
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// resolve applies flag and environment overrides. Flags win over the
// environment, which wins over the file.
func (c *FileConfig) resolve(opts *RootOptions) {
	if opts.Driver != "" {
		c.Database.Driver = opts.Driver
	}
	switch {
	case opts.DSN != "":
		c.Database.DSN = opts.DSN
	case os.Getenv(EnvDSN) != "":
		c.Database.DSN = os.Getenv(EnvDSN)
	}
	if c.Database.Driver == "" {
		c.Database.Driver = store.DefaultDriver
	}
	if c.Backup.Dir == "" {
		c.Backup.Dir = DefaultBackupDir
	}
	if c.Workers < 1 {
		c.Workers = 1
	}
	if c.Retries < 1 {
		c.Retries = 1
	}
}
