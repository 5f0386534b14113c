package xshmem

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/srediag/xshmem/api"
)

type ConfigTestSuite struct {
	suite.Suite
	dir string
}

func (s *ConfigTestSuite) SetupTest() {
	s.dir = s.T().TempDir()
}

func (s *ConfigTestSuite) write(body string) string {
	path := filepath.Join(s.dir, "xshmem.yaml")
	s.Require().NoError(os.WriteFile(path, []byte(body), 0o600))
	return path
}

func (s *ConfigTestSuite) TestDefaults() {
	cfg := DefaultConfig()
	s.Empty(cfg.Library)
	s.Equal(api.EnvLibrary, cfg.EnvVar)
	s.True(cfg.Queue.InOrder)
	s.NoError(VerifyConfig(cfg))
}

func (s *ConfigTestSuite) TestLoad() {
	path := s.write(`
library: NVSHMEM
log_level: debug
retry:
  max_retries: 3
  interval: 250ms
queue:
  workers: 8
admin:
  addr: ":9464"
`)
	cfg, err := LoadConfig(path)
	s.Require().NoError(err)
	s.Equal("NVSHMEM", cfg.Library)
	s.Equal("debug", cfg.LogLevel)
	s.Equal(3, cfg.Retry.MaxRetries)
	s.Equal(250*time.Millisecond, cfg.Retry.Interval)
	s.Equal(8, cfg.Queue.Workers)
	s.True(cfg.Queue.InOrder)
	s.Equal(":9464", cfg.Admin.Addr)
	s.Equal(api.EnvLibrary, cfg.EnvVar)
}

func (s *ConfigTestSuite) TestLoadRejectsUnknownLibrary() {
	path := s.write("library: nvshmem\n")
	_, err := LoadConfig(path)
	s.ErrorIs(err, api.ErrUnsupportedLibrary)
}

func (s *ConfigTestSuite) TestLoadMissingFile() {
	_, err := LoadConfig(filepath.Join(s.dir, "absent.yaml"))
	s.ErrorIs(err, os.ErrNotExist)
}

func (s *ConfigTestSuite) TestVerifyCollectsAllProblems() {
	cfg := DefaultConfig()
	cfg.LogLevel = "loud"
	cfg.Retry.MaxRetries = 2
	cfg.Retry.Interval = 0
	cfg.Queue.Workers = -1

	err := VerifyConfig(cfg)
	s.Require().Error(err)
	s.Contains(err.Error(), "loud")
	s.Contains(err.Error(), "retry.interval")
	s.Contains(err.Error(), "queue.workers")
	s.Error(VerifyConfig(nil))
}

func TestConfigTestSuite(t *testing.T) {
	suite.Run(t, new(ConfigTestSuite))
}
