package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	assert.Equal(t, "./data", config.DataDir)
	assert.Equal(t, "./model.yaml", config.SchemaFile)
	assert.Equal(t, 1, config.CodecVersion)
	assert.Equal(t, 8080, config.Port)
	assert.Equal(t, "127.0.0.1", config.Bind)
	assert.Equal(t, "info", config.Logging.Level)
	assert.Equal(t, "text", config.Logging.Format)
	assert.NoError(t, config.Validate())
}

func TestLoadConfig(t *testing.T) {
	t.Run("load existing config", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.yaml")
		expectedConfig := &Config{
			DataDir:      "/custom/data",
			SchemaFile:   "/custom/model.yaml",
			CodecVersion: 1,
			Port:         9000,
			Bind:         "0.0.0.0",
			APIKey:       "secret",
			Logging: Logging{
				Level:  "debug",
				Format: "json",
			},
		}

		err := SaveConfig(expectedConfig, configPath)
		require.NoError(t, err)

		loadedConfig, err := LoadConfig(configPath)
		require.NoError(t, err)
		assert.Equal(t, expectedConfig, loadedConfig)
	})

	t.Run("partial config keeps defaults", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(configPath, []byte("port: 9100\n"), 0600))

		loadedConfig, err := LoadConfig(configPath)
		require.NoError(t, err)
		assert.Equal(t, 9100, loadedConfig.Port)
		assert.Equal(t, "./data", loadedConfig.DataDir)
		assert.Equal(t, 1, loadedConfig.CodecVersion)
	})

	t.Run("load non-existent config", func(t *testing.T) {
		_, err := LoadConfig("/non/existent/config.yaml")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "config file does not exist")
	})

	t.Run("load invalid yaml", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "invalid.yaml")
		require.NoError(t, os.WriteFile(configPath, []byte("invalid: yaml: content: ["), 0600))

		_, err := LoadConfig(configPath)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to parse config file")
	})

	t.Run("load invalid values", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(configPath, []byte("logging:\n  level: loud\n"), 0600))

		_, err := LoadConfig(configPath)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "invalid log level")
	})
}

func TestSaveConfig(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	config := DefaultConfig()

	err := SaveConfig(config, configPath)
	require.NoError(t, err)

	info, err := os.Stat(configPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loadedConfig, err := LoadConfig(configPath)
	require.NoError(t, err)
	assert.Equal(t, config, loadedConfig)
}

func TestBootstrapConfig(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")

	config, err := BootstrapConfig(configPath, "/custom/data/dir", "")
	require.NoError(t, err)

	assert.Equal(t, "/custom/data/dir", config.DataDir)
	assert.Equal(t, "./model.yaml", config.SchemaFile)
	assert.Equal(t, 8080, config.Port)
	assert.True(t, ConfigExists(configPath))

	loadedConfig, err := LoadConfig(configPath)
	require.NoError(t, err)
	assert.Equal(t, config, loadedConfig)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"bad port", func(c *Config) { c.Port = 70000 }, "invalid port"},
		{"bad version", func(c *Config) { c.CodecVersion = 0 }, "invalid codec version"},
		{"bad level", func(c *Config) { c.Logging.Level = "verbose" }, "invalid log level"},
		{"bad format", func(c *Config) { c.Logging.Format = "xml" }, "unknown log format"},
		{"uppercase level", func(c *Config) { c.Logging.Level = "WARN" }, ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			config := DefaultConfig()
			tc.mutate(config)
			err := config.Validate()
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestLogging_NewLogger(t *testing.T) {
	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		logger, err := Logging{Level: "warn", Format: "json"}.NewLogger(&buf)
		require.NoError(t, err)

		logger.Info("hidden")
		logger.Warn("shown", "group", "grp.train")
		assert.NotContains(t, buf.String(), "hidden")
		assert.Contains(t, buf.String(), `"msg":"shown"`)
		assert.Contains(t, buf.String(), `"group":"grp.train"`)
	})

	t.Run("text", func(t *testing.T) {
		var buf bytes.Buffer
		logger, err := Logging{Level: "debug"}.NewLogger(&buf)
		require.NoError(t, err)

		logger.Debug("compiled", "group", "grp.train")
		assert.Contains(t, buf.String(), "msg=compiled")
		assert.Contains(t, buf.String(), "group=grp.train")
	})

	t.Run("unknown format", func(t *testing.T) {
		_, err := Logging{Format: "xml"}.NewLogger(&bytes.Buffer{})
		assert.Error(t, err)
	})
}

func TestGetDefaultConfigPath(t *testing.T) {
	path := GetDefaultConfigPath()
	assert.NotEmpty(t, path)
	assert.Contains(t, path, "attrdata")
	assert.Contains(t, path, "config.yaml")
}

func TestConfigExists(t *testing.T) {
	tmpDir := t.TempDir()
	existingPath := filepath.Join(tmpDir, "exists.yaml")
	nonExistentPath := filepath.Join(tmpDir, "does-not-exist.yaml")

	require.NoError(t, os.WriteFile(existingPath, []byte("test"), 0644))

	assert.True(t, ConfigExists(existingPath))
	assert.False(t, ConfigExists(nonExistentPath))
}

func TestConfigYAMLKeys(t *testing.T) {
	data, err := yaml.Marshal(DefaultConfig())
	require.NoError(t, err)

	for _, key := range []string{"data_dir:", "schema_file:", "codec_version:", "port:", "bind:", "api_key:", "logging:", "format:"} {
		assert.Contains(t, string(data), key)
	}
}

func TestSaveConfigErrorHandling(t *testing.T) {
	config := DefaultConfig()

	invalidPath := "/invalid/path/that/cannot/be/created/config.yaml"
	if os.Geteuid() == 0 {
		// root can create directories anywhere
		blocker := filepath.Join(t.TempDir(), "file")
		require.NoError(t, os.WriteFile(blocker, nil, 0600))
		invalidPath = filepath.Join(blocker, "sub", "config.yaml")
	}

	err := SaveConfig(config, invalidPath)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create config directory")
}
