package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/filekeeper/internal/flagx"
)

// JsonConfig mirrors Config for unmarshalling. Pointer fields tell an absent
// key apart from a zero value, so a partial file only overrides what it names.
type JsonConfig struct {
	EndpointAddr  *string `json:"endpoint_addr"`
	DataDir       *string `json:"data_dir"`
	TmpDir        *string `json:"tmp_dir"`
	LogLevel      *string `json:"log_level"`
	MaxUploadSize *int64  `json:"max_upload_size"`
}

// parseJson overlays config with the JSON file named by -c or -config.
// Without either flag nothing is loaded. A file that cannot be read or
// parsed panics.
func parseJson(config *Config) {

	jsonConfigFile := flagx.JsonConfigFlags()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	err = json.Unmarshal(file, c)
	if err != nil {
		panic(err)
	}

	if c.EndpointAddr != nil {
		config.EndpointAddr = *c.EndpointAddr
	}
	if c.DataDir != nil {
		config.DataDir = *c.DataDir
	}
	if c.TmpDir != nil {
		config.TmpDir = *c.TmpDir
	}
	if c.LogLevel != nil {
		config.LogLevel = *c.LogLevel
	}
	if c.MaxUploadSize != nil {
		config.MaxUploadSize = *c.MaxUploadSize
	}
}
