/*
 Licensed under the Apache License, Version 2.0 (the "License");
 you may not use this file except in compliance with the License.
 You may obtain a copy of the License at

     https://www.apache.org/licenses/LICENSE-2.0

 Unless required by applicable law or agreed to in writing, software
 distributed under the License is distributed on an "AS IS" BASIS,
 WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 See the License for the specific language governing permissions and
 limitations under the License.
*/

package config

import (
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"sigs.k8s.io/yaml"

	"jinr.ru/greenlab/go-aadmac/pkg/aadmac"
)

type ControlConfig struct {
	IP   string `json:"ip"`
	Port int    `json:"port"`
}

// BlockConfig describes the register window of the AADMAC block
type BlockConfig struct {
	Name string `json:"name"`
	// Base is a hex string like 0x40000000
	Base            string `json:"base"`
	ReadyStatusMode string `json:"readyStatusMode,omitempty"`
}

// PortConfig selects how registers are accessed
type PortConfig struct {
	Kind       string `json:"kind"`
	DBPath     string `json:"dbPath,omitempty"`
	DevicePath string `json:"devicePath,omitempty"`
	DeviceIP   string `json:"deviceIP,omitempty"`
	DevicePort int    `json:"devicePort,omitempty"`
	Timeout    string `json:"timeout,omitempty"`
}

type Config struct {
	LogLevel string         `json:"logLevel,omitempty"`
	Control  *ControlConfig `json:"control,omitempty"`
	Block    *BlockConfig   `json:"block,omitempty"`
	Port     *PortConfig    `json:"port,omitempty"`
	filepath string
}

func (c *Config) Path() string {
	return c.filepath
}

func (c *Config) SetPath(path string) {
	c.filepath = path
}

func (c *Config) Persist(overwrite bool) error {
	if _, err := os.Stat(c.filepath); err == nil && !overwrite {
		return ErrConfigFileExists{Path: c.filepath}
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	dir := filepath.Dir(c.filepath)
	err = os.MkdirAll(dir, 0755)
	if err != nil {
		return err
	}

	return os.WriteFile(c.filepath, data, 0644)
}

func (c *Config) LoadConfig() error {
	data, err := os.ReadFile(c.filepath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, c)
}

// Load reads the config file at path on top of the defaults and validates the result
func Load(path string) (*Config, error) {
	c := NewDefaultConfig()
	if path != "" {
		c.filepath = path
	}
	if err := c.LoadConfig(); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) Validate() error {
	if c.Control == nil || c.Block == nil || c.Port == nil {
		return ErrInvalidConfig{Field: "control/block/port", What: "section is missing"}
	}
	if net.ParseIP(c.Control.IP) == nil {
		return ErrInvalidConfig{Field: "control.ip", What: c.Control.IP}
	}
	if c.Control.Port <= 0 || c.Control.Port > 65535 {
		return ErrInvalidConfig{Field: "control.port", What: strconv.Itoa(c.Control.Port)}
	}
	if c.Block.Name == "" {
		return ErrInvalidConfig{Field: "block.name", What: "empty"}
	}
	if _, err := c.BaseAddr(); err != nil {
		return ErrInvalidConfig{Field: "block.base", What: err.Error()}
	}
	if _, err := c.ReadyMode(); err != nil {
		return ErrInvalidConfig{Field: "block.readyStatusMode", What: err.Error()}
	}
	if _, err := c.Timeout(); err != nil {
		return ErrInvalidConfig{Field: "port.timeout", What: err.Error()}
	}
	switch c.Port.Kind {
	case PortKindMemory:
	case PortKindBolt:
		if c.Port.DBPath == "" {
			return ErrInvalidConfig{Field: "port.dbPath", What: "empty"}
		}
	case PortKindFile:
		if c.Port.DevicePath == "" {
			return ErrInvalidConfig{Field: "port.devicePath", What: "empty"}
		}
	case PortKindMLink:
		if net.ParseIP(c.Port.DeviceIP) == nil {
			return ErrInvalidConfig{Field: "port.deviceIP", What: c.Port.DeviceIP}
		}
	default:
		return ErrInvalidConfig{Field: "port.kind", What: c.Port.Kind}
	}
	return nil
}

// BaseAddr parses the block base address
func (c *Config) BaseAddr() (uint32, error) {
	base, err := strconv.ParseUint(strings.TrimPrefix(c.Block.Base, "0x"), 16, 32)
	if err != nil {
		return 0, err
	}
	return uint32(base), nil
}

func (c *Config) ReadyMode() (aadmac.ReadyStatusMode, error) {
	return aadmac.ParseReadyStatusMode(c.Block.ReadyStatusMode)
}

func (c *Config) Timeout() (time.Duration, error) {
	if c.Port.Timeout == "" {
		return DefaultTimeout, nil
	}
	return time.ParseDuration(c.Port.Timeout)
}

// DeviceAddr returns host:port of the MLink device
func (c *Config) DeviceAddr() string {
	port := c.Port.DevicePort
	if port == 0 {
		port = DefaultDevicePort
	}
	return net.JoinHostPort(c.Port.DeviceIP, strconv.Itoa(port))
}

func (c *Config) ControlAddr() string {
	return net.JoinHostPort(c.Control.IP, strconv.Itoa(c.Control.Port))
}

func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), ConfigFile)
}

func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = ""
	}
	return filepath.Join(home, ConfigDir)
}

func NewDefaultConfig() *Config {
	return &Config{
		LogLevel: DefaultLogLevel,
		Control: &ControlConfig{
			IP:   DefaultControlIP,
			Port: DefaultControlPort,
		},
		Block: &BlockConfig{
			Name:            DefaultBlockName,
			Base:            DefaultBlockBase,
			ReadyStatusMode: DefaultReadyMode,
		},
		Port: &PortConfig{
			Kind:       DefaultPortKind,
			DBPath:     filepath.Join(DefaultConfigDir(), DefaultDBFile),
			DevicePath: DefaultDevicePath,
			DeviceIP:   DefaultDeviceIP,
			DevicePort: DefaultDevicePort,
			Timeout:    DefaultTimeoutSetting,
		},
		filepath: DefaultConfigPath(),
	}
}
