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

package control

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jinr.ru/greenlab/go-aadmac/pkg/aadmac"
	"jinr.ru/greenlab/go-aadmac/pkg/config"
	"jinr.ru/greenlab/go-aadmac/pkg/regio"
)

func TestNewPort(t *testing.T) {
	cfg := config.NewDefaultConfig()
	cfg.Port.Kind = config.PortKindMemory
	port, err := NewPort(cfg)
	require.NoError(t, err)
	assert.IsType(t, &regio.Memory{}, port)

	cfg.Port.Kind = config.PortKindBolt
	cfg.Port.DBPath = filepath.Join(t.TempDir(), "regs.db")
	port, err = NewPort(cfg)
	require.NoError(t, err)
	assert.IsType(t, &regio.Bolt{}, port)
	require.NoError(t, regio.Close(port))

	cfg.Port.Kind = config.PortKindFile
	cfg.Port.DevicePath = filepath.Join(t.TempDir(), "missing")
	_, err = NewPort(cfg)
	assert.Error(t, err)

	cfg.Port.Kind = "pci"
	_, err = NewPort(cfg)
	assert.Error(t, err)
}

func TestControlServerRunStopsWithContext(t *testing.T) {
	cfg := config.NewDefaultConfig()
	cfg.Port.Kind = config.PortKindMemory
	cfg.Control.Port = 0
	cfg.Block.Base = "0x40000000"

	// port 0 is rejected by Validate
	_, err := NewControlServer(context.Background(), cfg)
	require.Error(t, err)

	cfg.Control.Port = 18010
	ctx, cancel := context.WithCancel(context.Background())
	s, err := NewControlServer(ctx, cfg)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x40000000), s.Block().Base())

	ch, err := s.Block().Alloc()
	require.NoError(t, err)
	assert.Equal(t, aadmac.Ch1, ch)

	cancel()
	assert.ErrorIs(t, s.Run(), context.Canceled)
	_, err = s.Block().Alloc()
	assert.ErrorIs(t, err, aadmac.ErrNotInitialized)
}
