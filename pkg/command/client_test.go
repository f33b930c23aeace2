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

package command

import (
	"context"
	"net"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jinr.ru/greenlab/go-aadmac/pkg/aadmac"
	"jinr.ru/greenlab/go-aadmac/pkg/config"
	"jinr.ru/greenlab/go-aadmac/pkg/regio"
	"jinr.ru/greenlab/go-aadmac/pkg/srv/control"
)

type testControl struct {
	block *aadmac.Block
}

func (c *testControl) Run() error            { return nil }
func (c *testControl) Block() *aadmac.Block { return c.block }

func newTestClient(t *testing.T) (*ApiClient, *regio.Memory) {
	mem := regio.NewMemory()
	cfg := config.NewDefaultConfig()
	api, err := control.NewApiServer(context.Background(), cfg, &testControl{block: aadmac.Init(mem, 0)})
	require.NoError(t, err)
	server := httptest.NewServer(api.Handler())
	t.Cleanup(server.Close)

	u, err := url.Parse(server.URL)
	require.NoError(t, err)
	host, port, err := net.SplitHostPort(u.Host)
	require.NoError(t, err)
	cfg.Control.IP = host
	cfg.Control.Port, err = strconv.Atoi(port)
	require.NoError(t, err)
	return NewApiClient(cfg), mem
}

func TestClientChannels(t *testing.T) {
	c, _ := newTestClient(t)

	ch, err := c.Alloc("")
	require.NoError(t, err)
	assert.Equal(t, "0x0001", ch)
	ch, err = c.Alloc("ch4")
	require.NoError(t, err)
	assert.Equal(t, "0x0008", ch)

	_, err = c.Alloc("ch4")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "409")
	assert.Contains(t, err.Error(), aadmac.ErrChannelBusy.Error())

	channels, err := c.Channels()
	require.NoError(t, err)
	assert.Equal(t, "0x0009", channels.Allocated)
	assert.Equal(t, []string{"CH1", "CH4"}, channels.Channels)

	require.NoError(t, c.Free("0x0001"))
	channels, err = c.Channels()
	require.NoError(t, err)
	assert.Equal(t, "0x0008", channels.Allocated)
}

func TestClientConfigureAndStatus(t *testing.T) {
	c, mem := newTestClient(t)

	require.NoError(t, c.Configure("ch3", &control.ChannelSetup{
		Direction:    "in",
		Fifo:         "0x0100",
		TransferSize: 8,
		Address:      "0x20000000",
		Size:         "0x8000",
		Enable:       true,
	}))
	require.NoError(t, c.DDRStatus("ch3", "both", false))

	status, err := c.Status("ch3")
	require.NoError(t, err)
	assert.True(t, status.Enabled)
	assert.Equal(t, "in", status.Direction)
	assert.Equal(t, "0x0100", status.Fifo)
	assert.Equal(t, uint32(8), status.TransferSize)
	assert.Equal(t, "0x20000000", status.Address)
	assert.Equal(t, "0x8000", status.WrapSize)
	assert.Equal(t, "both", status.SWReady)

	require.NoError(t, c.ChannelAction("ch3", "disable"))
	assert.Zero(t, mem.Peek(aadmac.OffsetOf(aadmac.RegCR2, 2))&aadmac.CR2EnMask)

	err = c.ChannelAction("ch3", "explode")
	assert.Error(t, err)
	_, err = c.Status("0x100000")
	assert.Error(t, err)
}

func TestClientRegisters(t *testing.T) {
	c, mem := newTestClient(t)

	require.NoError(t, c.RegWrite("0x0c0", "0x1234"))
	assert.Equal(t, uint32(0x1234), mem.Peek(0x0C0))

	reg, err := c.RegRead("0x0c0")
	require.NoError(t, err)
	assert.Equal(t, "0x00001234", reg.Value)
	assert.Equal(t, "CH1_2_EXTENDED_WRAP", reg.Name)

	regs, err := c.RegReadAll()
	require.NoError(t, err)
	assert.Len(t, regs, len(aadmac.RegisterOffsets()))

	assert.Error(t, c.RegWrite("0x0e0", "0x1"))
}
