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
	"fmt"
	"net/http"
	"strings"

	"github.com/imroc/req"

	"jinr.ru/greenlab/go-aadmac/pkg/command/ifc"
	"jinr.ru/greenlab/go-aadmac/pkg/config"
	"jinr.ru/greenlab/go-aadmac/pkg/srv/control"
)

type ApiClient struct {
	*config.Config
	ApiPrefix string
}

var _ ifc.ApiClient = &ApiClient{}

func NewApiClient(cfg *config.Config) *ApiClient {
	return &ApiClient{
		Config:    cfg,
		ApiPrefix: fmt.Sprintf("http://%s/api", cfg.ControlAddr()),
	}
}

func (c *ApiClient) channelUrl(channel, action string) string {
	return fmt.Sprintf("%s/channels/%s/%s", c.ApiPrefix, channel, action)
}

func (c *ApiClient) regReadUrl(addr string) string {
	if addr == "" {
		return fmt.Sprintf("%s/reg/r", c.ApiPrefix)
	}
	return fmt.Sprintf("%s/reg/r/%s", c.ApiPrefix, addr)
}

func (c *ApiClient) regWriteUrl() string {
	return fmt.Sprintf("%s/reg/w", c.ApiPrefix)
}

// checkResp turns a non 200 response into an error carrying the server message
func checkResp(r *req.Resp) error {
	if r.Response().StatusCode != http.StatusOK {
		return fmt.Errorf("%s: %s", r.Response().Status, strings.TrimSpace(r.String()))
	}
	return nil
}

// Channels sends request to get the allocation state of all channels
func (c *ApiClient) Channels() (*control.Channels, error) {
	r, err := req.Get(fmt.Sprintf("%s/channels", c.ApiPrefix))
	if err != nil {
		return nil, err
	}
	if err = checkResp(r); err != nil {
		return nil, err
	}
	channels := &control.Channels{}
	if err = r.ToJSON(channels); err != nil {
		return nil, err
	}
	return channels, nil
}

// Alloc sends request to allocate a channel. Empty channel means any free one.
func (c *ApiClient) Alloc(channel string) (string, error) {
	r, err := req.Post(fmt.Sprintf("%s/channels/alloc", c.ApiPrefix), req.BodyJSON(&control.ChannelHex{Channel: channel}))
	if err != nil {
		return "", err
	}
	if err = checkResp(r); err != nil {
		return "", err
	}
	ch := &control.ChannelHex{}
	if err = r.ToJSON(ch); err != nil {
		return "", err
	}
	return ch.Channel, nil
}

// Free sends request to free a channel
func (c *ApiClient) Free(channel string) error {
	r, err := req.Post(c.channelUrl(channel, "free"))
	if err != nil {
		return err
	}
	return checkResp(r)
}

// ChannelAction sends enable, disable or clear_fifo request for all channels of the mask
func (c *ApiClient) ChannelAction(channel, action string) error {
	r, err := req.Post(c.channelUrl(channel, action))
	if err != nil {
		return err
	}
	return checkResp(r)
}

// Configure sends the channel setup
func (c *ApiClient) Configure(channel string, setup *control.ChannelSetup) error {
	r, err := req.Post(c.channelUrl(channel, "config"), req.BodyJSON(setup))
	if err != nil {
		return err
	}
	return checkResp(r)
}

// DDRStatus sets the software ready status or, with clear, acknowledges hardware ready flags
func (c *ApiClient) DDRStatus(channel, status string, clear bool) error {
	setup := &control.DDRStatusSetup{Status: status, Clear: clear}
	r, err := req.Post(c.channelUrl(channel, "ddr_status"), req.BodyJSON(setup))
	if err != nil {
		return err
	}
	return checkResp(r)
}

// Status sends request to get decoded registers of a channel
func (c *ApiClient) Status(channel string) (*control.ChannelStatus, error) {
	r, err := req.Get(c.channelUrl(channel, "status"))
	if err != nil {
		return nil, err
	}
	if err = checkResp(r); err != nil {
		return nil, err
	}
	status := &control.ChannelStatus{}
	if err = r.ToJSON(status); err != nil {
		return nil, err
	}
	return status, nil
}

// RegRead sends request to get the value of a register
func (c *ApiClient) RegRead(addr string) (*control.RegHex, error) {
	r, err := req.Get(c.regReadUrl(addr))
	if err != nil {
		return nil, err
	}
	if err = checkResp(r); err != nil {
		return nil, err
	}
	reg := &control.RegHex{}
	if err = r.ToJSON(reg); err != nil {
		return nil, err
	}
	return reg, nil
}

// RegReadAll sends request to get values of all registers of the block
func (c *ApiClient) RegReadAll() ([]*control.RegHex, error) {
	r, err := req.Get(c.regReadUrl(""))
	if err != nil {
		return nil, err
	}
	if err = checkResp(r); err != nil {
		return nil, err
	}
	var regs []*control.RegHex
	if err = r.ToJSON(&regs); err != nil {
		return nil, err
	}
	return regs, nil
}

// RegWrite sends request to write the value to a register
func (c *ApiClient) RegWrite(addr, value string) error {
	reg := &control.RegHex{
		Addr:  addr,
		Value: value,
	}
	r, err := req.Post(c.regWriteUrl(), req.BodyJSON(reg))
	if err != nil {
		return err
	}
	return checkResp(r)
}
