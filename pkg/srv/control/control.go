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
	"fmt"

	"jinr.ru/greenlab/go-aadmac/pkg/aadmac"
	"jinr.ru/greenlab/go-aadmac/pkg/config"
	"jinr.ru/greenlab/go-aadmac/pkg/log"
	"jinr.ru/greenlab/go-aadmac/pkg/regio"
	"jinr.ru/greenlab/go-aadmac/pkg/srv/control/ifc"
)

type ControlServer struct {
	context.Context
	*config.Config
	port  regio.Port
	block *aadmac.Block
	api   ifc.ApiServer
}

var _ ifc.ControlServer = &ControlServer{}

// NewPort opens the register port selected in the config
func NewPort(cfg *config.Config) (regio.Port, error) {
	switch cfg.Port.Kind {
	case config.PortKindMemory:
		return regio.NewMemory(), nil
	case config.PortKindFile:
		f, err := regio.OpenFile(cfg.Port.DevicePath)
		if err != nil {
			return nil, err
		}
		return f, nil
	case config.PortKindBolt:
		b, err := regio.NewBolt(cfg.Port.DBPath, cfg.Block.Name)
		if err != nil {
			return nil, err
		}
		return b, nil
	case config.PortKindMLink:
		timeout, err := cfg.Timeout()
		if err != nil {
			return nil, err
		}
		m, err := regio.DialMLink(cfg.DeviceAddr(), timeout)
		if err != nil {
			return nil, err
		}
		return m, nil
	}
	return nil, fmt.Errorf("unknown port kind: %s", cfg.Port.Kind)
}

// NewControlServer ...
func NewControlServer(ctx context.Context, cfg *config.Config) (ifc.ControlServer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	base, err := cfg.BaseAddr()
	if err != nil {
		return nil, err
	}
	mode, err := cfg.ReadyMode()
	if err != nil {
		return nil, err
	}

	log.Debug("Initializing control server: block: %s base: 0x%08x port: %s", cfg.Block.Name, base, cfg.Port.Kind)
	port, err := NewPort(cfg)
	if err != nil {
		return nil, err
	}

	s := &ControlServer{
		Context: ctx,
		Config:  cfg,
		port:    port,
		block:   aadmac.Init(port, base, aadmac.WithReadyStatusMode(mode)),
	}

	apiServer, err := NewApiServer(ctx, cfg, s)
	if err != nil {
		regio.Close(port)
		return nil, err
	}
	s.api = apiServer

	return s, nil
}

func (s *ControlServer) Block() *aadmac.Block {
	return s.block
}

func (s *ControlServer) Run() error {
	defer func() {
		s.block.Deinit()
		if err := regio.Close(s.port); err != nil {
			log.Error("Error while closing register port: %s", err)
		}
	}()

	errChan := make(chan error, 1)
	go func() {
		errChan <- s.api.Run()
	}()

	var err error
	select {
	case <-s.Context.Done():
	case err = <-errChan:
	}
	if ctxErr := s.Context.Err(); ctxErr != nil {
		return ctxErr
	}
	return err
}
