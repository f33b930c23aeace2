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

package control_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"jinr.ru/greenlab/go-aadmac/pkg/aadmac"
	"jinr.ru/greenlab/go-aadmac/pkg/config"
	"jinr.ru/greenlab/go-aadmac/pkg/log"
	"jinr.ru/greenlab/go-aadmac/pkg/regio"
	"jinr.ru/greenlab/go-aadmac/pkg/srv/control"
)

func TestControl(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Control API Suite")
}

const testBase = 0x40000000

type fakeControl struct {
	block *aadmac.Block
}

func (f *fakeControl) Run() error            { return nil }
func (f *fakeControl) Block() *aadmac.Block { return f.block }

var _ = Describe("API", func() {
	var (
		mem    *regio.Memory
		block  *aadmac.Block
		server *httptest.Server
	)

	post := func(path string, body interface{}) *http.Response {
		var reader io.Reader
		if body != nil {
			data, err := json.Marshal(body)
			Expect(err).ToNot(HaveOccurred())
			reader = bytes.NewReader(data)
		}
		resp, err := http.Post(server.URL+path, "application/json", reader)
		Expect(err).ToNot(HaveOccurred())
		return resp
	}

	get := func(path string) *http.Response {
		resp, err := http.Get(server.URL + path)
		Expect(err).ToNot(HaveOccurred())
		return resp
	}

	decode := func(resp *http.Response, v interface{}) {
		defer resp.Body.Close()
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
		Expect(json.NewDecoder(resp.Body).Decode(v)).To(Succeed())
	}

	BeforeEach(func() {
		log.Init(GinkgoWriter, "error")
		mem = regio.NewMemory()
		block = aadmac.Init(mem, testBase)
		api, err := control.NewApiServer(context.Background(), config.NewDefaultConfig(), &fakeControl{block: block})
		Expect(err).ToNot(HaveOccurred())
		server = httptest.NewServer(api.Handler())
	})

	AfterEach(func() {
		server.Close()
	})

	Context("channel allocation", func() {
		It("allocates the lowest free channel", func() {
			ch := &control.ChannelHex{}
			decode(post("/api/channels/alloc", nil), ch)
			Expect(ch.Channel).To(Equal("0x0001"))
			decode(post("/api/channels/alloc", nil), ch)
			Expect(ch.Channel).To(Equal("0x0002"))

			channels := &control.Channels{}
			decode(get("/api/channels"), channels)
			Expect(channels.Allocated).To(Equal("0x0003"))
			Expect(channels.Free).To(Equal("0xfffc"))
			Expect(channels.Channels).To(Equal([]string{"CH1", "CH2"}))
		})

		It("allocates the requested channel and reports busy", func() {
			ch := &control.ChannelHex{}
			decode(post("/api/channels/alloc", &control.ChannelHex{Channel: "0x0004"}), ch)
			Expect(ch.Channel).To(Equal("0x0004"))

			resp := post("/api/channels/alloc", &control.ChannelHex{Channel: "ch3"})
			Expect(resp.StatusCode).To(Equal(http.StatusConflict))

			resp = post("/api/channels/0x0004/free", nil)
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			allocated, err := block.Allocated()
			Expect(err).ToNot(HaveOccurred())
			Expect(allocated).To(Equal(aadmac.ChVoid))
		})

		It("rejects channels outside the block", func() {
			resp := post("/api/channels/alloc", &control.ChannelHex{Channel: "0x100000"})
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
			resp = post("/api/channels/0x100000/free", nil)
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		})

		It("reports exhaustion as conflict", func() {
			for i := 0; i < aadmac.NumChannels; i++ {
				_, err := block.Alloc()
				Expect(err).ToNot(HaveOccurred())
			}
			resp := post("/api/channels/alloc", nil)
			Expect(resp.StatusCode).To(Equal(http.StatusConflict))
		})
	})

	Context("channel configuration", func() {
		It("configures, enables and reports status", func() {
			resp := post("/api/channels/ch1/config", &control.ChannelSetup{
				Direction:    "out",
				Fifo:         "0x0008",
				TransferSize: 16,
				Address:      "0x10000000",
				Size:         "0x123456",
			})
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(mem.Peek(testBase + 0x0C0)).To(Equal(uint32(0x12)))

			resp = post("/api/channels/0x0001/enable", nil)
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			status := &control.ChannelStatus{}
			decode(get("/api/channels/0x0001/status"), status)
			Expect(status.Channel).To(Equal("0x0001"))
			Expect(status.Enabled).To(BeTrue())
			Expect(status.Direction).To(Equal("out"))
			Expect(status.Fifo).To(Equal("0x0008"))
			Expect(status.TransferSize).To(Equal(uint32(16)))
			Expect(status.Address).To(Equal("0x10000000"))
			Expect(status.WrapSize).To(Equal("0x123456"))
			Expect(status.Timestamp).To(Equal("0x00000000"))

			resp = post("/api/channels/0x0001/disable", nil)
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			decode(get("/api/channels/0x0001/status"), status)
			Expect(status.Enabled).To(BeFalse())
		})

		It("pulses the fifo reset", func() {
			resp := post("/api/channels/0x0006/clear_fifo", nil)
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(mem.Writes(testBase + 0x010)).To(Equal([]uint32{0, 0x1000, 0}))
			Expect(mem.Writes(testBase + 0x01C)).To(Equal([]uint32{0, 0x1000, 0}))
		})

		It("rejects a bad setup", func() {
			resp := post("/api/channels/ch2/config", &control.ChannelSetup{Direction: "sideways"})
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
			resp = post("/api/channels/ch2/config", &control.ChannelSetup{
				Direction: "in", Fifo: "0x0", Address: "0x0", Size: "0x100",
			})
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		})

		It("sets and clears ddr fifo status", func() {
			resp := post("/api/channels/ch5/ddr_status", &control.DDRStatusSetup{Status: "low"})
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			sw, err := block.SWReady(aadmac.Ch5)
			Expect(err).ToNot(HaveOccurred())
			Expect(sw).To(Equal(aadmac.ReadyLow))

			resp = post("/api/channels/ch5/ddr_status", &control.DDRStatusSetup{Status: "high", Clear: true})
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(mem.Writes(testBase + 0x038)).To(Equal([]uint32{1}))

			resp = post("/api/channels/ch5/ddr_status", &control.DDRStatusSetup{Status: "half"})
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		})
	})

	Context("registers", func() {
		It("writes and reads raw registers", func() {
			resp := post("/api/reg/w", &control.RegHex{Addr: "0x0d4", Value: "0xcafe"})
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			reg := &control.RegHex{}
			decode(get("/api/reg/r/0x0d4"), reg)
			Expect(reg.Value).To(Equal("0x0000cafe"))
			Expect(reg.Name).To(Equal("CH2_TS"))

			var regs []*control.RegHex
			decode(get("/api/reg/r"), &regs)
			Expect(regs).To(HaveLen(aadmac.NumChannels*3 + 1 + aadmac.NumTimestampChannels))
			Expect(regs[0].Name).To(Equal("CH1_CR1"))
		})

		It("rejects offsets outside the window", func() {
			resp := get("/api/reg/r/0x100")
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
			resp = post("/api/reg/w", &control.RegHex{Addr: "0x0e0", Value: "0x1"})
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		})
	})

	Context("after deinit", func() {
		It("reports the block unavailable", func() {
			block.Deinit()
			resp := get("/api/channels")
			Expect(resp.StatusCode).To(Equal(http.StatusServiceUnavailable))
		})
	})

	Context("docs", func() {
		It("serves the swagger document", func() {
			resp := get("/swagger.json")
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			doc := map[string]interface{}{}
			Expect(json.NewDecoder(resp.Body).Decode(&doc)).To(Succeed())
			Expect(doc).To(HaveKeyWithValue("swagger", "2.0"))
		})

		It("serves redoc", func() {
			resp := get("/docs")
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			body, err := io.ReadAll(resp.Body)
			Expect(err).ToNot(HaveOccurred())
			Expect(string(body)).To(ContainSubstring("go-aadmac API"))
		})
	})
})
