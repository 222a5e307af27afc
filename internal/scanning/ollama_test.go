package scanning

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/jpeg"
	"io"
	"net/http"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/ghttp"
)

var _ = Describe("Ollama", func() {
	var (
		server  *ghttp.Server
		scanner *Ollama
		data    *ReceiptData
		err     error
	)

	BeforeEach(func() {
		server = ghttp.NewServer()
		scanner, err = NewOllama(server.URL(), "llava")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		server.Close()
	})

	JustBeforeEach(func() {
		data, err = scanner.ScanReceipt(context.Background(), []byte("png bytes"), "image/png")
	})

	When("the model returns a receipt", func() {
		BeforeEach(func() {
			server.AppendHandlers(ghttp.CombineHandlers(
				ghttp.VerifyRequest(http.MethodPost, "/api/chat"),
				ghttp.VerifyContentType("application/json"),
				func(w http.ResponseWriter, r *http.Request) {
					defer GinkgoRecover()
					body, readErr := io.ReadAll(r.Body)
					Expect(readErr).NotTo(HaveOccurred())
					var req ollamaChatRequest
					Expect(json.Unmarshal(body, &req)).To(Succeed())
					Expect(req.Model).To(Equal("llava"))
					Expect(req.Stream).To(BeFalse())
					Expect(req.Messages).To(HaveLen(2))
					Expect(req.Messages[1].Images).To(HaveLen(1))
				},
				ghttp.RespondWithJSONEncoded(http.StatusOK, ollamaChatResponse{
					Done: true,
					Message: ollamaMessage{
						Role:    "assistant",
						Content: `{"retailer": "Target", "purchaseDate": "2022-01-01", "purchaseTime": "14:33", "items": [], "total": "35.00"}`,
					},
				}),
			))
		})

		It("should not return an error", func() {
			Expect(err).NotTo(HaveOccurred())
		})

		It("should return the parsed receipt", func() {
			Expect(data.Retailer).To(Equal("Target"))
			Expect(data.Total).To(Equal(Amount("35.00")))
		})
	})

	When("the API returns an error status", func() {
		BeforeEach(func() {
			server.AppendHandlers(ghttp.RespondWith(http.StatusInternalServerError, "model not loaded"))
		})

		It("returns the error", func() {
			Expect(err).To(MatchError(ContainSubstring("status 500")))
			Expect(err).To(MatchError(ContainSubstring("model not loaded")))
		})
	})

	When("the model reply is not JSON", func() {
		BeforeEach(func() {
			server.AppendHandlers(ghttp.RespondWithJSONEncoded(http.StatusOK, ollamaChatResponse{
				Done:    true,
				Message: ollamaMessage{Role: "assistant", Content: "sorry"},
			}))
		})

		It("returns the error", func() {
			Expect(err).To(MatchError(ContainSubstring("parsing receipt data")))
		})
	})
})

var _ = Describe("prepareImageData", func() {
	It("should pass PNG data through untouched", func() {
		out, err := prepareImageData([]byte("already png"), "image/png")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(Equal([]byte("already png")))
	})

	It("should convert JPEG to PNG", func() {
		img := image.NewRGBA(image.Rect(0, 0, 4, 4))
		img.Set(1, 1, color.White)
		var buf bytes.Buffer
		Expect(jpeg.Encode(&buf, img, nil)).To(Succeed())

		out, err := prepareImageData(buf.Bytes(), "image/jpeg")
		Expect(err).NotTo(HaveOccurred())
		_, format, decodeErr := image.Decode(bytes.NewReader(out))
		Expect(decodeErr).NotTo(HaveOccurred())
		Expect(format).To(Equal("png"))
	})

	It("should reject unknown formats", func() {
		_, err := prepareImageData([]byte("not an image"), "image/webp")
		Expect(err).To(MatchError(ContainSubstring("unsupported image format")))
	})

	It("should detect HEIC by its ftyp brand", func() {
		header := append([]byte{0, 0, 0, 24}, []byte("ftypheic")...)
		Expect(isHEICFormat(header)).To(BeTrue())
		Expect(isHEICFormat([]byte("short"))).To(BeFalse())
	})
})
