package invoice

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/ghttp"

	"github.com/zombor/invoice-extractor/internal/extraction"
	"github.com/zombor/invoice-extractor/internal/scanning"
)

var _ = Describe("Integration", func() {
	var (
		tempDir  string
		db       *BoltDB
		store    *LocalStorage
		service  *Service
		server   *Server
		ghServer *ghttp.Server
	)

	BeforeEach(func() {
		tempDir = GinkgoT().TempDir()

		var err error
		db, err = NewBoltDB(filepath.Join(tempDir, "test.db"))
		Expect(err).NotTo(HaveOccurred())

		store, err = NewLocalStorage(filepath.Join(tempDir, "invoices"))
		Expect(err).NotTo(HaveOccurred())

		// plain text uploads go through the real text layer provider
		scanner := scanning.NewChain(slog.Default(), DefaultMinTextChars, scanning.NewTextLayer())
		service = NewService(db, scanner, store, extraction.New(extraction.DefaultOptions(), nil))
		server = NewServer(service, BasicAuth{})
		ghServer = ghttp.NewServer()
	})

	AfterEach(func() {
		if ghServer != nil {
			ghServer.Close()
		}
		if db != nil {
			db.Close()
		}
	})

	It("should upload, extract, store, export and delete an invoice", func() {
		ghServer.AppendHandlers(
			server.ServeHTTP, // upload
			server.ServeHTTP, // get
			server.ServeHTTP, // export
			server.ServeHTTP, // delete
			server.ServeHTTP, // get after delete
		)

		// --- Upload ---
		body := &bytes.Buffer{}
		writer := multipart.NewWriter(body)
		part, err := writer.CreateFormFile("file", "acme.txt")
		Expect(err).NotTo(HaveOccurred())
		_, err = part.Write([]byte(sampleText))
		Expect(err).NotTo(HaveOccurred())
		Expect(writer.Close()).To(Succeed())

		resp, err := http.Post(ghServer.URL()+"/api/invoices", writer.FormDataContentType(), body)
		Expect(err).NotTo(HaveOccurred())
		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.StatusCode).To(Equal(http.StatusCreated))

		var result Result
		Expect(json.Unmarshal(respBody, &result)).To(Succeed())
		Expect(result.Success).To(BeTrue())
		inv := result.Invoice
		Expect(inv.OCRProvider).To(Equal("text-layer"))
		Expect(inv.ContentType).To(Equal("text/plain"))
		Expect(inv.Record.InvoiceNumber).To(Equal("INV-2025-001"))
		Expect(inv.Record.Vendor.Name).To(Equal("ACME CORPORATION"))
		Expect(inv.Record.Status).To(Equal(extraction.StatusSuccess))

		// the original document is kept
		data, err := store.Get(inv.Filename)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(Equal(sampleText))

		// --- Get ---
		resp, err = http.Get(ghServer.URL() + "/api/invoices/" + inv.ID)
		Expect(err).NotTo(HaveOccurred())
		respBody, err = io.ReadAll(resp.Body)
		resp.Body.Close()
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.StatusCode).To(Equal(http.StatusOK))

		var fetched Invoice
		Expect(json.Unmarshal(respBody, &fetched)).To(Succeed())
		Expect(fetched.Record.TotalAmount.Decimal.StringFixed(2)).To(Equal("550.00"))
		Expect(fetched.Record.Products).To(HaveLen(2))
		Expect(fetched.Record.RawText).To(BeEmpty())

		// --- Export ---
		resp, err = http.Get(ghServer.URL() + "/api/invoices/export")
		Expect(err).NotTo(HaveOccurred())
		resp.Body.Close()
		Expect(resp.StatusCode).To(Equal(http.StatusOK))

		// --- Delete ---
		req, err := http.NewRequest(http.MethodDelete, ghServer.URL()+"/api/invoices/"+inv.ID, nil)
		Expect(err).NotTo(HaveOccurred())
		resp, err = http.DefaultClient.Do(req)
		Expect(err).NotTo(HaveOccurred())
		resp.Body.Close()
		Expect(resp.StatusCode).To(Equal(http.StatusNoContent))

		_, err = store.Get(inv.Filename)
		Expect(err).To(HaveOccurred())

		// --- Get after delete ---
		resp, err = http.Get(ghServer.URL() + "/api/invoices/" + inv.ID)
		Expect(err).NotTo(HaveOccurred())
		resp.Body.Close()
		Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
	})

	It("should reject a document with no readable text", func() {
		ghServer.AppendHandlers(server.ServeHTTP, server.ServeHTTP)

		body := &bytes.Buffer{}
		writer := multipart.NewWriter(body)
		part, err := writer.CreateFormFile("file", "blank.txt")
		Expect(err).NotTo(HaveOccurred())
		_, err = part.Write([]byte("   \n  "))
		Expect(err).NotTo(HaveOccurred())
		Expect(writer.Close()).To(Succeed())

		resp, err := http.Post(ghServer.URL()+"/api/invoices", writer.FormDataContentType(), body)
		Expect(err).NotTo(HaveOccurred())
		resp.Body.Close()
		Expect(resp.StatusCode).To(Equal(http.StatusUnprocessableEntity))

		resp, err = http.Get(ghServer.URL() + "/api/invoices")
		Expect(err).NotTo(HaveOccurred())
		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		Expect(err).NotTo(HaveOccurred())

		var invoices []*Invoice
		Expect(json.Unmarshal(respBody, &invoices)).To(Succeed())
		Expect(invoices).To(BeEmpty())
	})
})
