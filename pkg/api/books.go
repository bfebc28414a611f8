package api

import (
	"bytes"
	"net/http"

	"github.com/gin-gonic/gin"

	"simplib/pkg/export"
	"simplib/pkg/lending"
	"simplib/pkg/metrics"
	"simplib/pkg/models"
)

// listBooks returns active books with their loan status. ?all=true includes
// retired ones; ?q= filters on name and author.
func (h *Handler) listBooks(c *gin.Context) {
	ds, ok := h.snapshot(c)
	if !ok {
		return
	}
	all := c.Query("all") == "true"
	q := c.Query("q")

	items := make([]metrics.BookStatus, 0, len(ds.Books))
	for _, st := range metrics.BookStatuses(ds, h.ctrl.Today()) {
		if (!all && !st.Active) || !matches(q, st.Name, st.Author) {
			continue
		}
		items = append(items, st)
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "count": len(items)})
}

func (h *Handler) availableBooks(c *gin.Context) {
	ds, ok := h.snapshot(c)
	if !ok {
		return
	}
	items := metrics.AvailableForLoan(ds)
	c.JSON(http.StatusOK, gin.H{"items": items, "count": len(items)})
}

func (h *Handler) exportBooks(c *gin.Context) {
	ds, ok := h.snapshot(c)
	if !ok {
		return
	}
	q := c.Query("q")
	books := make([]models.Book, 0, len(ds.Books))
	for _, b := range ds.Books {
		if b.Active && matches(q, b.Name, b.Author) {
			books = append(books, b)
		}
	}

	var buf bytes.Buffer
	if err := export.WriteBooksXLSX(&buf, books); err != nil {
		h.writeError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="books.xlsx"`)
	c.Data(http.StatusOK, export.XLSXContentType, buf.Bytes())
}

func (h *Handler) addBook(c *gin.Context) {
	var req CreateBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeError(c, bindError(err))
		return
	}

	book, reinstated, err := h.ctrl.AddBook(c.Request.Context(), req.Name, req.Author, req.Category)
	if err != nil {
		h.writeError(c, err)
		return
	}
	status := http.StatusCreated
	if reinstated {
		status = http.StatusOK
	}
	c.JSON(status, gin.H{"book": book, "reinstated": reinstated})
}

func (h *Handler) updateBook(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		h.writeError(c, err)
		return
	}
	var req UpdateBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeError(c, bindError(err))
		return
	}

	book, err := h.ctrl.UpdateBook(c.Request.Context(), id, lending.BookUpdate{
		Name:     req.Name,
		Author:   req.Author,
		Category: req.Category,
		Active:   req.Active,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, book)
}

func (h *Handler) retireBook(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		h.writeError(c, err)
		return
	}
	book, err := h.ctrl.RetireBook(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, book)
}

func (h *Handler) reinstateBook(c *gin.Context) {
	var req ReinstateBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeError(c, bindError(err))
		return
	}
	book, err := h.ctrl.ReinstateBook(c.Request.Context(), req.Name, req.Author)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, book)
}
