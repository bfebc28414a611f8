package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"simplib/pkg/metrics"
)

func (h *Handler) activeLoans(c *gin.Context) {
	ds, ok := h.snapshot(c)
	if !ok {
		return
	}
	q := c.Query("q")

	views := make([]metrics.LoanView, 0)
	for _, v := range metrics.ActiveLoans(ds, h.ctrl.Today()) {
		if matches(q, v.BookName+" - "+v.Author, v.BorrowerName+" "+v.BorrowerSurname) {
			views = append(views, v)
		}
	}
	items := toLoanViewResponses(views, false)
	c.JSON(http.StatusOK, gin.H{"items": items, "count": len(items)})
}

// lateLoans includes phone numbers so the desk can call.
func (h *Handler) lateLoans(c *gin.Context) {
	ds, ok := h.snapshot(c)
	if !ok {
		return
	}
	items := toLoanViewResponses(metrics.LateLoans(ds, h.ctrl.Today()), true)
	c.JSON(http.StatusOK, gin.H{"items": items, "count": len(items)})
}

func (h *Handler) createLoan(c *gin.Context) {
	var req CreateLoanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeError(c, bindError(err))
		return
	}
	loanDate, err := dateOr("loan_date", req.LoanDate, h.ctrl.Today())
	if err != nil {
		h.writeError(c, err)
		return
	}

	loan, err := h.ctrl.CreateLoan(c.Request.Context(), req.BookID, req.LoanerID, loanDate)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toLoanResponse(loan))
}

func (h *Handler) returnLoan(c *gin.Context) {
	var req ReturnLoanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeError(c, bindError(err))
		return
	}
	loanDate, err := dateOr("loan_date", req.LoanDate, h.ctrl.Today())
	if err != nil {
		h.writeError(c, err)
		return
	}
	returnDate, err := dateOr("return_date", req.ReturnDate, h.ctrl.Today())
	if err != nil {
		h.writeError(c, err)
		return
	}

	loan, err := h.ctrl.ReturnLoan(c.Request.Context(), req.LoanerID, req.BookID, loanDate, returnDate)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toLoanResponse(loan))
}

func (h *Handler) returnLoanByID(c *gin.Context) {
	var req ReturnLoanByIDRequest
	// the body is optional
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.writeError(c, bindError(err))
			return
		}
	}
	returnDate, err := dateOr("return_date", req.ReturnDate, h.ctrl.Today())
	if err != nil {
		h.writeError(c, err)
		return
	}

	loan, err := h.ctrl.ReturnLoanByID(c.Request.Context(), c.Param("id"), returnDate)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toLoanResponse(loan))
}
