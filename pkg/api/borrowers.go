package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"simplib/pkg/lending"
	"simplib/pkg/metrics"
)

// listBorrowers returns the whole roster, retired borrowers included.
func (h *Handler) listBorrowers(c *gin.Context) {
	ds, ok := h.snapshot(c)
	if !ok {
		return
	}
	q := c.Query("q")

	items := make([]metrics.BorrowerStatus, 0, len(ds.Borrowers))
	for _, st := range metrics.BorrowerStatuses(ds, h.ctrl.Today()) {
		if matches(q, st.FullName(), st.Phone) {
			items = append(items, st)
		}
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "count": len(items)})
}

func (h *Handler) addBorrower(c *gin.Context) {
	var req CreateBorrowerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeError(c, bindError(err))
		return
	}

	borrower, reinstated, err := h.ctrl.AddBorrower(c.Request.Context(), req.Name, req.Surname, req.Phone)
	if err != nil {
		h.writeError(c, err)
		return
	}
	status := http.StatusCreated
	if reinstated {
		status = http.StatusOK
	}
	c.JSON(status, gin.H{"borrower": borrower, "reinstated": reinstated})
}

func (h *Handler) updateBorrower(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		h.writeError(c, err)
		return
	}
	var req UpdateBorrowerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeError(c, bindError(err))
		return
	}

	borrower, err := h.ctrl.UpdateBorrower(c.Request.Context(), id, lending.BorrowerUpdate{
		Name:    req.Name,
		Surname: req.Surname,
		Phone:   req.Phone,
		Active:  req.Active,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, borrower)
}

func (h *Handler) retireBorrower(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		h.writeError(c, err)
		return
	}
	borrower, err := h.ctrl.RetireBorrower(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, borrower)
}

func (h *Handler) reinstateBorrower(c *gin.Context) {
	var req ReinstateBorrowerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeError(c, bindError(err))
		return
	}
	borrower, err := h.ctrl.ReinstateBorrower(c.Request.Context(), req.Name, req.Surname)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, borrower)
}
