package api

import (
	"simplib/pkg/metrics"
	"simplib/pkg/models"
	"simplib/pkg/stats"
)

type CreateBookRequest struct {
	Name     string `json:"name" binding:"required"`
	Author   string `json:"author" binding:"required"`
	Category string `json:"category"`
}

type UpdateBookRequest struct {
	Name     *string `json:"name"`
	Author   *string `json:"author"`
	Category *string `json:"category"`
	Active   *bool   `json:"active"`
}

type ReinstateBookRequest struct {
	Name   string `json:"name" binding:"required"`
	Author string `json:"author" binding:"required"`
}

type CreateBorrowerRequest struct {
	Name    string `json:"name" binding:"required"`
	Surname string `json:"surname" binding:"required"`
	Phone   string `json:"phone"`
}

type UpdateBorrowerRequest struct {
	Name    *string `json:"name"`
	Surname *string `json:"surname"`
	Phone   *string `json:"phone"`
	Active  *bool   `json:"active"`
}

type ReinstateBorrowerRequest struct {
	Name    string `json:"name" binding:"required"`
	Surname string `json:"surname" binding:"required"`
}

// CreateLoanRequest dates are DD/MM/YYYY; an empty loan date means today.
type CreateLoanRequest struct {
	BookID   int    `json:"book_id" binding:"required"`
	LoanerID int    `json:"loaner_id" binding:"required"`
	LoanDate string `json:"loan_date"`
}

type ReturnLoanRequest struct {
	LoanerID   int    `json:"loaner_id" binding:"required"`
	BookID     int    `json:"book_id" binding:"required"`
	LoanDate   string `json:"loan_date" binding:"required"`
	ReturnDate string `json:"return_date"`
}

type ReturnLoanByIDRequest struct {
	ReturnDate string `json:"return_date"`
}

type LoanResponse struct {
	ID         string  `json:"id"`
	LoanerID   int     `json:"loaner_id"`
	BookID     int     `json:"book_id"`
	LoanDate   string  `json:"loan_date"`
	ReturnDate *string `json:"return_date"`
}

func toLoanResponse(l models.Loan) LoanResponse {
	r := LoanResponse{
		ID:       l.ID,
		LoanerID: l.LoanerID,
		BookID:   l.BookID,
		LoanDate: models.FormatDate(l.LoanDate),
	}
	if l.ReturnDate != nil {
		s := models.FormatDate(*l.ReturnDate)
		r.ReturnDate = &s
	}
	return r
}

type LoanViewResponse struct {
	LoanID          string `json:"loan_id"`
	LoanerID        int    `json:"loaner_id"`
	BookID          int    `json:"book_id"`
	BookName        string `json:"book_name"`
	Author          string `json:"author"`
	BorrowerName    string `json:"borrower_name"`
	BorrowerSurname string `json:"borrower_surname"`
	Phone           string `json:"phone,omitempty"`
	LoanDate        string `json:"loan_date"`
	DurationDays    int    `json:"duration_days"`
	Late            bool   `json:"late"`
}

func toLoanViewResponses(views []metrics.LoanView, withPhone bool) []LoanViewResponse {
	out := make([]LoanViewResponse, 0, len(views))
	for _, v := range views {
		r := LoanViewResponse{
			LoanID:          v.LoanID,
			LoanerID:        v.LoanerID,
			BookID:          v.BookID,
			BookName:        v.BookName,
			Author:          v.Author,
			BorrowerName:    v.BorrowerName,
			BorrowerSurname: v.BorrowerSurname,
			LoanDate:        models.FormatDate(v.LoanDate),
			DurationDays:    v.DurationDays,
			Late:            v.Late,
		}
		if withPhone {
			r.Phone = v.Phone
		}
		out = append(out, r)
	}
	return out
}

type HistoryResponse struct {
	LoanID          string  `json:"loan_id"`
	BorrowerName    string  `json:"borrower_name"`
	BorrowerSurname string  `json:"borrower_surname"`
	BookName        string  `json:"book_name"`
	Author          string  `json:"author"`
	LoanDate        string  `json:"loan_date"`
	ReturnDate      *string `json:"return_date"`
	DurationDays    *int    `json:"duration_days"`
}

func toHistoryResponses(rows []stats.HistoryRow) []HistoryResponse {
	out := make([]HistoryResponse, 0, len(rows))
	for _, r := range rows {
		h := HistoryResponse{
			LoanID:          r.LoanID,
			BorrowerName:    r.BorrowerName,
			BorrowerSurname: r.BorrowerSurname,
			BookName:        r.BookName,
			Author:          r.Author,
			LoanDate:        models.FormatDate(r.LoanDate),
			DurationDays:    r.DurationDays,
		}
		if r.ReturnDate != nil {
			s := models.FormatDate(*r.ReturnDate)
			h.ReturnDate = &s
		}
		out = append(out, h)
	}
	return out
}
