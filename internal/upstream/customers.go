package upstream

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/akshayadesk/ticket-board/internal/model"
)

// paginatedCustomers mirrors the upstream customer listing payload.
type paginatedCustomers struct {
	Customers  []model.Customer `json:"customers"`
	Pagination struct {
		TotalCustomers int `json:"totalCustomers"`
		CurrentPage    int `json:"currentPage"`
		Limit          int `json:"limit"`
		TotalPages     int `json:"totalPages"`
	} `json:"pagination"`
}

// ResolveCustomerByPhone looks up a customer record by phone number.  It
// is best-effort: a miss returns (nil, nil), not an error, because the
// absence of a record only disables optional document tracking.
func (c *Client) ResolveCustomerByPhone(ctx context.Context, cred Credential, phone string) (*model.Customer, error) {
	q := url.Values{}
	q.Set("search", phone)
	q.Set("limit", "1")

	var page paginatedCustomers
	if err := c.do(ctx, cred, http.MethodGet, "/customers", q, nil, &page); err != nil {
		return nil, err
	}
	if len(page.Customers) == 0 {
		return nil, nil
	}
	cust := page.Customers[0]
	return &cust, nil
}

// AddDocumentInput is the payload for recording a document-expiry entry
// against a customer.  Dates are calendar dates (YYYY-MM-DD).
type AddDocumentInput struct {
	DocType    string `json:"docType"`
	DocNumber  string `json:"docNumber"`
	IssueDate  string `json:"issueDate"`
	ExpiryDate string `json:"expiryDate"`
}

// AddDocument records a document-expiry entry for a customer.  During
// finalization this write gates the status mutation: its failure aborts
// the whole completion.
func (c *Client) AddDocument(ctx context.Context, cred Credential, customerID string, in AddDocumentInput) (model.CustomerDocument, error) {
	var doc model.CustomerDocument
	err := c.do(ctx, cred, http.MethodPost, "/customers/"+customerID+"/documents", nil, in, &doc)
	return doc, err
}

// ExpirationParams narrows the upcoming-expirations listing.  Range is a
// day window such as "30d"; the unit suffix is stripped before sending.
type ExpirationParams struct {
	Range  string
	Search string
	Sort   string
}

// ListExpirations returns documents expiring within the requested window.
func (c *Client) ListExpirations(ctx context.Context, cred Credential, p ExpirationParams) (model.ExpirationsResponse, error) {
	q := url.Values{}
	if p.Range != "" {
		q.Set("range", strings.TrimSuffix(p.Range, "d"))
	}
	if p.Search != "" {
		q.Set("search", p.Search)
	}
	if p.Sort != "" {
		q.Set("sort", p.Sort)
	}
	var out model.ExpirationsResponse
	err := c.do(ctx, cred, http.MethodGet, "/customers/expirations", q, nil, &out)
	return out, err
}

// HistoryParams narrows the notification history listing.
type HistoryParams struct {
	Phone   string
	Email   string
	Channel string
	Page    int
	Limit   int
}

// NotificationHistory returns a page of past notification deliveries.
func (c *Client) NotificationHistory(ctx context.Context, cred Credential, p HistoryParams) (model.PaginatedAlertLog, error) {
	q := url.Values{}
	if p.Phone != "" {
		q.Set("phone", p.Phone)
	}
	if p.Email != "" {
		q.Set("email", p.Email)
	}
	if p.Channel != "" {
		q.Set("channel", p.Channel)
	}
	if p.Page > 0 {
		q.Set("page", strconv.Itoa(p.Page))
	}
	if p.Limit > 0 {
		q.Set("limit", strconv.Itoa(p.Limit))
	}

	// The history endpoint nests its page differently from the other
	// listings, so it is remapped here.
	var resp struct {
		Data       []model.AlertLog `json:"data"`
		Pagination model.Pagination `json:"pagination"`
	}
	if err := c.do(ctx, cred, http.MethodGet, "/notifications/history", q, nil, &resp); err != nil {
		return model.PaginatedAlertLog{}, err
	}
	return model.PaginatedAlertLog{AlertLogs: resp.Data, Pagination: resp.Pagination}, nil
}
