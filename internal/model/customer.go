package model

// Customer is a person served at the counter.  Customers are looked up by
// phone number during ticket finalization to decide whether document
// expiry tracking can be offered.
type Customer struct {
	ID        string             `json:"id"`
	Name      string             `json:"name"`
	Email     *string            `json:"email"`
	Phone     string             `json:"phone"`
	JoinDate  string             `json:"joinDate"`
	LastVisit *string            `json:"lastVisit"`
	Documents []CustomerDocument `json:"documents,omitempty"`
}

// CustomerDocument is a document whose renewal date is tracked for a
// customer (licences, certificates and the like).
type CustomerDocument struct {
	ID         string `json:"id"`
	DocType    string `json:"docType"`
	DocNumber  string `json:"docNumber"`
	IssueDate  string `json:"issueDate"`
	ExpiryDate string `json:"expiryDate"`
	CreatedAt  string `json:"createdAt,omitempty"`
	UpdatedAt  string `json:"updatedAt,omitempty"`
}

// ExpirationItem is one upcoming document expiry as reported by the
// upstream expirations listing.
type ExpirationItem struct {
	Customer struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Phone string `json:"phone"`
	} `json:"customer"`
	Document struct {
		Type   string `json:"type"`
		Number string `json:"number"`
	} `json:"document"`
	ExpiryDate string `json:"expiryDate"`
	DaysLeft   int    `json:"daysLeft"`
}

// ExpirationsResponse wraps the expirations listing with its summary
// counters.
type ExpirationsResponse struct {
	Expirations []ExpirationItem `json:"expirations"`
	Meta        *struct {
		Total        int `json:"total"`
		ExpiringSoon int `json:"expiringSoon"`
	} `json:"meta,omitempty"`
}
