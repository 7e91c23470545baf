package model

// Audit carries the ownership stamp on owner-scoped records.
type Audit struct {
	CreatedBy   string `json:"createdBy,omitempty"`
	CreatorName string `json:"creatorName,omitempty"`
	CreatedAt   string `json:"createdAt,omitempty"`
	UpdatedAt   string `json:"updatedAt,omitempty"`
}

// Check statuses of a booking.
const (
	CheckUnverified = "Unverified"
	CheckVerified   = "Verified"
)

// Booking is a trims booking.
type Booking struct {
	ID          string `json:"id"`
	BookingNo   string `json:"bookingNo"`
	Customer    string `json:"customer"`
	Buyer       string `json:"buyer"`
	Item        string `json:"item"`
	BookingDate string `json:"bookingDate"`
	CheckStatus string `json:"checkStatus"`
	CheckDate   string `json:"checkDate"`
	Remarks     string `json:"remarks"`
	Audit
}

// Buyer is an entry in the shared buyer directory.
type Buyer struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"createdAt,omitempty"`
}

// BuyerNote is a buyer-specific logic note.
type BuyerNote struct {
	ID               string `json:"id"`
	BuyerName        string `json:"buyerName"`
	Description      string `json:"description"`
	TPCLogic         string `json:"tpcLogic"`
	LogicCode        string `json:"logicCode"`
	LogicDescription string `json:"logicDescription"`
	Comments         string `json:"comments"`
	Audit
}

// EmbJob is one submitted embellishment job row.
type EmbJob struct {
	ID          string `json:"id"`
	JobNo       string `json:"jobNo"`
	Buyer       string `json:"buyer"`
	WO          string `json:"wo"`
	Status      string `json:"status"`
	Comments    string `json:"comments"`
	SubmittedAt string `json:"submittedAt,omitempty"`
}

// MerchBuyer is a buyer in a user's merchandising workspace.
type MerchBuyer struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"createdAt,omitempty"`
}

// PackingEntry is one packing list line for a merchandising buyer.
type PackingEntry struct {
	ID        string `json:"id"`
	Buyer     string `json:"buyer"`
	Date      string `json:"date"`
	Style     string `json:"style"`
	PO        string `json:"po"`
	Color     string `json:"color"`
	Qty       string `json:"qty"`
	Excess    string `json:"excess"`
	Remarks   string `json:"remarks"`
	CreatedAt string `json:"createdAt,omitempty"`
}
