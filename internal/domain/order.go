package domain

import "time"

// DateLayout is the wire and storage format of ETD/ETA.
const DateLayout = "2006-01-02"

// Length limits in characters, matching the narrowest column of any backend.
const (
	CompanyNameMaxLength = 255
	PINumberMaxLength    = 100
)

type PaymentTerms string

const (
	PaymentTermsTT   PaymentTerms = "T/T"
	PaymentTermsDA   PaymentTerms = "DA"
	PaymentTermsDP   PaymentTerms = "DP"
	PaymentTermsLC   PaymentTerms = "LC"
	PaymentTermsLCTT PaymentTerms = "LC/T/T"
)

// PaymentTermsValues lists the accepted payment terms in display order.
var PaymentTermsValues = []PaymentTerms{
	PaymentTermsTT,
	PaymentTermsDA,
	PaymentTermsDP,
	PaymentTermsLC,
	PaymentTermsLCTT,
}

func (p PaymentTerms) Valid() bool {
	for _, v := range PaymentTermsValues {
		if p == v {
			return true
		}
	}
	return false
}

// OrderDraft is the user-supplied part of an order. Ownership and creation
// time are stamped by the order service.
type OrderDraft struct {
	CompanyName  string
	PINumber     string
	ETD          time.Time
	ETA          time.Time
	PaymentTerms PaymentTerms
}

type Order struct {
	ID           int64
	CompanyName  string
	PINumber     string
	ETD          time.Time
	ETA          time.Time
	PaymentTerms PaymentTerms
	UserID       int64
	CreatedAt    time.Time
}

func NewOrder(draft OrderDraft, ownerID int64, createdAt time.Time) Order {
	return Order{
		CompanyName:  draft.CompanyName,
		PINumber:     draft.PINumber,
		ETD:          draft.ETD,
		ETA:          draft.ETA,
		PaymentTerms: draft.PaymentTerms,
		UserID:       ownerID,
		CreatedAt:    createdAt,
	}
}

// OrdersTopic is the change-notification topic of the orders table.
const OrdersTopic = "orders"
