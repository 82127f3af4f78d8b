package shopify

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Order is the subset of a Shopify order the report pipeline reads.
type Order struct {
	ID              int64      `json:"id"`
	Name            string     `json:"name"`
	Email           string     `json:"email"`
	ContactEmail    string     `json:"contact_email"`
	CreatedAt       string     `json:"created_at"`
	Note            string     `json:"note"`
	Customer        *Customer  `json:"customer"`
	BillingAddress  *Address   `json:"billing_address"`
	ShippingAddress *Address   `json:"shipping_address"`
	NoteAttributes  []Property `json:"note_attributes"`
	LineItems       []LineItem `json:"line_items"`
}

// IDString returns the order id as stored in the ledger.
func (o *Order) IDString() string {
	return strconv.FormatInt(o.ID, 10)
}

type Customer struct {
	FirstName      string   `json:"first_name"`
	LastName       string   `json:"last_name"`
	Email          string   `json:"email"`
	DefaultAddress *Address `json:"default_address"`
}

// FullName joins first and last name.
func (c *Customer) FullName() string {
	if c == nil {
		return ""
	}
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

type Address struct {
	Email    string `json:"email"`
	City     string `json:"city"`
	Province string `json:"province"`
	Country  string `json:"country"`
}

type LineItem struct {
	ID         int64      `json:"id"`
	Title      string     `json:"title"`
	Properties []Property `json:"properties"`
}

// Property is a name/value pair from note_attributes or line item properties.
type Property struct {
	Name  string        `json:"name"`
	Value PropertyValue `json:"value"`
}

// PropertyValue accepts strings, numbers and booleans; storefront themes
// are not consistent about which they send.
type PropertyValue string

func (v *PropertyValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*v = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = PropertyValue(s)
		return nil
	}
	// numbers and booleans keep their literal text
	*v = PropertyValue(data)
	return nil
}

func (v PropertyValue) String() string { return string(v) }
